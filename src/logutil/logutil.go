package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	LogFileName  = "bettershot_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup enables file logging in dir with basic size-based rotation (10MB, max 3 archives).
// When disabled, logs are discarded to keep stdout and stderr clean.
func Setup(enableFileLogging bool, dir string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	w, err := NewRotatingWriter(filepath.Join(dir, LogFileName), maxSizeBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	log.SetOutput(w)
}

// RotatingWriter appends to a log file and rotates it once it would exceed maxSize.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	f       *os.File
}

// NewRotatingWriter opens path for appending, rotating first if it is already too large.
func NewRotatingWriter(path string, maxSize int64) (*RotatingWriter, error) {
	w := &RotatingWriter{path: path, maxSize: maxSize}
	rotateIfNeeded(path, maxSize)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	w.f = f
	return w, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

// Close closes the current log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func rotateIfNeeded(path string, maxSize int64) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSize {
		rotate(path)
	}
}

// rotate shifts archives: .1 -> .2 -> .3 (oldest discarded), current -> .1.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
