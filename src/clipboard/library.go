package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"sync"

	"golang.design/x/clipboard"

	"better-shot/src/imaging"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// libraryWriter serialises writes so parallel copies cannot interleave.
type libraryWriter struct {
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex
}

func newLibraryWriter() *libraryWriter { return &libraryWriter{} }

func (w *libraryWriter) init() error {
	w.initOnce.Do(func() {
		w.initErr = clipboard.Init()
	})
	return w.initErr
}

func (w *libraryWriter) CopyImage(ctx context.Context, path string) error {
	canonical, err := canonicalFile(path)
	if err != nil {
		return err
	}
	data, err := pngBytes(canonical)
	if err != nil {
		return err
	}
	if err := w.init(); err != nil {
		return fmt.Errorf("Failed to initialize clipboard: %w", err)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// pngBytes returns the file contents, re-encoding to PNG when the file is another format.
func pngBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read image: %w", err)
	}
	if bytes.HasPrefix(data, pngSignature) {
		return data, nil
	}
	img, err := imaging.Decode(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("Failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
