// Package paths generates capture filenames and resolves the desktop and temp directories.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var now = time.Now

// GenerateFilename returns "<prefix>_<YYYYMMDD>_<HHMMSS>_<mmm>.<ext>" for the current time.
func GenerateFilename(prefix, ext string) string {
	t := now()
	return fmt.Sprintf("%s_%s_%03d.%s", prefix, t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond), strings.TrimPrefix(ext, "."))
}

// UniquePath joins a generated filename onto dir, appending a counter when the
// name is already taken.
func UniquePath(dir, prefix, ext string) string {
	name := GenerateFilename(prefix, ext)
	candidate := filepath.Join(dir, name)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for i := 1; exists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, filepath.Ext(name)))
	}
	return candidate
}

// CreateUnique creates a new file in dir named like UniquePath. Creation is
// exclusive: a name taken between the check and the open moves on to the next
// "-N" suffix instead of truncating another writer's file.
func CreateUnique(dir, prefix, ext string) (*os.File, error) {
	name := GenerateFilename(prefix, ext)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("Failed to create %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, filepath.Ext(name)))
	}
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// DesktopDir returns the current user's Desktop directory.
func DesktopDir() (string, error) {
	dir, err := desktopDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", errors.New("Failed to get desktop directory")
	}
	return dir, nil
}

// TempDir returns the system temp directory as an absolute path with symlinks
// resolved (e.g. /tmp -> /private/tmp on macOS). If resolution fails the
// absolute unresolved path is returned.
func TempDir() (string, error) {
	dir, err := filepath.Abs(os.TempDir())
	if err != nil {
		return "", fmt.Errorf("Failed to resolve temp directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	return dir, nil
}

// EnsureDir creates dir (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return errors.New("save directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Failed to create directory %s: %w", dir, err)
	}
	return nil
}
