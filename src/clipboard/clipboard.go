// Package clipboard places image files on the system clipboard as pixel data.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"better-shot/src/process"
)

const (
	// BackendNative shells out to osascript (macOS) or PowerShell (Windows).
	BackendNative = "native"
	// BackendLibrary writes PNG bytes through golang.design/x/clipboard.
	BackendLibrary = "library"
)

var (
	// ErrUnsupported is returned on platforms without a clipboard implementation.
	ErrUnsupported = errors.New("Clipboard copy not supported on this platform")
	// ErrFileNotFound is returned when the image to copy does not exist.
	ErrFileNotFound = errors.New("File not found")
)

// Writer copies an image file to the clipboard.
type Writer interface {
	CopyImage(ctx context.Context, path string) error
}

// New returns the Writer for goos and backend.
func New(goos, backend string, runner process.Runner) Writer {
	if backend == BackendLibrary {
		return newLibraryWriter()
	}
	switch goos {
	case "darwin":
		return &osascriptWriter{runner: runner}
	case "windows":
		return &powershellWriter{runner: runner}
	default:
		return unsupportedWriter{}
	}
}

type unsupportedWriter struct{}

func (unsupportedWriter) CopyImage(context.Context, string) error { return ErrUnsupported }

// osascriptWriter relies on osascript itself to report a missing file.
type osascriptWriter struct {
	runner process.Runner
}

func (w *osascriptWriter) CopyImage(ctx context.Context, path string) error {
	res, err := w.runner.Run(ctx, "osascript", "-e", AppleScript(path))
	if err != nil {
		return fmt.Errorf("Failed to execute osascript: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("Failed to copy image to clipboard: %s", res.StderrText())
	}
	return nil
}

// AppleScript returns the script that loads path into the clipboard as PNG data.
func AppleScript(path string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(path)
	return fmt.Sprintf(`set the clipboard to (read (POSIX file "%s") as «class PNGf»)`, escaped)
}

type powershellWriter struct {
	runner process.Runner
}

func (w *powershellWriter) CopyImage(ctx context.Context, path string) error {
	canonical, err := canonicalFile(path)
	if err != nil {
		return err
	}
	res, err := w.runner.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", PowerShellScript(canonical))
	if err != nil {
		return fmt.Errorf("Failed to execute PowerShell: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("Failed to copy image to clipboard: %s", res.StderrText())
	}
	return nil
}

// PowerShellScript returns the System.Windows.Forms script that loads path into the clipboard.
func PowerShellScript(path string) string {
	escaped := strings.ReplaceAll(path, "'", "''")
	return fmt.Sprintf("Add-Type -AssemblyName System.Windows.Forms; "+
		"$image = [System.Drawing.Image]::FromFile('%s'); "+
		"[System.Windows.Forms.Clipboard]::SetImage($image); $image.Dispose()", escaped)
}

// canonicalFile checks path is an existing regular file and returns it absolute
// with symlinks resolved.
func canonicalFile(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("Failed to resolve path: %w", err)
	}
	if !st.Mode().IsRegular() {
		return "", fmt.Errorf("Path is not a file: %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("Failed to resolve path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("Failed to resolve path: %w", err)
	}
	return resolved, nil
}
