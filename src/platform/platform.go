// Package platform implements the per-OS capture, clipboard, cursor and sound
// capabilities behind a single Backend interface.
package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"better-shot/src/clipboard"
	"better-shot/src/process"
	"better-shot/src/screenshot"
)

var (
	ErrUnsupported       = errors.New("not supported on this platform")
	ErrCaptureInProgress = errors.New("Another screenshot capture is already in progress")
	ErrPermissionDenied  = errors.New("Screen Recording permission not granted")
	ErrCancelled         = errors.New("Screenshot was cancelled or failed")
	ErrCaptureFailed     = errors.New("Screenshot failed")
	ErrMousePosition     = errors.New("Failed to get mouse position")
)

// permissionPhrases are matched case-insensitively against screencapture output.
var permissionPhrases = []string{"permission", "denied", "not authorized"}

// Position is a cursor location in screen coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Backend is the set of OS capabilities the command surface is built on.
// Capture methods write a PNG to path and fail if it is not there afterwards.
type Backend interface {
	clipboard.Writer

	Name() string

	// Preflight runs before interactive, fullscreen and window captures.
	Preflight(ctx context.Context) error

	CaptureOnce(ctx context.Context, path string) error
	CaptureInteractive(ctx context.Context, path string) error
	CaptureFullscreen(ctx context.Context, path string) error
	CaptureWindow(ctx context.Context, path string) error

	MousePosition(ctx context.Context) (Position, error)

	// PlaySound spawns the capture sound without waiting for it.
	PlaySound() error
}

// Deps are the collaborators shared by every backend.
type Deps struct {
	Runner    process.Runner
	Capturer  *screenshot.Capturer
	Clipboard clipboard.Writer
}

// New returns the Backend for goos.
func New(goos string, deps Deps) Backend {
	if deps.Runner == nil {
		deps.Runner = process.NewRunner()
	}
	if deps.Capturer == nil {
		deps.Capturer = screenshot.New(nil)
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.New(goos, clipboard.BackendNative, deps.Runner)
	}
	switch goos {
	case "darwin":
		return &darwinBackend{Writer: deps.Clipboard, runner: deps.Runner, tempDir: os.TempDir}
	case "windows":
		return &windowsBackend{Writer: deps.Clipboard, runner: deps.Runner, capturer: deps.Capturer}
	default:
		return &genericBackend{Writer: deps.Clipboard, goos: goos, capturer: deps.Capturer}
	}
}

func unsupported(op string) error {
	return fmt.Errorf("%s capture %w", op, ErrUnsupported)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// parsePosition parses "<x><sep><y>" as printed by the cursor scripts.
func parsePosition(out, sep string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(out), sep)
	if len(parts) != 2 {
		return Position{}, errors.New("Invalid mouse position format")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Position{}, errors.New("Failed to parse X coordinate")
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Position{}, errors.New("Failed to parse Y coordinate")
	}
	return Position{X: x, Y: y}, nil
}
