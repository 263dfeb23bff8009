package platform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"better-shot/src/clipboard"
	"better-shot/src/process"
)

const (
	screencaptureBin = "screencapture"
	captureSoundPath = "/System/Library/Components/CoreAudio.component/Contents/SharedSupport/SystemSounds/system/Screen Capture.aif"
	mousePositionAS  = `tell application "System Events" to return (get position of mouse)`
	settingsHint     = "System Settings > Privacy & Security > Screen Recording"
)

// darwinBackend drives the macOS screencapture, osascript and afplay tools.
type darwinBackend struct {
	clipboard.Writer
	runner  process.Runner
	tempDir func() string
}

func (b *darwinBackend) Name() string { return "darwin" }

// Preflight refuses to start while a screencapture process is alive and runs
// the permission probe. The liveness check is not atomic with the capture that
// follows; a conflicting screencapture reports its own error.
func (b *darwinBackend) Preflight(ctx context.Context) error {
	if process.IsRunning(ctx, b.runner, screencaptureBin) {
		return ErrCaptureInProgress
	}
	if err := b.checkPermission(ctx); err != nil {
		return fmt.Errorf("Permission check failed: %w. Please ensure Screen Recording permission is granted in %s.", err, settingsHint)
	}
	return nil
}

// checkPermission takes a zero-delay throwaway capture. Besides detecting a
// denial it makes macOS register the app for Screen Recording.
func (b *darwinBackend) checkPermission(ctx context.Context) error {
	probe := filepath.Join(b.tempDir(), fmt.Sprintf("bs_test_%d.png", os.Getpid()))
	defer os.Remove(probe)

	res, err := b.runner.Run(ctx, screencaptureBin, "-x", "-T", "0", probe)
	if err != nil {
		if process.ContainsAny(err.Error(), permissionPhrases...) {
			return ErrPermissionDenied
		}
		log.Printf("platform: permission probe could not run: %v", err)
		return nil
	}
	if process.ContainsAny(string(res.Stderr), permissionPhrases...) {
		return ErrPermissionDenied
	}
	return nil
}

func (b *darwinBackend) CaptureOnce(ctx context.Context, path string) error {
	return b.captureStill(ctx, path, "-x", "-m")
}

func (b *darwinBackend) CaptureFullscreen(ctx context.Context, path string) error {
	return b.captureStill(ctx, path, "-x")
}

func (b *darwinBackend) CaptureInteractive(ctx context.Context, path string) error {
	return b.captureSelection(ctx, path, "-i")
}

func (b *darwinBackend) CaptureWindow(ctx context.Context, path string) error {
	return b.captureSelection(ctx, path, "-w")
}

func (b *darwinBackend) captureStill(ctx context.Context, path string, flags ...string) error {
	res, err := b.runner.Run(ctx, screencaptureBin, append(flags, path)...)
	if err != nil {
		return fmt.Errorf("Failed to run screencapture: %w", err)
	}
	if !res.Success() || !fileExists(path) {
		return ErrCaptureFailed
	}
	return nil
}

// captureSelection blocks until the user completes or cancels the selection.
func (b *darwinBackend) captureSelection(ctx context.Context, path, mode string) error {
	res, err := b.runner.Run(ctx, screencaptureBin, mode, "-x", path)
	if err != nil {
		return fmt.Errorf("Failed to run screencapture: %w", err)
	}
	if !res.Success() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("platform: failed to remove partial capture %s: %v", path, err)
		}
		if process.ContainsAny(string(res.Stderr), permissionPhrases...) {
			return fmt.Errorf("Screen Recording permission required (%w). Please grant permission in %s and restart the app.", ErrPermissionDenied, settingsHint)
		}
		return ErrCancelled
	}
	if !fileExists(path) {
		return ErrCancelled
	}
	return nil
}

func (b *darwinBackend) MousePosition(ctx context.Context) (Position, error) {
	res, err := b.runner.Run(ctx, "osascript", "-e", mousePositionAS)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrMousePosition, err)
	}
	if !res.Success() {
		return Position{}, ErrMousePosition
	}
	return parsePosition(string(res.Stdout), ", ")
}

func (b *darwinBackend) PlaySound() error {
	return b.runner.Start("afplay", captureSoundPath)
}
