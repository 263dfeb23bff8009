package platform

import (
	"context"
	"fmt"

	"better-shot/src/clipboard"
	"better-shot/src/process"
	"better-shot/src/screenshot"
)

const (
	mousePositionPS = `Add-Type -AssemblyName System.Windows.Forms; $pos = [System.Windows.Forms.Cursor]::Position; Write-Output "$($pos.X),$($pos.Y)"`
	soundPS         = `[System.Media.SystemSounds]::Asterisk.Play()`
)

var powershellArgs = []string{"-NoProfile", "-NonInteractive", "-Command"}

// windowsBackend captures the primary monitor directly. There is no native
// interactive or window picker; region selection is left to the caller.
type windowsBackend struct {
	clipboard.Writer
	runner   process.Runner
	capturer *screenshot.Capturer
}

func (b *windowsBackend) Name() string { return "windows" }

func (b *windowsBackend) Preflight(context.Context) error { return nil }

func (b *windowsBackend) CaptureOnce(ctx context.Context, path string) error {
	return b.capturePrimary(path)
}

func (b *windowsBackend) CaptureInteractive(ctx context.Context, path string) error {
	return b.capturePrimary(path)
}

func (b *windowsBackend) CaptureFullscreen(ctx context.Context, path string) error {
	return b.capturePrimary(path)
}

// CaptureWindow falls back to a fullscreen capture.
func (b *windowsBackend) CaptureWindow(ctx context.Context, path string) error {
	return b.CaptureFullscreen(ctx, path)
}

func (b *windowsBackend) capturePrimary(path string) error {
	if err := b.capturer.CapturePrimary(path); err != nil {
		return err
	}
	if !fileExists(path) {
		return ErrCaptureFailed
	}
	return nil
}

func (b *windowsBackend) MousePosition(ctx context.Context) (Position, error) {
	res, err := b.runner.Run(ctx, "powershell", append(powershellArgs, mousePositionPS)...)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrMousePosition, err)
	}
	if !res.Success() {
		return Position{}, ErrMousePosition
	}
	return parsePosition(string(res.Stdout), ",")
}

func (b *windowsBackend) PlaySound() error {
	return b.runner.Start("powershell", append(powershellArgs, soundPS)...)
}
