package platform

import (
	"context"
	"fmt"

	"better-shot/src/clipboard"
	"better-shot/src/screenshot"
)

// genericBackend serves operating systems without native tooling. Only the
// primary-monitor capture works, through the display library.
type genericBackend struct {
	clipboard.Writer
	goos     string
	capturer *screenshot.Capturer
}

func (b *genericBackend) Name() string { return b.goos }

func (b *genericBackend) Preflight(context.Context) error { return nil }

func (b *genericBackend) CaptureOnce(ctx context.Context, path string) error {
	if err := b.capturer.CapturePrimary(path); err != nil {
		return err
	}
	if !fileExists(path) {
		return ErrCaptureFailed
	}
	return nil
}

func (b *genericBackend) CaptureInteractive(context.Context, string) error {
	return unsupported("Interactive")
}

func (b *genericBackend) CaptureFullscreen(context.Context, string) error {
	return unsupported("Fullscreen")
}

func (b *genericBackend) CaptureWindow(context.Context, string) error {
	return unsupported("Window")
}

func (b *genericBackend) MousePosition(context.Context) (Position, error) {
	return Position{}, fmt.Errorf("Mouse position %w", ErrUnsupported)
}

// PlaySound is a no-op.
func (b *genericBackend) PlaySound() error { return nil }
