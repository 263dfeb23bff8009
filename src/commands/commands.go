// Package commands is the operation surface consumed by the UI layer. Every
// failure is returned as an error with a human-readable message.
package commands

import (
	"context"
	"log"
	"os"
	"strings"

	"better-shot/src/capture"
	"better-shot/src/imaging"
	"better-shot/src/paths"
	"better-shot/src/platform"
	"better-shot/src/screenshot"
)

// Options configure a Service.
type Options struct {
	// DefaultSaveDir is used when a caller passes an empty save directory.
	// When empty the desktop directory is used.
	DefaultSaveDir string
	FilenamePrefix string
	CapturePrefix  string
	PlaySound      bool
}

// Service implements the commands on top of a platform backend.
type Service struct {
	backend     platform.Backend
	coordinator *capture.Coordinator
	capturer    *screenshot.Capturer
	opts        Options
}

// New returns a Service. capturer is used for the all-monitors capture.
func New(backend platform.Backend, capturer *screenshot.Capturer, opts Options) *Service {
	if capturer == nil {
		capturer = screenshot.New(nil)
	}
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = "bettershot"
	}
	if opts.CapturePrefix == "" {
		opts.CapturePrefix = "screenshot"
	}
	return &Service{
		backend:     backend,
		coordinator: capture.NewCoordinator(backend),
		capturer:    capturer,
		opts:        opts,
	}
}

// Busy reports whether a capture is in flight.
func (s *Service) Busy() bool { return s.coordinator.Busy() }

func (s *Service) resolveSaveDir(saveDir string) (string, error) {
	dir := strings.TrimSpace(saveDir)
	if dir == "" {
		dir = s.opts.DefaultSaveDir
	}
	if dir == "" {
		desktop, err := paths.DesktopDir()
		if err != nil {
			return "", err
		}
		dir = desktop
	}
	if err := paths.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// CaptureOnce captures the primary monitor into saveDir, optionally copying it to the clipboard.
func (s *Service) CaptureOnce(ctx context.Context, saveDir string, copyToClipboard bool) (string, error) {
	dir, err := s.resolveSaveDir(saveDir)
	if err != nil {
		return "", err
	}
	tmpDir, err := paths.TempDir()
	if err != nil {
		return "", err
	}

	var saved string
	err = s.coordinator.Do(ctx, capture.KindOnce, func(ctx context.Context) error {
		shot := paths.UniquePath(tmpDir, s.opts.CapturePrefix, "png")
		defer os.Remove(shot)
		if err := s.backend.CaptureOnce(ctx, shot); err != nil {
			return err
		}
		var copyErr error
		saved, copyErr = imaging.CopyToDir(shot, dir, s.opts.CapturePrefix)
		return copyErr
	})
	if err != nil {
		return "", err
	}
	log.Printf("commands: capture-once saved %s", saved)

	if copyToClipboard {
		if err := s.backend.CopyImage(ctx, saved); err != nil {
			return "", err
		}
	}
	return saved, nil
}

// CaptureAllMonitors captures each active display into its own file in saveDir.
func (s *Service) CaptureAllMonitors(ctx context.Context, saveDir string) ([]screenshot.MonitorShot, error) {
	dir, err := s.resolveSaveDir(saveDir)
	if err != nil {
		return nil, err
	}
	var shots []screenshot.MonitorShot
	err = s.coordinator.Do(ctx, capture.KindAllMonitors, func(context.Context) error {
		var captureErr error
		shots, captureErr = s.capturer.CaptureAll(dir, s.opts.CapturePrefix)
		return captureErr
	})
	if err != nil {
		return nil, err
	}
	return shots, nil
}

// CaptureRegion crops a region out of a previously captured screenshot.
func (s *Service) CaptureRegion(ctx context.Context, screenshotPath string, x, y, width, height int, saveDir string) (string, error) {
	dir, err := s.resolveSaveDir(saveDir)
	if err != nil {
		return "", err
	}
	region := imaging.Region{X: x, Y: y, Width: width, Height: height}
	return imaging.Crop(screenshotPath, region, dir, s.opts.FilenamePrefix)
}

// SaveEditedImage writes base64 editor output into saveDir, optionally copying it to the clipboard.
func (s *Service) SaveEditedImage(ctx context.Context, imageData, saveDir string, copyToClipboard bool) (string, error) {
	dir, err := s.resolveSaveDir(saveDir)
	if err != nil {
		return "", err
	}
	saved, err := imaging.SaveBase64(imageData, dir, s.opts.FilenamePrefix)
	if err != nil {
		return "", err
	}
	if copyToClipboard {
		if err := s.backend.CopyImage(ctx, saved); err != nil {
			return "", err
		}
	}
	return saved, nil
}

// CopyImageToClipboard places the image at path on the system clipboard.
func (s *Service) CopyImageToClipboard(ctx context.Context, path string) error {
	return s.backend.CopyImage(ctx, path)
}

// DesktopDirectory returns the user's Desktop directory.
func (s *Service) DesktopDirectory() (string, error) {
	return paths.DesktopDir()
}

// TempDirectory returns the canonical system temp directory.
func (s *Service) TempDirectory() (string, error) {
	return paths.TempDir()
}

// NativeCaptureInteractive lets the user drag a selection with the OS tool.
func (s *Service) NativeCaptureInteractive(ctx context.Context, saveDir string) (string, error) {
	return s.nativeCapture(ctx, capture.KindInteractive, saveDir, s.backend.CaptureInteractive)
}

// NativeCaptureFullscreen captures the whole screen with the OS tool.
func (s *Service) NativeCaptureFullscreen(ctx context.Context, saveDir string) (string, error) {
	return s.nativeCapture(ctx, capture.KindFullscreen, saveDir, s.backend.CaptureFullscreen)
}

// NativeCaptureWindow lets the user pick a window with the OS tool.
func (s *Service) NativeCaptureWindow(ctx context.Context, saveDir string) (string, error) {
	return s.nativeCapture(ctx, capture.KindWindow, saveDir, s.backend.CaptureWindow)
}

func (s *Service) nativeCapture(ctx context.Context, kind capture.Kind, saveDir string, fn func(context.Context, string) error) (string, error) {
	dir, err := s.resolveSaveDir(saveDir)
	if err != nil {
		return "", err
	}
	out := paths.UniquePath(dir, s.opts.CapturePrefix, "png")
	err = s.coordinator.Do(ctx, kind, func(ctx context.Context) error {
		return fn(ctx, out)
	})
	if err != nil {
		log.Printf("commands: %s capture failed: %v", kind, err)
		return "", err
	}
	log.Printf("commands: %s capture saved %s", kind, out)
	return out, nil
}

// PlayScreenshotSound spawns the capture sound and returns without waiting for
// it to finish. Failures are logged and otherwise ignored.
func (s *Service) PlayScreenshotSound() {
	if !s.opts.PlaySound {
		return
	}
	if err := s.backend.PlaySound(); err != nil {
		log.Printf("commands: screenshot sound failed: %v", err)
	}
}

// MousePosition returns the cursor position, used to pick the screen for the editor.
func (s *Service) MousePosition(ctx context.Context) (platform.Position, error) {
	return s.backend.MousePosition(ctx)
}
