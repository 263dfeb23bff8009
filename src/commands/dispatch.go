package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Command names accepted by Dispatch.
const (
	CmdCaptureOnce              = "capture_once"
	CmdCaptureAllMonitors       = "capture_all_monitors"
	CmdCaptureRegion            = "capture_region"
	CmdSaveEditedImage          = "save_edited_image"
	CmdCopyImageToClipboard     = "copy_image_to_clipboard"
	CmdGetDesktopDirectory      = "get_desktop_directory"
	CmdGetTempDirectory         = "get_temp_directory"
	CmdNativeCaptureInteractive = "native_capture_interactive"
	CmdNativeCaptureFullscreen  = "native_capture_fullscreen"
	CmdNativeCaptureWindow      = "native_capture_window"
	CmdPlayScreenshotSound      = "play_screenshot_sound"
	CmdGetMousePosition         = "get_mouse_position"
)

// ErrUnknownCommand is returned by Dispatch for unrecognised command names.
var ErrUnknownCommand = errors.New("unknown command")

// Args carries the parameters of every command; each command reads only its own.
type Args struct {
	SaveDir         string `json:"save_dir,omitempty"`
	CopyToClipboard bool   `json:"copy_to_clipboard,omitempty"`
	ScreenshotPath  string `json:"screenshot_path,omitempty"`
	X               int    `json:"x,omitempty"`
	Y               int    `json:"y,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	ImageData       string `json:"image_data,omitempty"`
	Path            string `json:"path,omitempty"`
}

// Request is one named command invocation.
type Request struct {
	Command string `json:"command"`
	Args    Args   `json:"args"`
}

type handler func(ctx context.Context, s *Service, a Args) (any, error)

var handlers = map[string]handler{
	CmdCaptureOnce: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.CaptureOnce(ctx, a.SaveDir, a.CopyToClipboard)
	},
	CmdCaptureAllMonitors: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.CaptureAllMonitors(ctx, a.SaveDir)
	},
	CmdCaptureRegion: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.CaptureRegion(ctx, a.ScreenshotPath, a.X, a.Y, a.Width, a.Height, a.SaveDir)
	},
	CmdSaveEditedImage: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.SaveEditedImage(ctx, a.ImageData, a.SaveDir, a.CopyToClipboard)
	},
	CmdCopyImageToClipboard: func(ctx context.Context, s *Service, a Args) (any, error) {
		return nil, s.CopyImageToClipboard(ctx, a.Path)
	},
	CmdGetDesktopDirectory: func(_ context.Context, s *Service, _ Args) (any, error) {
		return s.DesktopDirectory()
	},
	CmdGetTempDirectory: func(_ context.Context, s *Service, _ Args) (any, error) {
		return s.TempDirectory()
	},
	CmdNativeCaptureInteractive: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.NativeCaptureInteractive(ctx, a.SaveDir)
	},
	CmdNativeCaptureFullscreen: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.NativeCaptureFullscreen(ctx, a.SaveDir)
	},
	CmdNativeCaptureWindow: func(ctx context.Context, s *Service, a Args) (any, error) {
		return s.NativeCaptureWindow(ctx, a.SaveDir)
	},
	CmdPlayScreenshotSound: func(_ context.Context, s *Service, _ Args) (any, error) {
		s.PlayScreenshotSound()
		return nil, nil
	},
	CmdGetMousePosition: func(ctx context.Context, s *Service, _ Args) (any, error) {
		return s.MousePosition(ctx)
	},
}

// Dispatch runs the named command and returns its result value.
func (s *Service) Dispatch(ctx context.Context, req Request) (any, error) {
	h, ok := handlers[req.Command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command)
	}
	return h(ctx, s, req.Args)
}

// Names returns every command name accepted by Dispatch, sorted.
func Names() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
