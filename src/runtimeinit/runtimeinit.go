package runtimeinit

import (
	"fmt"
	"log"

	"better-shot/src/clipboard"
	"better-shot/src/commands"
	"better-shot/src/config"
	"better-shot/src/platform"
	"better-shot/src/process"
	"better-shot/src/screenshot"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)

	// Overridable collaborators; nil means the real system ones.
	Runner   process.Runner
	Displays screenshot.Displays
}

// Bootstrap loads configuration and wires the command service for the host OS.
func Bootstrap(opts Options) (*config.Config, *commands.Service, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	return cfg, Build(cfg, opts.Runner, opts.Displays), nil
}

// Build wires the backend and service described by cfg.
func Build(cfg *config.Config, runner process.Runner, displays screenshot.Displays) *commands.Service {
	if runner == nil {
		runner = process.NewRunner()
	}
	capturer := screenshot.New(displays)
	backend := platform.New(cfg.GOOS, platform.Deps{
		Runner:    runner,
		Capturer:  capturer,
		Clipboard: clipboard.New(cfg.GOOS, cfg.ClipboardBackend, runner),
	})
	log.Printf("runtimeinit: backend=%s clipboard=%s", backend.Name(), cfg.ClipboardBackend)

	return commands.New(backend, capturer, commands.Options{
		DefaultSaveDir: cfg.SaveDir,
		FilenamePrefix: cfg.FilenamePrefix,
		CapturePrefix:  cfg.CapturePrefix,
		PlaySound:      cfg.PlaySound,
	})
}
