package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"better-shot/src/commands"
	"better-shot/src/config"
	"better-shot/src/runtimeinit"
	"better-shot/src/singleinstance"
)

type cliOptions struct {
	saveDir          string
	clipboardBackend string
	jsonOutput       bool
	verbose          bool
	standalone       bool
}

// delegator runs a request on a resident process.
type delegator interface {
	Delegate(ctx context.Context, req commands.Request) (bool, json.RawMessage, error)
}

// dispatcher runs a request in-process.
type dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request) (any, error)
}

type app struct {
	opts   cliOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	newClient  func(singleinstance.PortRange) delegator
	newService func(*config.Config) dispatcher
}

func newApp() *app {
	return &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		newClient: func(ports singleinstance.PortRange) delegator {
			return singleinstance.NewClient(ports)
		},
		newService: func(cfg *config.Config) dispatcher {
			return runtimeinit.Build(cfg, nil, nil)
		},
	}
}

func main() {
	if err := runWithArgs(newApp(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"bettershot"}
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args[1:])
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd.Execute()
}

// requestBuilder turns parsed flags into a request once configuration is known.
type requestBuilder func(cfg *config.Config) (commands.Request, error)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bettershot",
		Short:         "Capture, crop and copy screenshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.saveDir, "save-dir", "", "Directory for saved images (default SAVE_DIR, else Desktop)")
	pf.StringVar(&a.opts.clipboardBackend, "clipboard-backend", "", "Clipboard backend: native or library")
	pf.BoolVar(&a.opts.jsonOutput, "json", false, "Output results as JSON")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.BoolVar(&a.opts.standalone, "standalone", false, "Do not delegate to a running resident")

	root.AddCommand(
		a.captureCmd("capture-once", "Capture the primary monitor", commands.CmdCaptureOnce, true),
		a.captureCmd("capture-all-monitors", "Capture every monitor into its own file", commands.CmdCaptureAllMonitors, false),
		a.captureCmd("capture-interactive", "Select a region or window interactively", commands.CmdNativeCaptureInteractive, false),
		a.captureCmd("capture-fullscreen", "Capture the full screen with the native tool", commands.CmdNativeCaptureFullscreen, false),
		a.captureCmd("capture-window", "Capture a window chosen by the user", commands.CmdNativeCaptureWindow, false),
		a.captureRegionCmd(),
		a.saveEditedCmd(),
		a.copyImageCmd(),
		a.simpleCmd("desktop-dir", "Print the desktop directory", commands.CmdGetDesktopDirectory),
		a.simpleCmd("temp-dir", "Print the canonical temporary directory", commands.CmdGetTempDirectory),
		a.simpleCmd("play-sound", "Play the screenshot sound", commands.CmdPlayScreenshotSound),
		a.simpleCmd("mouse-position", "Print the mouse cursor position", commands.CmdGetMousePosition),
	)
	return root
}

func (a *app) captureCmd(use, short, command string, withCopy bool) *cobra.Command {
	var copyToClipboard bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd.Context(), func(cfg *config.Config) (commands.Request, error) {
				req := commands.Request{Command: command, Args: commands.Args{SaveDir: cfg.SaveDir}}
				if withCopy {
					req.Args.CopyToClipboard = copyFlag(cmd, copyToClipboard, cfg)
				}
				return req, nil
			})
		},
	}
	if withCopy {
		cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Copy the result to the clipboard (default COPY_TO_CLIPBOARD)")
	}
	return cmd
}

func (a *app) captureRegionCmd() *cobra.Command {
	var x, y, width, height int
	cmd := &cobra.Command{
		Use:   "capture-region <screenshot>",
		Short: "Crop a region out of an existing screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), func(cfg *config.Config) (commands.Request, error) {
				return commands.Request{Command: commands.CmdCaptureRegion, Args: commands.Args{
					SaveDir:        cfg.SaveDir,
					ScreenshotPath: args[0],
					X:              x,
					Y:              y,
					Width:          width,
					Height:         height,
				}}, nil
			})
		},
	}
	cmd.Flags().IntVar(&x, "x", 0, "Left edge of the region")
	cmd.Flags().IntVar(&y, "y", 0, "Top edge of the region")
	cmd.Flags().IntVar(&width, "width", 0, "Region width")
	cmd.Flags().IntVar(&height, "height", 0, "Region height")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func (a *app) saveEditedCmd() *cobra.Command {
	var data string
	var copyToClipboard bool
	cmd := &cobra.Command{
		Use:   "save-edited-image",
		Short: "Save a base64 encoded image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd.Context(), func(cfg *config.Config) (commands.Request, error) {
				if data == "-" {
					in, err := io.ReadAll(a.stdin)
					if err != nil {
						return commands.Request{}, fmt.Errorf("failed to read from stdin: %w", err)
					}
					data = string(in)
				}
				if strings.TrimSpace(data) == "" {
					return commands.Request{}, fmt.Errorf("image data is empty")
				}
				return commands.Request{Command: commands.CmdSaveEditedImage, Args: commands.Args{
					SaveDir:         cfg.SaveDir,
					ImageData:       data,
					CopyToClipboard: copyFlag(cmd, copyToClipboard, cfg),
				}}, nil
			})
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Base64 image data, or '-' for stdin")
	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Copy the result to the clipboard (default COPY_TO_CLIPBOARD)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (a *app) copyImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy-image <path>",
		Short: "Copy an image file to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), func(*config.Config) (commands.Request, error) {
				return commands.Request{Command: commands.CmdCopyImageToClipboard, Args: commands.Args{Path: args[0]}}, nil
			})
		},
	}
}

func (a *app) simpleCmd(use, short, command string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd.Context(), func(*config.Config) (commands.Request, error) {
				return commands.Request{Command: command}, nil
			})
		},
	}
}

func copyFlag(cmd *cobra.Command, value bool, cfg *config.Config) bool {
	if cmd.Flags().Changed("copy") {
		return value
	}
	return cfg.CopyToClipboard
}

func (a *app) execute(ctx context.Context, build requestBuilder) error {
	// Configure logging BEFORE any other operations.
	if a.opts.verbose {
		log.SetOutput(a.stderr)
		fmt.Fprintf(a.stderr, "[verbose] Starting bettershot\n")
	} else {
		log.SetOutput(io.Discard)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		SaveDirOverride:          a.opts.saveDir,
		ClipboardBackendOverride: a.opts.clipboardBackend,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	req, err := build(cfg)
	if err != nil {
		return err
	}
	a.verbosef("Request: %s", req.Command)

	if !a.opts.standalone {
		delegated, raw, err := a.newClient(singleinstance.PortRange{Start: cfg.PortStart, End: cfg.PortEnd}).Delegate(ctx, req)
		if err != nil {
			return err
		}
		if delegated {
			a.verbosef("Delegated to resident")
			return a.outputRaw(raw)
		}
		a.verbosef("No resident detected, running standalone")
	}

	result, err := a.newService(cfg).Dispatch(ctx, req)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return a.outputRaw(raw)
}

// outputRaw prints strings as-is and everything else as JSON; --json always prints JSON.
func (a *app) outputRaw(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		if a.opts.jsonOutput {
			fmt.Fprintln(a.stdout, "null")
		}
		return nil
	}
	var s string
	if !a.opts.jsonOutput && json.Unmarshal(raw, &s) == nil {
		fmt.Fprintln(a.stdout, s)
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (a *app) verbosef(format string, args ...any) {
	if a.opts.verbose {
		fmt.Fprintf(a.stderr, "[verbose] "+format+"\n", args...)
	}
}
