package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"better-shot/src/config"
	"better-shot/src/eventloop"
	"better-shot/src/logutil"
	"better-shot/src/runtimeinit"
	"better-shot/src/singleinstance"
)

// errAlreadyRunning is reported when the resident port is taken.
var errAlreadyRunning = errors.New("resident already running")

type mainOptions struct {
	saveDir          string
	clipboardBackend string
}

func main() {
	if err := newRootCmd(&mainOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bettershot-resident",
		Short:         "Serve screenshot commands to the bettershot CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.saveDir, "save-dir", "", "Default save directory (overrides SAVE_DIR)")
	cmd.Flags().StringVar(&opts.clipboardBackend, "clipboard-backend", "", "Clipboard backend: native or library")
	return cmd
}

func runResident(opts mainOptions) error {
	// Ensure DPI awareness before querying display bounds
	enableDPIAwareness()

	cfg, svc, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			SaveDirOverride:          opts.saveDir,
			ClipboardBackendOverride: opts.clipboardBackend,
		},
		SetupLogging: func(enable bool) { logutil.Setup(enable, logDir()) },
	})
	if err != nil {
		return err
	}

	// ---------- SINGLE-INSTANCE PRE-FLIGHT ----------
	if err := preflightPort(cfg.PortStart); err != nil {
		fmt.Printf("one is already running on port %d\n", cfg.PortStart)
		return err
	}
	log.Printf("Pre-flight: port %d free → we are the one true resident", cfg.PortStart)
	// ------------------------------------------------

	logMonitorConfiguration()
	log.Printf("better-shot resident initialized: save_dir=%q workers=%d sound=%v", cfg.SaveDir, cfg.Workers, cfg.PlaySound)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	srv := singleinstance.NewServer(singleinstance.PortRange{Start: cfg.PortStart, End: cfg.PortEnd})
	loop := eventloop.New(srv, svc, cfg.Workers)
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("event loop stopped: %v", err)
		return err
	}
	return nil
}

// preflightPort claims and releases port so the event loop can re-bind it.
func preflightPort(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("Pre-flight: port %d busy → resident already exists", port)
		return fmt.Errorf("%w on port %d", errAlreadyRunning, port)
	}
	return listener.Close()
}

// logDir places the debug log next to the executable.
func logDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
