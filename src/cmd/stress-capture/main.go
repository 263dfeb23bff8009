package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"better-shot/src/commands"
	"better-shot/src/config"
	"better-shot/src/process"
	"better-shot/src/singleinstance"
)

type stressOptions struct {
	n        int
	command  string
	saveDir  string
	deadline time.Duration
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeBusy
	outcomeConflict
	outcomeNoResident
	outcomeErr
)

type tally struct {
	ok, busy, conflict, noResident, err atomic.Int32
}

func (t *tally) add(o outcome) {
	switch o {
	case outcomeOK:
		t.ok.Add(1)
	case outcomeBusy:
		t.busy.Add(1)
	case outcomeConflict:
		t.conflict.Add(1)
	case outcomeNoResident:
		t.noResident.Add(1)
	default:
		t.err.Add(1)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Fire concurrent delegated captures at the resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client := singleinstance.NewClient(singleinstance.PortRange{Start: cfg.PortStart, End: cfg.PortEnd})
			return runWithOptions(*opts, client, os.Stdout)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.command, "command", commands.CmdCaptureOnce, "command each client sends")
	cmd.Flags().StringVar(&opts.saveDir, "save-dir", "", "save directory passed with each request")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(opts stressOptions, client singleinstance.Client, out io.Writer) error {
	var wg sync.WaitGroup
	var t tally

	req := commands.Request{Command: opts.command, Args: commands.Args{SaveDir: opts.saveDir}}
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.Delegate(ctx, req)
			t.add(classify(delegated, err))
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	fmt.Fprintf(out, "launched=%d ok=%d busy=%d in_progress=%d no_resident=%d err=%d elapsed=%s\n",
		opts.n, t.ok.Load(), t.busy.Load(), t.conflict.Load(), t.noResident.Load(), t.err.Load(), elapsed)
	return nil
}

func classify(delegated bool, err error) outcome {
	switch {
	case err != nil && process.ContainsAny(err.Error(), "busy"):
		return outcomeBusy
	case err != nil && process.ContainsAny(err.Error(), "already in progress"):
		return outcomeConflict
	case err != nil:
		return outcomeErr
	case !delegated:
		return outcomeNoResident
	default:
		return outcomeOK
	}
}
