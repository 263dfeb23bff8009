package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ErrSpawn is returned when the OS could not start a helper process.
var ErrSpawn = errors.New("process could not be started")

// Result holds the captured output of a finished helper process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r Result) Success() bool { return r.ExitCode == 0 }

// StderrText returns stderr as trimmed text.
func (r Result) StderrText() string { return strings.TrimSpace(string(r.Stderr)) }

// StdoutText returns stdout as trimmed text.
func (r Result) StdoutText() string { return strings.TrimSpace(string(r.Stdout)) }

// Runner spawns OS helper processes.
type Runner interface {
	// Run executes name synchronously and blocks until both output pipes reach EOF.
	// A non-zero exit status is reported through Result, not as an error.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// Start spawns name detached from the caller with stdio discarded.
	// The process is reaped in the background and its outcome is never reported.
	Start(name string, args ...string) error
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	return res, nil
}

func (execRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("process: detached %s exited: %v", name, err)
		}
	}()
	return nil
}

// IsRunning reports whether an OS process with exactly this name is alive, using pgrep.
// Any failure to run pgrep counts as not running.
func IsRunning(ctx context.Context, r Runner, name string) bool {
	res, err := r.Run(ctx, "pgrep", "-x", name)
	if err != nil {
		return false
	}
	return res.Success()
}

// ContainsAny reports whether text contains any of the phrases, ignoring case.
func ContainsAny(text string, phrases ...string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
