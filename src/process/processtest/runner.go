// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"fmt"
	"sync"

	"better-shot/src/process"
)

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// Response scripts the outcome of one invocation. Effect, when set, runs before
// the result is returned and receives the invocation args.
type Response struct {
	Result process.Result
	Err    error
	Effect func(args []string)
}

// Runner is a process.Runner that replays scripted responses per command name.
// The last response queued for a name repeats once the queue is drained.
type Runner struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []Call
	started   []Call
}

// New returns an empty Runner. Unscripted commands fail to spawn.
func New() *Runner {
	return &Runner{responses: make(map[string][]Response)}
}

// On queues responses for name.
func (r *Runner) On(name string, resp ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[name] = append(r.responses[name], resp...)
	return r
}

func (r *Runner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	queue := r.responses[name]
	if len(queue) == 0 {
		r.mu.Unlock()
		return process.Result{}, fmt.Errorf("%w: exec: %q: executable file not found in $PATH", process.ErrSpawn, name)
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.responses[name] = queue[1:]
	}
	r.mu.Unlock()

	if resp.Effect != nil {
		resp.Effect(args)
	}
	return resp.Result, resp.Err
}

func (r *Runner) Start(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, Call{Name: name, Args: append([]string(nil), args...)})
	return nil
}

// Calls returns the synchronous invocations of name, or all of them when name is empty.
func (r *Runner) Calls(name string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filter(r.calls, name)
}

// Started returns the detached invocations of name, or all of them when name is empty.
func (r *Runner) Started(name string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filter(r.started, name)
}

func filter(calls []Call, name string) []Call {
	var out []Call
	for _, c := range calls {
		if name == "" || c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Exit returns a Response with the given exit code and stderr.
func Exit(code int, stderr string) Response {
	return Response{Result: process.Result{ExitCode: code, Stderr: []byte(stderr)}}
}

// Stdout returns a successful Response printing out.
func Stdout(out string) Response {
	return Response{Result: process.Result{Stdout: []byte(out)}}
}
