package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"runtime/debug"
	"sync"
)

// ErrTaskPanicked is reported to the callback when a task panics.
var ErrTaskPanicked = errors.New("internal error")

// Task is the unit of work executed by a pool worker.
type Task func(ctx context.Context) (any, error)

// ResultCallback is invoked on task completion (from a worker goroutine).
type ResultCallback func(result any, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("worker: starting %s", j.name)
				result, err := run(j.ctx, j.name, j.task)
				log.Printf("worker: %s completed, err=%v", j.name, err)
				j.cb(result, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// run skips tasks whose context ended while they sat in the queue. A panicking
// task is reported as an error and leaves the worker alive.
func run(ctx context.Context, name string, task Task) (result any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("worker: %s panicked: %v\n%s", name, r, debug.Stack())
			result, err = nil, fmt.Errorf("%w: %s: %v", ErrTaskPanicked, name, r)
		}
	}()
	return task(ctx)
}
