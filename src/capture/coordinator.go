// Package capture serialises screenshot captures within a process.
package capture

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"better-shot/src/platform"
)

// ErrCaptureInProgress is returned when a capture is requested while another is running.
var ErrCaptureInProgress = platform.ErrCaptureInProgress

// Kind identifies a capture variant.
type Kind int

const (
	KindOnce Kind = iota
	KindAllMonitors
	KindInteractive
	KindFullscreen
	KindWindow
)

func (k Kind) String() string {
	switch k {
	case KindOnce:
		return "once"
	case KindAllMonitors:
		return "all-monitors"
	case KindInteractive:
		return "interactive"
	case KindFullscreen:
		return "fullscreen"
	case KindWindow:
		return "window"
	default:
		return "unknown"
	}
}

// userTriggered reports whether the variant runs the backend preflight.
func (k Kind) userTriggered() bool {
	return k == KindInteractive || k == KindFullscreen || k == KindWindow
}

// Coordinator owns the capture lock. Requests never queue: a second capture
// fails immediately while one is in flight.
type Coordinator struct {
	mu      sync.Mutex
	busy    atomic.Bool
	current atomic.Int32
	backend platform.Backend
}

// NewCoordinator returns a Coordinator that preflights through backend.
func NewCoordinator(backend platform.Backend) *Coordinator {
	return &Coordinator{backend: backend}
}

// Do runs fn while holding the capture lock. The lock is released on every
// return path, including panics in fn.
func (c *Coordinator) Do(ctx context.Context, kind Kind, fn func(ctx context.Context) error) error {
	if !c.mu.TryLock() {
		log.Printf("capture: %s rejected, %s capture in progress", kind, Kind(c.current.Load()))
		return ErrCaptureInProgress
	}
	defer c.mu.Unlock()

	c.current.Store(int32(kind))
	c.busy.Store(true)
	defer c.busy.Store(false)

	if kind.userTriggered() {
		if err := c.backend.Preflight(ctx); err != nil {
			log.Printf("capture: %s preflight failed: %v", kind, err)
			return err
		}
	}
	return fn(ctx)
}

// Busy reports whether a capture currently holds the lock.
func (c *Coordinator) Busy() bool { return c.busy.Load() }
