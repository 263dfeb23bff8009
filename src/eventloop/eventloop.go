package eventloop

import (
	"context"
	"errors"
	"log"

	"better-shot/src/commands"
	"better-shot/src/singleinstance"
	"better-shot/src/worker"
)

// ErrBusy is returned to clients when the worker queue is full.
var ErrBusy = errors.New("Busy, please retry")

// Dispatcher runs one named command.
type Dispatcher interface {
	Dispatch(ctx context.Context, req commands.Request) (any, error)
}

// Loop accepts delegated requests and runs them on the worker pool.
type Loop struct {
	srv  singleinstance.Server
	svc  Dispatcher
	pool *worker.Pool
}

// New creates a loop serving svc over srv with the given number of workers.
func New(srv singleinstance.Server, svc Dispatcher, workers int) *Loop {
	return &Loop{srv: srv, svc: svc, pool: worker.New(workers)}
}

// Run starts the server and processes client requests.
// It blocks until ctx is cancelled or the server is closed.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	if p := l.srv.Port(); p > 0 {
		log.Printf("eventloop: resident listening on 127.0.0.1:%d", p)
	}
	defer l.pool.Close()
	defer l.srv.Close()

	for {
		conn, err := l.srv.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		l.handleConn(ctx, conn)
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	req := conn.Request()
	submitted := l.pool.Submit(ctx, req.Command, func(ctx context.Context) (any, error) {
		return l.svc.Dispatch(ctx, req)
	}, func(result any, err error) {
		defer conn.Close()
		if err != nil {
			log.Printf("eventloop: %s failed: %v", req.Command, err)
			_ = conn.RespondError(err.Error())
			return
		}
		if err := conn.RespondSuccess(result); err != nil {
			log.Printf("eventloop: failed to deliver %s result: %v", req.Command, err)
		}
	})
	if !submitted {
		log.Printf("eventloop: queue full, rejecting %s", req.Command)
		_ = conn.RespondError(ErrBusy.Error())
		_ = conn.Close()
	}
}
