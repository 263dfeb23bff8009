package eventloop

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"better-shot/src/commands"
	"better-shot/src/singleinstance"
)

type fakeConn struct {
	req    commands.Request
	mu     sync.Mutex
	result any
	errMsg string
	closed chan struct{}
}

func newFakeConn(command string) *fakeConn {
	return &fakeConn{req: commands.Request{Command: command}, closed: make(chan struct{})}
}

func (c *fakeConn) Request() commands.Request { return c.req }

func (c *fakeConn) RespondSuccess(result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	return nil
}

func (c *fakeConn) RespondError(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
	return nil
}

func (c *fakeConn) Close() error {
	close(c.closed)
	return nil
}

func (c *fakeConn) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection for %s was never closed", c.req.Command)
	}
}

type fakeServer struct {
	conns chan singleinstance.Conn
}

func (s *fakeServer) Start(context.Context) error { return nil }
func (s *fakeServer) Port() int                   { return 0 }
func (s *fakeServer) Close() error                { return nil }

func (s *fakeServer) Next(ctx context.Context) (singleinstance.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c, ok := <-s.conns:
		if !ok {
			return nil, net.ErrClosed
		}
		return c, nil
	}
}

type dispatchFunc func(ctx context.Context, req commands.Request) (any, error)

func (f dispatchFunc) Dispatch(ctx context.Context, req commands.Request) (any, error) {
	return f(ctx, req)
}

func TestLoopAnswersRequests(t *testing.T) {
	srv := &fakeServer{conns: make(chan singleinstance.Conn)}
	svc := dispatchFunc(func(ctx context.Context, req commands.Request) (any, error) {
		if req.Command == "fail" {
			return nil, errors.New("Screenshot failed")
		}
		return "/tmp/" + req.Command + ".png", nil
	})

	loop := New(srv, svc, 1)
	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	ok := newFakeConn("shot")
	srv.conns <- ok
	ok.wait(t)
	bad := newFakeConn("fail")
	srv.conns <- bad
	bad.wait(t)
	close(srv.conns)
	require.NoError(t, <-done)

	assert.Equal(t, "/tmp/shot.png", ok.result)
	assert.Empty(t, ok.errMsg)
	assert.Equal(t, "Screenshot failed", bad.errMsg)
}

func TestLoopRejectsWhenBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	svc := dispatchFunc(func(ctx context.Context, req commands.Request) (any, error) {
		started <- struct{}{}
		<-release
		return nil, nil
	})
	srv := &fakeServer{conns: make(chan singleinstance.Conn)}
	loop := New(srv, svc, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	first, queued, rejected := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	srv.conns <- first
	<-started
	srv.conns <- queued
	srv.conns <- rejected

	rejected.wait(t)
	assert.Equal(t, "Busy, please retry", rejected.errMsg)

	close(release)
	first.wait(t)
	queued.wait(t)
	assert.Empty(t, queued.errMsg)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestLoopAnswersPanickingCommandWithError(t *testing.T) {
	srv := &fakeServer{conns: make(chan singleinstance.Conn)}
	svc := dispatchFunc(func(ctx context.Context, req commands.Request) (any, error) {
		if req.Command == commands.CmdCaptureRegion {
			panic("boom")
		}
		return "ok", nil
	})
	loop := New(srv, svc, 1)
	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	crashed := newFakeConn(commands.CmdCaptureRegion)
	srv.conns <- crashed
	crashed.wait(t)
	assert.Contains(t, crashed.errMsg, commands.CmdCaptureRegion)

	next := newFakeConn(commands.CmdGetTempDirectory)
	srv.conns <- next
	next.wait(t)
	assert.Equal(t, "ok", next.result)

	close(srv.conns)
	require.NoError(t, <-done)
}
