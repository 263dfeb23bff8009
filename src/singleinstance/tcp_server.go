package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"better-shot/src/commands"
)

const (
	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	successStatus = "SUCCESS\n"
	errorStatus   = "ERROR\n"

	handshakeTimeout = 3 * time.Second
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	ports     PortRange
	lis       net.Listener
	incoming  chan *tcpConn
	done      chan struct{}
	closeOnce sync.Once
	port      int
}

func newTcpServer(ports PortRange) Server {
	return &tcpServer{ports: ports, incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", residentHost, s.ports.Start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = lis.Addr().(*net.TCPAddr).Port
	log.Printf("singleinstance: listening on %s", lis.Addr())
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		// Each handshake reads on its own goroutine so a slow client cannot
		// delay PING answers to others.
		go s.handshake(ctx, c)
	}
}

// handshake reads the first line: PING is answered in place, anything else
// must be a JSON command request and is queued for Next.
func (s *tcpServer) handshake(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(handshakeTimeout))
	br := bufio.NewReader(c)
	line, _ := br.ReadString('\n')
	bw := bufio.NewWriter(c)
	if line == pingRequest {
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return
	}
	_ = c.SetDeadline(time.Time{})
	var req commands.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		log.Printf("singleinstance: bad request from %s: %v", remote, err)
		_, _ = bw.WriteString(errorStatus + "malformed request")
		_ = bw.Flush()
		_ = c.Close()
		return
	}
	log.Printf("singleinstance: request from %s command=%s", remote, req.Command)
	select {
	case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
	case <-ctx.Done():
		_ = c.Close()
	case <-s.done:
		_ = c.Close()
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r commands.Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() commands.Request { return tc.r }

func (tc *tcpConn) RespondSuccess(result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return tc.RespondError(fmt.Sprintf("failed to encode result: %v", err))
	}
	if _, err := tc.w.WriteString(successStatus); err != nil {
		return err
	}
	if _, err := tc.w.Write(body); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorStatus + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
