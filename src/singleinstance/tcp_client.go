package singleinstance

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"better-shot/src/commands"
)

type tcpClient struct {
	ports PortRange
}

func newTcpClient(ports PortRange) Client { return &tcpClient{ports: ports} }

// Delegate does not bound the wait for the response: an interactive capture
// lasts as long as the user takes, unless ctx carries a deadline.
func (c *tcpClient) Delegate(ctx context.Context, req commands.Request) (bool, json.RawMessage, error) {
	port, ok := c.ports.Detect(ctx)
	if !ok {
		return false, nil, nil
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return false, nil, nil
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	line, err := json.Marshal(req)
	if err != nil {
		return true, nil, fmt.Errorf("failed to encode request: %w", err)
	}
	w := bufio.NewWriter(conn)
	if _, err := w.Write(append(line, '\n')); err != nil {
		return true, nil, err
	}
	if err := w.Flush(); err != nil {
		return true, nil, err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return true, nil, fmt.Errorf("resident closed connection: %w", err)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return true, nil, err
	}
	switch status {
	case successStatus:
		return true, json.RawMessage(body), nil
	case errorStatus:
		return true, nil, errors.New(string(body))
	default:
		return true, nil, fmt.Errorf("unexpected resident response %q", strings.TrimSpace(status))
	}
}

// pingTimeout bounds each port probe; a resident answers PING without doing work.
const pingTimeout = 300 * time.Millisecond

// Detect scans the range in order and returns the first port whose listener
// answers PING with PONG.
func (r PortRange) Detect(ctx context.Context) (int, bool) {
	for port := r.Start; port <= r.End; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if answersPing(ctx, port) {
			return port, true
		}
	}
	return 0, false
}

func answersPing(ctx context.Context, port int) bool {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(pctx, "tcp", net.JoinHostPort(residentHost, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	defer conn.Close()
	if dl, ok := pctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
