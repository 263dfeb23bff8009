package singleinstance

// This file defines the API for the resident endpoint and command delegation.

import (
	"context"
	"encoding/json"

	"better-shot/src/commands"
)

// PortRange is an inclusive loopback TCP port range. The resident binds Start;
// clients scan the whole range.
type PortRange struct {
	Start int
	End   int
}

// Server owns the TCP endpoint and answers delegated commands.
type Server interface {
	// Start begins listening on the first port of the range and accepting client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() commands.Request
	// RespondSuccess sends success with the JSON-encoded result.
	RespondSuccess(result any) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Client attempts to delegate a command to a resident server.
type Client interface {
	// Delegate scans the port range, performs the handshake and runs req on the resident.
	// If no resident is found, returns delegated=false, err=nil.
	Delegate(ctx context.Context, req commands.Request) (delegated bool, result json.RawMessage, err error)
}

// NewServer returns TCP implementation.
func NewServer(ports PortRange) Server { return newTcpServer(ports) }

// NewClient returns TCP implementation.
func NewClient(ports PortRange) Client { return newTcpClient(ports) }
