// Package transport exposes the node read/write surface the bridge needs from an OPC-UA server.
package transport

import (
	"context"
	"errors"

	"github.com/gopcua/opcua/ua"
)

// ConnectionState represents the current state of the device session.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownNode is returned by Resolve when the server does not expose a path.
	ErrUnknownNode = errors.New("transport: unknown node")

	// ErrNoResult is returned when the server answers a request without results.
	ErrNoResult = errors.New("transport: empty response")

	// ErrNoEndpoint is returned when no server endpoint offers the configured security.
	ErrNoEndpoint = errors.New("transport: no matching endpoint")
)

// Handle is a resolved node. ID is nil for connections that do not speak OPC-UA.
type Handle struct {
	Path string
	ID   *ua.NodeID
}

// Conn is a live session with the PLC.
//
// Read returns plain Go values: structured values come back as the pointer
// registered for their encoding, and arrays of structures as []any.
type Conn interface {
	LoadTypes(ctx context.Context) error
	Resolve(ctx context.Context, paths []string) (map[string]Handle, error)
	Read(ctx context.Context, h Handle) (any, error)
	Write(ctx context.Context, h Handle, value any) error
	Close(ctx context.Context) error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// TypeSet is a group of structured types that must be known before reads decode them.
type TypeSet interface {
	Register() error
	EncodingIDs() []string
}
