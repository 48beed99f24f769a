// Package plcbridge bridges the drink machine PLC to HTTP clients over OPC-UA.
//
// A Client owns one PLC session. Run keeps the session alive, reconnecting
// after failures; the read and order operations fail fast with a
// no-connection error while the session is down.
package plcbridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robobar/plcbridge/internal/transport"
	"github.com/robobar/plcbridge/internal/udt"
)

// DefaultEndpoint is the OPC-UA server of the drink machine PLC.
const DefaultEndpoint = "opc.tcp://10.35.91.101:4840"

// Transport types re-exported for callers outside the module.
type (
	Conn            = transport.Conn
	Dialer          = transport.Dialer
	NodeHandle      = transport.Handle
	ConnectionState = transport.ConnectionState
)

const (
	StateDisconnected  = transport.StateDisconnected
	StateConnecting    = transport.StateConnecting
	StateConnected     = transport.StateConnected
	StateDisconnecting = transport.StateDisconnecting
	StateClosed        = transport.StateClosed
)

// StateCallback is called on every session state change, and with
// StateConnecting on both sides when a connection attempt fails. err carries
// the cause of a drop or of the failed attempt.
type StateCallback func(oldState, newState ConnectionState, err error)

// Client represents a PLC session and the drink machine operations on it.
type Client struct {
	cfg     *clientConfig
	logger  Logger
	metrics Metrics

	mu      sync.RWMutex
	state   ConnectionState
	conn    transport.Conn
	handles map[string]transport.Handle
	lastErr error

	pushMu  sync.Mutex
	running atomic.Bool
}

// Option is a functional option for configuring a Client.
type Option func(*clientConfig) error

type clientConfig struct {
	endpoint          string
	dialer            transport.Dialer
	timeout           time.Duration
	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
	healthInterval    time.Duration
	orderTiming       OrderTiming
	stateCallback     StateCallback
	clock             Clock
	logger            Logger
	metrics           Metrics
}

// WithEndpoint sets the OPC-UA endpoint URL (optional, defaults to DefaultEndpoint).
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) error {
		if endpoint == "" {
			return fmt.Errorf("plcbridge: endpoint cannot be empty")
		}
		c.endpoint = endpoint
		return nil
	}
}

// WithDialer sets how sessions are opened. The default dials OPC-UA without
// security and registers the drink types under their default encoding ids.
func WithDialer(d Dialer) Option {
	return func(c *clientConfig) error {
		if d == nil {
			return fmt.Errorf("plcbridge: dialer cannot be nil")
		}
		c.dialer = d
		return nil
	}
}

// WithTimeout bounds each request to the PLC (optional, defaults to 5s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("plcbridge: timeout must be positive")
		}
		c.timeout = timeout
		return nil
	}
}

// WithReconnectDelay sets the wait after a failed connection attempt (optional, defaults to 1s).
func WithReconnectDelay(delay time.Duration) Option {
	return func(c *clientConfig) error {
		if delay <= 0 {
			return fmt.Errorf("plcbridge: reconnect delay must be positive")
		}
		c.reconnectDelay = delay
		return nil
	}
}

// WithMaxReconnectDelay enables exponential backoff between failed attempts,
// doubling the reconnect delay up to max. By default the delay is fixed.
func WithMaxReconnectDelay(max time.Duration) Option {
	return func(c *clientConfig) error {
		if max < 0 {
			return fmt.Errorf("plcbridge: max reconnect delay cannot be negative")
		}
		c.maxReconnectDelay = max
		return nil
	}
}

// WithHealthCheck sets the liveness check interval (optional, defaults to 1s).
func WithHealthCheck(interval time.Duration) Option {
	return func(c *clientConfig) error {
		if interval <= 0 {
			return fmt.Errorf("plcbridge: health check interval must be positive")
		}
		c.healthInterval = interval
		return nil
	}
}

// WithStateCallback sets a callback for session state changes.
func WithStateCallback(cb StateCallback) Option {
	return func(c *clientConfig) error {
		c.stateCallback = cb
		return nil
	}
}

// WithOrderTiming overrides the order handshake timing.
func WithOrderTiming(t OrderTiming) Option {
	return func(c *clientConfig) error {
		if err := t.validate(); err != nil {
			return err
		}
		c.orderTiming = t
		return nil
	}
}

// New creates a client. It does not connect; call Run to start the session.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		endpoint:       DefaultEndpoint,
		timeout:        5 * time.Second,
		reconnectDelay: time.Second,
		healthInterval: time.Second,
		orderTiming:    DefaultOrderTiming(),
		clock:          SystemClock,
		logger:         DefaultLogger,
		metrics:        DefaultMetrics,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.dialer == nil {
		cfg.dialer = &transport.OPCUADialer{
			DialTimeout:    cfg.timeout,
			RequestTimeout: cfg.timeout,
			Types:          udt.NewDrinkRegistry(udt.DefaultEncodingIDs()),

			ApplicationName: ApplicationName(),
		}
	}

	return &Client{
		cfg:     cfg,
		logger:  cfg.logger.With("endpoint", cfg.endpoint),
		metrics: cfg.metrics,
		state:   StateDisconnected,
	}, nil
}

// Endpoint returns the configured OPC-UA endpoint.
func (c *Client) Endpoint() string {
	return c.cfg.endpoint
}

// State returns the current session state.
func (c *Client) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connected reports whether domain operations can reach the PLC right now.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// LastError returns the most recent connection failure or drop cause.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// acquire snapshots the session and the handles for paths. The snapshot may
// go stale right after; operations on a torn down session fail as reads or writes.
func (c *Client) acquire(operation string, paths ...string) (transport.Conn, []transport.Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateConnected || c.conn == nil {
		return nil, nil, NewNoConnectionError(operation)
	}

	handles := make([]transport.Handle, len(paths))
	for i, p := range paths {
		h, ok := c.handles[p]
		if !ok {
			return nil, nil, newNodeError(ErrorCategoryReadFailure, operation, p, transport.ErrUnknownNode)
		}
		handles[i] = h
	}
	return c.conn, handles, nil
}

// observe records the outcome of an operation.
func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	c.metrics.OperationCompleted(operation, time.Since(start), err)
	if err == nil {
		return
	}
	category := CategoryOf(err)
	c.metrics.ErrorOccurred(category, operation)
	logger := LoggerFromContext(ctx, c.logger)
	if category == ErrorCategoryNoConnection {
		logger.Debug("operation refused while disconnected", "operation", operation)
		return
	}
	logger.Warn("operation failed", "operation", operation, "category", category.String(), "error", err)
}
