package plcbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/robobar/plcbridge/internal/transport"
)

// Run establishes the PLC session and keeps it alive until ctx is cancelled.
// A failed attempt is retried after the reconnect delay. While connected the
// server state node is read every health check interval; a failed read
// tears the session down and starts over. Run returns nil on cancellation.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return NewStateError("run", "session loop already running")
	}
	defer c.running.Store(false)

	c.logger.Info("session loop started")
	defer c.logger.Info("session loop stopped")

	delay := c.cfg.reconnectDelay
	established := false

	for {
		if ctx.Err() != nil {
			c.setState(StateClosed, nil, nil)
			return nil
		}

		c.setState(StateConnecting, nil, nil)
		c.metrics.ConnectionAttempts()

		conn, state, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.metrics.ConnectionFailures()
			c.recordFailure(err)
			c.logger.Warn("connection could not be created", "error", err, "retry_in", delay)
			if !c.sleep(ctx, delay) {
				continue
			}
			delay = c.nextDelay(delay)
			continue
		}

		delay = c.cfg.reconnectDelay
		c.metrics.ConnectionSuccesses()
		c.metrics.ConnectionActive(true)
		if established {
			c.metrics.Reconnections()
		}
		established = true
		c.logger.Info("connection established")

		cause := c.monitor(ctx, conn, state)
		c.teardown(ctx, conn, cause)
	}
}

// connect dials, loads the structure types and resolves every required node.
// The session is published only when all three steps succeed.
func (c *Client) connect(ctx context.Context) (transport.Conn, transport.Handle, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	conn, err := c.cfg.dialer.Dial(dialCtx, c.cfg.endpoint)
	if err != nil {
		return nil, transport.Handle{}, fmt.Errorf("dial: %w", err)
	}

	if err := conn.LoadTypes(dialCtx); err != nil {
		c.closeQuietly(conn)
		return nil, transport.Handle{}, fmt.Errorf("load types: %w", err)
	}

	handles, err := conn.Resolve(dialCtx, RequiredNodes())
	if err != nil {
		c.closeQuietly(conn)
		return nil, transport.Handle{}, fmt.Errorf("resolve nodes: %w", err)
	}

	state, ok := handles[NodeServerStatusState]
	if !ok {
		c.closeQuietly(conn)
		return nil, transport.Handle{}, fmt.Errorf("resolve nodes: %s: %w", NodeServerStatusState, transport.ErrUnknownNode)
	}

	c.setState(StateConnected, nil, func() {
		c.conn = conn
		c.handles = handles
	})
	return conn, state, nil
}

// monitor reads the server state until a read fails or ctx is cancelled and
// returns the cause.
func (c *Client) monitor(ctx context.Context, conn transport.Conn, state transport.Handle) error {
	for {
		c.metrics.HealthCheckStarted()
		readCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
		_, err := conn.Read(readCtx, state)
		cancel()
		c.metrics.HealthCheckCompleted(err == nil)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("liveness check: %w", err)
		}

		if !c.sleep(ctx, c.cfg.healthInterval) {
			return ctx.Err()
		}
	}
}

// teardown unpublishes the session before closing it so no operation can
// pick up a connection that is being closed. A cancelled ctx is a shutdown,
// not a drop; a liveness read that hit its own deadline is a drop.
func (c *Client) teardown(ctx context.Context, conn transport.Conn, cause error) {
	if ctx.Err() != nil {
		cause = nil
	} else {
		c.logger.Warn("connection lost", "error", cause)
	}

	c.setState(StateDisconnecting, cause, func() {
		c.conn = nil
		c.handles = nil
	})
	c.metrics.ConnectionActive(false)
	c.closeQuietly(conn)
	c.setState(StateDisconnected, nil, nil)
}

func (c *Client) closeQuietly(conn transport.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.timeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		c.logger.Debug("connection close failed", "error", err)
	}
}

// setState applies update and the transition under the session lock, then
// notifies the callback outside it.
func (c *Client) setState(state ConnectionState, cause error, update func()) {
	c.mu.Lock()
	old := c.state
	if update != nil {
		update()
	}
	c.state = state
	if cause != nil {
		c.lastErr = cause
	}
	c.mu.Unlock()

	if old == state {
		return
	}
	c.logger.Debug("session state changed", "from", old.String(), "to", state.String())
	if c.cfg.stateCallback != nil {
		c.cfg.stateCallback(old, state, cause)
	}
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	if c.cfg.stateCallback != nil {
		c.cfg.stateCallback(StateConnecting, StateConnecting, err)
	}
}

// sleep waits d on the client clock and reports false if ctx ended first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.cfg.clock.After(d):
		return ctx.Err() == nil
	}
}

func (c *Client) nextDelay(current time.Duration) time.Duration {
	if c.cfg.maxReconnectDelay <= c.cfg.reconnectDelay {
		return c.cfg.reconnectDelay
	}
	next := current * 2
	if next > c.cfg.maxReconnectDelay {
		next = c.cfg.maxReconnectDelay
	}
	return next
}
