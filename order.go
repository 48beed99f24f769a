package plcbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/robobar/plcbridge/internal/transport"
)

// OrderTiming controls the order handshake with the PLC.
type OrderTiming struct {
	// SettleDelay is the wait after raising the trigger before the first poll.
	SettleDelay time.Duration
	// PollInterval is the wait between trigger polls.
	PollInterval time.Duration
	// AckTimeout bounds the polling, measured from the end of the settle delay.
	AckTimeout time.Duration
}

// DefaultOrderTiming returns the timing the PLC program is tuned for.
func DefaultOrderTiming() OrderTiming {
	return OrderTiming{
		SettleDelay:  100 * time.Millisecond,
		PollInterval: 500 * time.Millisecond,
		AckTimeout:   5 * time.Second,
	}
}

func (t OrderTiming) validate() error {
	if t.SettleDelay < 0 || t.PollInterval <= 0 || t.AckTimeout <= 0 {
		return fmt.Errorf("plcbridge: invalid order timing %+v", t)
	}
	return nil
}

type pushState int

const (
	pushIdle pushState = iota
	pushWriting
	pushAwaitingAck
	pushResolved
)

func (s pushState) String() string {
	switch s {
	case pushIdle:
		return "idle"
	case pushWriting:
		return "writing"
	case pushAwaitingAck:
		return "awaiting_ack"
	case pushResolved:
		return "resolved"
	default:
		return fmt.Sprintf("push_state(%d)", int(s))
	}
}

// orderPush is one run of the handshake: write the order fields, raise the
// trigger, wait for the PLC to lower it, read the answer.
type orderPush struct {
	c        *Client
	conn     transport.Conn
	fields   []transport.Handle // useIce, size, type id, trigger
	req      OrderRequest
	state    pushState
	deadline time.Time
	polls    int
}

// PushNewDrink submits an order and waits for the PLC to acknowledge it.
//
// The fields are written in a fixed order and the trigger last; the first
// failed write aborts the push with the remaining writes skipped. Pushes are
// serialized. Once writing has begun the push runs to completion even if ctx
// is cancelled, so a half-written order is never abandoned.
//
// A timeout error means the PLC never lowered the trigger. The order may or
// may not have been enqueued, and retrying can enqueue it twice.
func (c *Client) PushNewDrink(ctx context.Context, req OrderRequest) (res *OrderResult, err error) {
	const op = "push_new_drink"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() {
		c.observe(ctx, op, start, err)
		if outcome := orderOutcome(res, err); outcome != "" {
			c.metrics.OrderPushed(outcome)
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, NewInvalidArgumentError(op, err.Error())
	}

	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	conn, hs, err := c.acquire(op, NodeNewOrderUseIce, NodeNewOrderDrinkSizeID, NodeNewOrderDrinkTypeID, NodePushNewOrder)
	if err != nil {
		return nil, err
	}

	p := &orderPush{c: c, conn: conn, fields: hs, req: req}
	res, err = p.run(context.WithoutCancel(ctx), op)
	if err == nil {
		c.logger.Info("order pushed", "drink_type_id", req.DrinkTypeID, "size", req.DrinkSize,
			"use_ice", req.UseIce, "accepted", res.Accepted, "polls", p.polls)
	}
	return res, err
}

func (p *orderPush) run(ctx context.Context, op string) (*OrderResult, error) {
	clock := p.c.cfg.clock
	timing := p.c.cfg.orderTiming

	for {
		switch p.state {
		case pushIdle:
			p.enter(pushWriting)

		case pushWriting:
			if err := p.writeFields(ctx, op); err != nil {
				return nil, err
			}
			<-clock.After(timing.SettleDelay)
			p.deadline = clock.Now().Add(timing.AckTimeout)
			p.enter(pushAwaitingAck)

		case pushAwaitingAck:
			if !clock.Now().Before(p.deadline) {
				return nil, newNodeError(ErrorCategoryTimeout, op, NodePushNewOrder,
					fmt.Errorf("trigger still raised after %s (%d polls)", timing.AckTimeout, p.polls))
			}
			p.polls++
			raw, err := p.c.read(ctx, p.conn, op, p.fields[3])
			if err != nil {
				return nil, err
			}
			pending, err := asBool(raw)
			if err != nil {
				return nil, newNodeError(ErrorCategoryReadFailure, op, NodePushNewOrder, err)
			}
			if !pending {
				p.enter(pushResolved)
				continue
			}
			<-clock.After(timing.PollInterval)

		case pushResolved:
			return p.c.orderStatus(ctx, op)
		}
	}
}

func (p *orderPush) enter(next pushState) {
	p.c.logger.Debug("order push state", "from", p.state.String(), "to", next.String())
	p.state = next
}

func (p *orderPush) writeFields(ctx context.Context, op string) error {
	values := []any{
		p.req.UseIce,
		int16(p.req.DrinkSize),
		int16(p.req.DrinkTypeID),
		true,
	}
	for i, v := range values {
		if err := p.c.write(ctx, p.conn, op, p.fields[i], v); err != nil {
			return err
		}
	}
	return nil
}

// orderOutcome classifies a push for metrics. Pushes refused before any
// write report no outcome.
func orderOutcome(res *OrderResult, err error) string {
	switch category := CategoryOf(err); {
	case category == ErrorCategoryInvalidArgument || category == ErrorCategoryNoConnection:
		return ""
	case err == nil && res != nil && res.Accepted:
		return "accepted"
	case err == nil:
		return "rejected"
	case category == ErrorCategoryTimeout:
		return "timeout"
	default:
		return "failed"
	}
}
