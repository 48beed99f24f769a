package plcbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robobar/plcbridge/internal/plctime"
	"github.com/robobar/plcbridge/internal/ringbuf"
	"github.com/robobar/plcbridge/internal/transport"
	"github.com/robobar/plcbridge/internal/udt"
)

// Every operation below reads the PLC fresh. Nothing is cached between calls.

// DrinkTypes reads the drink catalog in PLC array order.
func (c *Client) DrinkTypes(ctx context.Context) (types []DrinkType, err error) {
	const op = "drink_types"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	conn, h, err := c.acquire(op, NodeDrinkTypes)
	if err != nil {
		return nil, err
	}

	raw, err := c.read(ctx, conn, op, h[0])
	if err != nil {
		return nil, err
	}
	items, err := asStructs[udt.DrinkType](raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, NodeDrinkTypes, err)
	}

	types = make([]DrinkType, len(items))
	for i, d := range items {
		types[i] = drinkTypeFromUDT(i, d)
	}
	return types, nil
}

func drinkTypeFromUDT(id int, d udt.DrinkType) DrinkType {
	return DrinkType{
		ID:      id,
		Name:    d.DrinkName,
		Enabled: d.DrinkEnabled,
		Groups: DrinkGroups{
			Soft:    d.PostmixDrink != "" && d.ConveyorDrink == "",
			Alcohol: d.ConveyorDrink != "",
			Coffee:  d.CoffeeDrink != "",
		},
		IceOption:    d.IceOption,
		VolumeOption: d.VolumeOption,
		Parameters: DrinkParameters{
			ShowParameters: d.Parameters.ShowParameters,
			CoffeeStrength: int(d.Parameters.CoffeeStrength),
			VolumeInMl:     int(d.Parameters.VolumeInMl),
			MilkPercentage: int(d.Parameters.MilkPercentage),
		},
		PrepTimeSeconds: float64(d.PreparationTime) / 1000,
	}
}

// QueueState reads the drink queue and returns the waiting orders, first to
// be served first.
func (c *Client) QueueState(ctx context.Context) (entries []QueueEntry, err error) {
	const op = "queue_state"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	paths := []string{NodeQueueItems, NodeQueueFirstIndex, NodeQueueLastIndex, NodeQueueLength, NodeQueueReadIndex}
	conn, hs, err := c.acquire(op, paths...)
	if err != nil {
		return nil, err
	}

	raw, err := c.read(ctx, conn, op, hs[0])
	if err != nil {
		return nil, err
	}
	items, err := asStructs[udt.QueueItem](raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, NodeQueueItems, err)
	}

	var idx [4]int
	for i, h := range hs[1:] {
		if idx[i], err = c.readInt(ctx, conn, op, h); err != nil {
			return nil, err
		}
	}

	view := ringbuf.View[udt.QueueItem]{
		Items:      items,
		StartIndex: idx[0],
		EndIndex:   idx[1],
		Length:     idx[2],
		ReadIndex:  idx[3],
	}
	live, err := ringbuf.Extract(view)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, NodeQueueReadIndex, err)
	}

	entries = make([]QueueEntry, 0, len(live))
	for _, it := range live {
		ts, err := decodeStamp(op, NodeQueueItems, it.PrepStartAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, QueueEntry{
			OrderID:       int(it.OrderID),
			DrinkTypeID:   int(it.DrinkTypeID),
			PrepStartedAt: ts,
		})
	}
	return entries, nil
}

// PickupDrinks reads the pickup slots and returns the occupied ones keyed by
// slot index. A slot is occupied while it holds an order not yet picked up.
func (c *Client) PickupDrinks(ctx context.Context) (slots map[int]PickupDrink, err error) {
	const op = "pickup_drinks"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	conn, h, err := c.acquire(op, NodePickupDrinks)
	if err != nil {
		return nil, err
	}

	raw, err := c.read(ctx, conn, op, h[0])
	if err != nil {
		return nil, err
	}
	items, err := asStructs[udt.PickupDrink](raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, NodePickupDrinks, err)
	}

	slots = make(map[int]PickupDrink)
	for i, it := range items {
		if it.OrderID == 0 || it.PickedUp {
			continue
		}
		ts, err := decodeStamp(op, NodePickupDrinks, it.PrepStartAt)
		if err != nil {
			return nil, err
		}
		slots[i] = PickupDrink{
			OrderID:       int(it.OrderID),
			DrinkTypeID:   int(it.DrinkTypeID),
			PrepStartedAt: ts,
		}
	}
	return slots, nil
}

// DrinkInProgress reads the drink being prepared on side. The start and done
// timestamps come from their own nodes, not from the structure.
func (c *Client) DrinkInProgress(ctx context.Context, side Side) (drink *DrinkInProgress, err error) {
	const op = "drink_in_progress"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	if !side.valid() {
		return nil, NewInvalidArgumentError(op, fmt.Sprintf("side must be 0 or 1, got %d", int(side)))
	}
	nodes := prepSides[side]

	conn, hs, err := c.acquire(op, nodes.drink, nodes.startAt, nodes.doneAt)
	if err != nil {
		return nil, err
	}

	raw, err := c.read(ctx, conn, op, hs[0])
	if err != nil {
		return nil, err
	}
	prep, err := asStruct[udt.PrepDrink](raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, nodes.drink, err)
	}

	startRaw, err := c.readBytes(ctx, conn, op, hs[1])
	if err != nil {
		return nil, err
	}
	doneRaw, err := c.readBytes(ctx, conn, op, hs[2])
	if err != nil {
		return nil, err
	}

	drink = &DrinkInProgress{
		OrderID:     int(prep.OrderID),
		DrinkTypeID: int(prep.DrinkTypeID),
	}
	if drink.PrepStartedAt, err = decodeStamp(op, nodes.startAt, startRaw); err != nil {
		return nil, err
	}
	if drink.PrepDoneAt, err = decodeStamp(op, nodes.doneAt, doneRaw); err != nil {
		return nil, err
	}
	return drink, nil
}

// PLCTime reads the PLC clock.
func (c *Client) PLCTime(ctx context.Context) (ts Timestamp, err error) {
	const op = "plc_time"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	conn, h, err := c.acquire(op, NodePLCCurrentTime)
	if err != nil {
		return Timestamp{}, err
	}

	raw, err := c.readBytes(ctx, conn, op, h[0])
	if err != nil {
		return Timestamp{}, err
	}
	ts, err = plctime.Decode(raw)
	if err != nil {
		return Timestamp{}, newNodeError(ErrorCategoryMalformedTimestamp, op, NodePLCCurrentTime, err)
	}
	return ts, nil
}

// OrderStatus reads the PLC's answer to the most recent order.
func (c *Client) OrderStatus(ctx context.Context) (res *OrderResult, err error) {
	const op = "order_status"
	start := time.Now()
	c.metrics.OperationStarted(op)
	defer func() { c.observe(ctx, op, start, err) }()

	return c.orderStatus(ctx, op)
}

func (c *Client) orderStatus(ctx context.Context, op string) (*OrderResult, error) {
	conn, hs, err := c.acquire(op, NodeOrderPushedOK, NodeSuccessOrderNumber)
	if err != nil {
		return nil, err
	}

	raw, err := c.read(ctx, conn, op, hs[0])
	if err != nil {
		return nil, err
	}
	accepted, err := asBool(raw)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, hs[0].Path, err)
	}

	number, err := c.readInt(ctx, conn, op, hs[1])
	if err != nil {
		return nil, err
	}

	return &OrderResult{Accepted: accepted, AssignedOrderNumber: &number}, nil
}

func (c *Client) read(ctx context.Context, conn transport.Conn, op string, h transport.Handle) (any, error) {
	readCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	v, err := conn.Read(readCtx, h)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, h.Path, err)
	}
	return v, nil
}

func (c *Client) readInt(ctx context.Context, conn transport.Conn, op string, h transport.Handle) (int, error) {
	v, err := c.read(ctx, conn, op, h)
	if err != nil {
		return 0, err
	}
	n, err := asInt(v)
	if err != nil {
		return 0, newNodeError(ErrorCategoryReadFailure, op, h.Path, err)
	}
	return n, nil
}

func (c *Client) readBytes(ctx context.Context, conn transport.Conn, op string, h transport.Handle) ([]byte, error) {
	v, err := c.read(ctx, conn, op, h)
	if err != nil {
		return nil, err
	}
	b, err := asBytes(v)
	if err != nil {
		return nil, newNodeError(ErrorCategoryReadFailure, op, h.Path, err)
	}
	return b, nil
}

func (c *Client) write(ctx context.Context, conn transport.Conn, op string, h transport.Handle, value any) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	if err := conn.Write(writeCtx, h, value); err != nil {
		return newNodeError(ErrorCategoryWriteFailure, op, h.Path, err)
	}
	return nil
}

// IsNoConnection reports whether err means the PLC session was down.
func IsNoConnection(err error) bool {
	return errors.Is(err, ErrNoConnection)
}
