package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/robobar/plcbridge"
	"github.com/robobar/plcbridge/internal/events"
)

type fakeBridge struct {
	mu sync.Mutex

	connected bool
	err       error // returned by every PLC operation when set

	types   []plcbridge.DrinkType
	queue   []plcbridge.QueueEntry
	pickup  map[int]plcbridge.PickupDrink
	prep    [2]*plcbridge.DrinkInProgress
	plcTime plcbridge.Timestamp
	status  *plcbridge.OrderResult

	pushes  []plcbridge.OrderRequest
	pushErr error
	reads   int
}

func newFakeBridge() *fakeBridge {
	started := plcbridge.Timestamp{Year: 2024, Month: 3, Day: 15, Hour: 14, Minute: 30, Second: 45}
	n := 42
	return &fakeBridge{
		connected: true,
		types: []plcbridge.DrinkType{
			{ID: 0, Name: "Cola", Enabled: true, Groups: plcbridge.DrinkGroups{Soft: true}, PrepTimeSeconds: 12.5},
		},
		queue: []plcbridge.QueueEntry{
			{OrderID: 14, DrinkTypeID: 0, PrepStartedAt: &started},
			{OrderID: 15, DrinkTypeID: 1},
		},
		pickup: map[int]plcbridge.PickupDrink{
			3: {OrderID: 13, DrinkTypeID: 2, PrepStartedAt: &started},
		},
		prep: [2]*plcbridge.DrinkInProgress{
			{OrderID: 14, PrepStartedAt: &started},
			{},
		},
		plcTime: started,
		status:  &plcbridge.OrderResult{Accepted: true, AssignedOrderNumber: &n},
	}
}

func (b *fakeBridge) setQueue(q []plcbridge.QueueEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = q
}

func (b *fakeBridge) readCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

func (b *fakeBridge) read() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	return b.err
}

func (b *fakeBridge) DrinkTypes(ctx context.Context) ([]plcbridge.DrinkType, error) {
	if err := b.read(); err != nil {
		return nil, err
	}
	return b.types, nil
}

func (b *fakeBridge) QueueState(ctx context.Context) ([]plcbridge.QueueEntry, error) {
	if err := b.read(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue, nil
}

func (b *fakeBridge) PickupDrinks(ctx context.Context) (map[int]plcbridge.PickupDrink, error) {
	if err := b.read(); err != nil {
		return nil, err
	}
	return b.pickup, nil
}

func (b *fakeBridge) DrinkInProgress(ctx context.Context, side plcbridge.Side) (*plcbridge.DrinkInProgress, error) {
	if side != plcbridge.SideLeft && side != plcbridge.SideRight {
		return nil, plcbridge.NewInvalidArgumentError("drink_in_progress", "side must be 0 or 1")
	}
	if err := b.read(); err != nil {
		return nil, err
	}
	return b.prep[side], nil
}

func (b *fakeBridge) PLCTime(ctx context.Context) (plcbridge.Timestamp, error) {
	if err := b.read(); err != nil {
		return plcbridge.Timestamp{}, err
	}
	return b.plcTime, nil
}

func (b *fakeBridge) OrderStatus(ctx context.Context) (*plcbridge.OrderResult, error) {
	if err := b.read(); err != nil {
		return nil, err
	}
	return b.status, nil
}

func (b *fakeBridge) PushNewDrink(ctx context.Context, req plcbridge.OrderRequest) (*plcbridge.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, plcbridge.NewInvalidArgumentError("push_new_drink", err.Error())
	}
	b.mu.Lock()
	b.pushes = append(b.pushes, req)
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	if b.pushErr != nil {
		return nil, b.pushErr
	}
	return b.status, nil
}

func (b *fakeBridge) Endpoint() string { return "opc.tcp://plc.test:4840" }

func (b *fakeBridge) State() plcbridge.ConnectionState {
	if b.Connected() {
		return plcbridge.StateConnected
	}
	return plcbridge.StateConnecting
}

func (b *fakeBridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBridge) LastError() error {
	if b.Connected() {
		return nil
	}
	return errors.New("dial tcp: connection refused")
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *fakePublisher) PublishOrder(ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) published() []events.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderEvent(nil), p.events...)
}

var errPLC = errors.New("bad node id")

func timeoutError() error {
	return &plcbridge.ClassifiedError{
		Category:  plcbridge.ErrorCategoryTimeout,
		Operation: "push_new_drink",
		Err:       errors.New("trigger still set after 5s"),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.RateLimit.Enabled = false
	cfg.Middleware.MinStreamIntervalMs = 10
	return cfg
}

func newTestServer(t *testing.T, bridge Bridge, cfg *Config, pub Publisher) (*Server, *plcbridge.InMemoryMetrics) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	metrics := plcbridge.NewInMemoryMetrics()
	s := newServer(cfg, bridge, nil, pub, metrics, testLogger())
	t.Cleanup(s.middleware.Close)
	return s, metrics
}
