package plcbridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robobar/plcbridge/internal/transport"
	"github.com/robobar/plcbridge/internal/udt"
)

var errBroken = errors.New("bad node")

type fakeWrite struct {
	path  string
	value any
}

// fakeConn serves node values from a map. Hooks run under its lock.
type fakeConn struct {
	mu sync.Mutex

	values    map[string]any
	readErrs  map[string]error
	writeErrs map[string]error
	missing   map[string]bool
	loadErr   error

	reads  map[string]int
	writes []fakeWrite
	closed int

	onRead func(path string, n int, v any) any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		values:    defaultValues(),
		readErrs:  make(map[string]error),
		writeErrs: make(map[string]error),
		missing:   make(map[string]bool),
		reads:     make(map[string]int),
	}
}

func (f *fakeConn) LoadTypes(ctx context.Context) error {
	return f.loadErr
}

func (f *fakeConn) Resolve(ctx context.Context, paths []string) (map[string]transport.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]transport.Handle, len(paths))
	for _, p := range paths {
		if f.missing[p] {
			return nil, transport.ErrUnknownNode
		}
		out[p] = transport.Handle{Path: p}
	}
	return out, nil
}

func (f *fakeConn) Read(ctx context.Context, h transport.Handle) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads[h.Path]++
	if err := f.readErrs[h.Path]; err != nil {
		return nil, err
	}
	v := f.values[h.Path]
	if f.onRead != nil {
		v = f.onRead(h.Path, f.reads[h.Path], v)
	}
	return v, nil
}

func (f *fakeConn) Write(ctx context.Context, h transport.Handle, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes = append(f.writes, fakeWrite{path: h.Path, value: value})
	if err := f.writeErrs[h.Path]; err != nil {
		return err
	}
	f.values[h.Path] = value
	return nil
}

func (f *fakeConn) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) set(path string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[path] = v
}

func (f *fakeConn) failRead(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErrs[path] = err
}

func (f *fakeConn) readCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[path]
}

func (f *fakeConn) totalReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.reads {
		n += c
	}
	return n
}

func (f *fakeConn) writeLog() []fakeWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeWrite(nil), f.writes...)
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeDialer delegates each attempt to dial, numbered from 1.
type fakeDialer struct {
	mu    sync.Mutex
	calls int
	dial  func(n int) (transport.Conn, error)
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (transport.Conn, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()
	return d.dial(n)
}

func (d *fakeDialer) attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func dialerFor(conn *fakeConn) *fakeDialer {
	return &fakeDialer{dial: func(int) (transport.Conn, error) { return conn, nil }}
}

// manualClock advances only when waited on, so timing loops run instantly.
type manualClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)}
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	m.waits = append(m.waits, d)
	ch := make(chan time.Time, 1)
	ch <- m.now
	return ch
}

func (m *manualClock) elapsed(since time.Time) time.Duration {
	return m.Now().Sub(since)
}

// newConnectedClient returns a client whose session is established on conn.
func newConnectedClient(t *testing.T, conn *fakeConn, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithDialer(dialerFor(conn))}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)

	_, _, err = c.connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateConnected, c.State())
	return c
}

// stamp is 2024-03-15 14:30:45 in packed decimal.
var stamp = []byte{0x24, 0x03, 0x15, 0x14, 0x30, 0x45, 0x00, 0x05}

func zeroStamp() []byte { return make([]byte, 8) }

func defaultValues() map[string]any {
	return map[string]any{
		NodeDrinkTypes: []any{
			&udt.DrinkType{
				DrinkName: "Cola", DrinkEnabled: true, PostmixDrink: "cola",
				IceOption: true, VolumeOption: true,
				Parameters:      udt.DrinkParameters{VolumeInMl: 300},
				PreparationTime: 12500,
			},
			&udt.DrinkType{
				DrinkName: "Gin Tonic", DrinkEnabled: true, PostmixDrink: "tonic", ConveyorDrink: "gin",
				IceOption: true, PreparationTime: 30000,
			},
			&udt.DrinkType{
				DrinkName: "Latte", CoffeeDrink: "latte",
				Parameters: udt.DrinkParameters{
					ShowParameters: true, CoffeeStrength: 3, VolumeInMl: 250, MilkPercentage: 40,
				},
				PreparationTime: 45000,
			},
		},

		NodeQueueItems: []any{
			&udt.QueueItem{OrderID: 16, DrinkTypeID: 1, PrepStartAt: zeroStamp()},
			&udt.QueueItem{OrderID: 17, DrinkTypeID: 2, PrepStartAt: zeroStamp()},
			&udt.QueueItem{OrderID: 9, DrinkTypeID: 0, PrepStartAt: zeroStamp()},
			&udt.QueueItem{},
			&udt.QueueItem{},
			&udt.QueueItem{},
			&udt.QueueItem{OrderID: 14, DrinkTypeID: 0, PrepStartAt: stamp},
			&udt.QueueItem{OrderID: 15, DrinkTypeID: 2, PrepStartAt: zeroStamp()},
		},
		NodeQueueFirstIndex: int16(0),
		NodeQueueLastIndex:  int16(7),
		NodeQueueLength:     int16(4),
		NodeQueueReadIndex:  int16(6),

		NodePickupDrinks: []any{
			&udt.PickupDrink{OrderID: 0},
			&udt.PickupDrink{OrderID: 11, DrinkTypeID: 1, PrepStartAt: stamp},
			&udt.PickupDrink{OrderID: 12, DrinkTypeID: 0, PrepStartAt: stamp, PickedUp: true},
			&udt.PickupDrink{OrderID: 13, DrinkTypeID: 2, PrepStartAt: stamp},
		},

		NodeLeftPrepDrink:    &udt.PrepDrink{OrderID: 14, DrinkTypeID: 0},
		NodeLeftPrepStartAt:  stamp,
		NodeLeftPrepDoneAt:   zeroStamp(),
		NodeRightPrepDrink:   &udt.PrepDrink{},
		NodeRightPrepStartAt: zeroStamp(),
		NodeRightPrepDoneAt:  zeroStamp(),

		NodePLCCurrentTime:    stamp,
		NodeServerStatusState: int32(0),

		NodePushNewOrder:        false,
		NodeNewOrderUseIce:      false,
		NodeNewOrderDrinkSizeID: int16(0),
		NodeNewOrderDrinkTypeID: int16(0),
		NodeOrderPushedOK:       true,
		NodeSuccessOrderNumber:  int16(42),
	}
}
