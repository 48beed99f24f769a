package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/robobar/plcbridge"
	"github.com/robobar/plcbridge/internal/events"
)

// Bridge is the part of *plcbridge.Client the HTTP layer uses.
type Bridge interface {
	DrinkTypes(ctx context.Context) ([]plcbridge.DrinkType, error)
	QueueState(ctx context.Context) ([]plcbridge.QueueEntry, error)
	PickupDrinks(ctx context.Context) (map[int]plcbridge.PickupDrink, error)
	DrinkInProgress(ctx context.Context, side plcbridge.Side) (*plcbridge.DrinkInProgress, error)
	PLCTime(ctx context.Context) (plcbridge.Timestamp, error)
	OrderStatus(ctx context.Context) (*plcbridge.OrderResult, error)
	PushNewDrink(ctx context.Context, req plcbridge.OrderRequest) (*plcbridge.OrderResult, error)

	Endpoint() string
	State() plcbridge.ConnectionState
	Connected() bool
	LastError() error
}

// Publisher receives order outcomes. *events.Client implements it.
type Publisher interface {
	PublishOrder(ev events.OrderEvent) error
}

// Middleware provides JSON envelopes over a bridge client
type Middleware struct {
	bridge     Bridge
	publisher  Publisher
	metrics    *plcbridge.InMemoryMetrics
	logger     plcbridge.Logger
	subManager *SubscriptionManager
	config     *Config
	startTime  time.Time
}

// NewMiddleware creates a new middleware instance. publisher and metrics may be nil.
func NewMiddleware(bridge Bridge, config *Config, publisher Publisher, metrics *plcbridge.InMemoryMetrics, logger plcbridge.Logger) *Middleware {
	if logger == nil {
		logger = plcbridge.DefaultLogger
	}
	m := &Middleware{
		bridge:    bridge,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		startTime: time.Now(),
	}

	var sink plcbridge.Metrics = plcbridge.DefaultMetrics
	if metrics != nil {
		sink = metrics
	}
	m.subManager = NewSubscriptionManager(bridge, config.Middleware.MaxSubscriptions,
		config.StreamInterval(), config.MinStreamInterval(), sink, logger)
	return m
}

// GetDrinkTypes reads the drink catalogue
func (m *Middleware) GetDrinkTypes(ctx context.Context) (*DrinkTypesResponse, error) {
	types, err := m.bridge.DrinkTypes(ctx)
	if err != nil {
		return nil, err
	}
	return &DrinkTypesResponse{DrinkTypes: types}, nil
}

// GetQueueState reads the order queue
func (m *Middleware) GetQueueState(ctx context.Context) (*QueueStateResponse, error) {
	queue, err := m.bridge.QueueState(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueStateResponse{QueueDrinks: queue}, nil
}

// GetPickupDrinks reads the occupied pickup slots
func (m *Middleware) GetPickupDrinks(ctx context.Context) (*PickupDrinksResponse, error) {
	slots, err := m.bridge.PickupDrinks(ctx)
	if err != nil {
		return nil, err
	}
	return &PickupDrinksResponse{PickupDrinks: slots}, nil
}

// GetDrinkInProgress reads the drink being prepared on side
func (m *Middleware) GetDrinkInProgress(ctx context.Context, side plcbridge.Side) (*DrinkInProgressResponse, error) {
	drink, err := m.bridge.DrinkInProgress(ctx, side)
	if err != nil {
		return nil, err
	}
	return &DrinkInProgressResponse{DrinkInProgress: drink}, nil
}

// GetPLCTime reads the PLC clock
func (m *Middleware) GetPLCTime(ctx context.Context) (*PLCTimeResponse, error) {
	ts, err := m.bridge.PLCTime(ctx)
	if err != nil {
		return nil, err
	}
	return &PLCTimeResponse{PLCCurrentTime: ts.String()}, nil
}

// GetOrderStatus reads the acknowledgement of the most recent order
func (m *Middleware) GetOrderStatus(ctx context.Context) (*NewOrderStatusResponse, error) {
	res, err := m.bridge.OrderStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &NewOrderStatusResponse{NewOrderStatus: res}, nil
}

// PushNewDrink submits an order and publishes its outcome
func (m *Middleware) PushNewDrink(ctx context.Context, req plcbridge.OrderRequest) (*NewOrderStatusResponse, error) {
	res, err := m.bridge.PushNewDrink(ctx, req)
	m.publishOrder(req, res, err)
	if err != nil {
		return nil, err
	}
	return &NewOrderStatusResponse{NewOrderStatus: res}, nil
}

// publishOrder reports pushes that reached the PLC. Refused requests are not events.
func (m *Middleware) publishOrder(req plcbridge.OrderRequest, res *plcbridge.OrderResult, err error) {
	if m.publisher == nil {
		return
	}

	ev := events.OrderEvent{
		DrinkTypeID: req.DrinkTypeID,
		DrinkSize:   req.DrinkSize,
		UseIce:      req.UseIce,
	}
	switch {
	case err == nil && res.Accepted:
		ev.Outcome = events.OrderAccepted
		ev.OrderNumber = res.AssignedOrderNumber
	case err == nil:
		ev.Outcome = events.OrderRejected
	case errors.Is(err, plcbridge.ErrTimeout):
		ev.Outcome = events.OrderTimeout
		ev.Error = err.Error()
	case errors.Is(err, plcbridge.ErrInvalidArgument), errors.Is(err, plcbridge.ErrNoConnection):
		return
	default:
		ev.Outcome = events.OrderFailed
		ev.Error = err.Error()
	}

	if perr := m.publisher.PublishOrder(ev); perr != nil {
		m.logger.Warn("order event not published", "outcome", ev.Outcome, "error", perr)
	}
}

// GetHealth returns the health status
func (m *Middleware) GetHealth() *HealthResponse {
	connected := m.bridge.Connected()
	status := "healthy"
	if !connected {
		status = "degraded"
	}

	resp := &HealthResponse{
		Status:    status,
		Connected: connected,
		State:     m.bridge.State().String(),
		Timestamp: time.Now(),
	}
	if err := m.bridge.LastError(); err != nil && !connected {
		resp.LastError = err.Error()
	}
	return resp
}

// GetInfo returns server and PLC connection information
func (m *Middleware) GetInfo() *InfoResponse {
	info := &InfoResponse{
		Endpoint:      m.bridge.Endpoint(),
		Connected:     m.bridge.Connected(),
		State:         m.bridge.State().String(),
		EventsEnabled: m.publisher != nil,
		Subscriptions: m.subManager.GetSubscriptionCount(),
		ServerUptime:  time.Since(m.startTime).Round(time.Second).String(),
	}
	if m.metrics != nil {
		snap := m.metrics.Snapshot()
		info.Metrics = &snap
	}
	return info
}

// GetVersion returns the bridge build information
func (m *Middleware) GetVersion() *VersionResponse {
	return &VersionResponse{
		Name:      "plcbridge",
		BuildInfo: plcbridge.GetBuildInfo(),
	}
}

// Close stops every WebSocket subscription.
func (m *Middleware) Close() {
	m.subManager.Close()
}
