package plcbridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics defines the interface for collecting operational metrics.
// Implementations can export metrics to various backends (Prometheus, StatsD, etc.).
type Metrics interface {
	// Session metrics
	ConnectionAttempts()
	ConnectionSuccesses()
	ConnectionFailures()
	ConnectionActive(active bool)
	Reconnections()

	// Operation metrics
	OperationStarted(operation string)
	OperationCompleted(operation string, duration time.Duration, err error)

	// Order metrics; outcome is "accepted", "rejected", "timeout" or "failed".
	OrderPushed(outcome string)

	// Stream metrics
	UpdatePublished()
	SubscriptionsActive(count int)

	// Error metrics
	ErrorOccurred(category ErrorCategory, operation string)

	// Liveness metrics
	HealthCheckStarted()
	HealthCheckCompleted(success bool)
}

type noopMetrics struct{}

func (n *noopMetrics) ConnectionAttempts()                                                    {}
func (n *noopMetrics) ConnectionSuccesses()                                                   {}
func (n *noopMetrics) ConnectionFailures()                                                    {}
func (n *noopMetrics) ConnectionActive(active bool)                                           {}
func (n *noopMetrics) Reconnections()                                                         {}
func (n *noopMetrics) OperationStarted(operation string)                                      {}
func (n *noopMetrics) OperationCompleted(operation string, duration time.Duration, err error) {}
func (n *noopMetrics) OrderPushed(outcome string)                                             {}
func (n *noopMetrics) UpdatePublished()                                                       {}
func (n *noopMetrics) SubscriptionsActive(count int)                                          {}
func (n *noopMetrics) ErrorOccurred(category ErrorCategory, operation string)                 {}
func (n *noopMetrics) HealthCheckStarted()                                                    {}
func (n *noopMetrics) HealthCheckCompleted(success bool)                                      {}

var (
	// DefaultMetrics is a no-op metrics collector to minimize overhead when metrics are not configured.
	DefaultMetrics Metrics = &noopMetrics{}
)

// InMemoryMetrics is an in-memory collector. The middleware server exposes
// its snapshot on /api/v1/info.
type InMemoryMetrics struct {
	mu sync.RWMutex

	connectionAttempts  atomic.Int64
	connectionSuccesses atomic.Int64
	connectionFailures  atomic.Int64
	connectionActive    atomic.Bool
	reconnections       atomic.Int64

	operationCounts    map[string]int64
	operationErrors    map[string]int64
	operationDurations map[string]time.Duration

	orders map[string]int64

	updatesPublished    atomic.Int64
	subscriptionsActive atomic.Int64

	errorsByCategory  map[string]int64
	errorsByOperation map[string]int64

	healthChecksStarted atomic.Int64
	healthChecksSuccess atomic.Int64
	healthChecksFailure atomic.Int64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		operationCounts:    make(map[string]int64),
		operationErrors:    make(map[string]int64),
		operationDurations: make(map[string]time.Duration),
		orders:             make(map[string]int64),
		errorsByCategory:   make(map[string]int64),
		errorsByOperation:  make(map[string]int64),
	}
}

func (m *InMemoryMetrics) ConnectionAttempts()          { m.connectionAttempts.Add(1) }
func (m *InMemoryMetrics) ConnectionSuccesses()         { m.connectionSuccesses.Add(1) }
func (m *InMemoryMetrics) ConnectionFailures()          { m.connectionFailures.Add(1) }
func (m *InMemoryMetrics) ConnectionActive(active bool) { m.connectionActive.Store(active) }
func (m *InMemoryMetrics) Reconnections()               { m.reconnections.Add(1) }

func (m *InMemoryMetrics) OperationStarted(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationCounts[operation]++
}

// OperationCompleted accumulates total time per operation; the snapshot
// reports the mean.
func (m *InMemoryMetrics) OperationCompleted(operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operationDurations[operation] += duration
	if err != nil {
		m.operationErrors[operation]++
	}
}

func (m *InMemoryMetrics) OrderPushed(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[outcome]++
}

func (m *InMemoryMetrics) UpdatePublished() { m.updatesPublished.Add(1) }

func (m *InMemoryMetrics) SubscriptionsActive(count int) {
	m.subscriptionsActive.Store(int64(count))
}

func (m *InMemoryMetrics) ErrorOccurred(category ErrorCategory, operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorsByCategory[category.String()]++
	m.errorsByOperation[operation]++
}

func (m *InMemoryMetrics) HealthCheckStarted() { m.healthChecksStarted.Add(1) }

func (m *InMemoryMetrics) HealthCheckCompleted(success bool) {
	if success {
		m.healthChecksSuccess.Add(1)
	} else {
		m.healthChecksFailure.Add(1)
	}
}

// Snapshot returns a copy of current metrics for reporting.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		ConnectionAttempts:  m.connectionAttempts.Load(),
		ConnectionSuccesses: m.connectionSuccesses.Load(),
		ConnectionFailures:  m.connectionFailures.Load(),
		ConnectionActive:    m.connectionActive.Load(),
		Reconnections:       m.reconnections.Load(),
		UpdatesPublished:    m.updatesPublished.Load(),
		SubscriptionsActive: m.subscriptionsActive.Load(),
		HealthChecksStarted: m.healthChecksStarted.Load(),
		HealthChecksSuccess: m.healthChecksSuccess.Load(),
		HealthChecksFailure: m.healthChecksFailure.Load(),
		OperationCounts:     copyCounts(m.operationCounts),
		OperationErrors:     copyCounts(m.operationErrors),
		OperationMeanMillis: make(map[string]float64, len(m.operationDurations)),
		Orders:              copyCounts(m.orders),
		ErrorsByCategory:    copyCounts(m.errorsByCategory),
		ErrorsByOperation:   copyCounts(m.errorsByOperation),
	}

	for op, total := range m.operationDurations {
		if n := m.operationCounts[op]; n > 0 {
			snapshot.OperationMeanMillis[op] = float64(total.Microseconds()) / 1000 / float64(n)
		}
	}

	return snapshot
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ConnectionAttempts  int64              `json:"connectionAttempts"`
	ConnectionSuccesses int64              `json:"connectionSuccesses"`
	ConnectionFailures  int64              `json:"connectionFailures"`
	ConnectionActive    bool               `json:"connectionActive"`
	Reconnections       int64              `json:"reconnections"`
	UpdatesPublished    int64              `json:"updatesPublished"`
	SubscriptionsActive int64              `json:"subscriptionsActive"`
	HealthChecksStarted int64              `json:"healthChecksStarted"`
	HealthChecksSuccess int64              `json:"healthChecksSuccess"`
	HealthChecksFailure int64              `json:"healthChecksFailure"`
	OperationCounts     map[string]int64   `json:"operationCounts"`
	OperationErrors     map[string]int64   `json:"operationErrors"`
	OperationMeanMillis map[string]float64 `json:"operationMeanMillis"`
	Orders              map[string]int64   `json:"orders"`
	ErrorsByCategory    map[string]int64   `json:"errorsByCategory"`
	ErrorsByOperation   map[string]int64   `json:"errorsByOperation"`
}

// WithMetrics returns a new option that sets the metrics collector for the client.
func WithMetrics(metrics Metrics) Option {
	return func(c *clientConfig) error {
		if metrics == nil {
			metrics = DefaultMetrics
		}
		c.metrics = metrics
		return nil
	}
}
