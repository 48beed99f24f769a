package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robobar/plcbridge"
)

// Stream topics a client can subscribe to.
const (
	TopicQueue           = "queue"
	TopicPickup          = "pickup"
	TopicInProgressLeft  = "inProgress:0"
	TopicInProgressRight = "inProgress:1"
	TopicPLCTime         = "plcTime"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// SubscriptionManager manages WebSocket subscriptions
type SubscriptionManager struct {
	bridge          Bridge
	subscriptions   map[subscriptionKey]*Subscription
	mu              sync.RWMutex
	maxSubs         int
	defaultInterval time.Duration
	minInterval     time.Duration
	metrics         plcbridge.Metrics
	logger          plcbridge.Logger
}

type subscriptionKey struct {
	conn *wsConn
	id   string
}

// Subscription represents an active WebSocket subscription
type Subscription struct {
	ID         string
	Topics     []string
	Interval   time.Duration
	Connection *wsConn
	ctx        context.Context
	cancelFunc context.CancelFunc
	lastValues map[string][]byte
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// WebSocketMessage represents messages sent over WebSocket
type WebSocketMessage struct {
	Type      string                     `json:"type"` // "subscribe", "unsubscribe", "subscribed", "unsubscribed", "data", "error"
	RequestID string                     `json:"request_id,omitempty"`
	Topics    []string                   `json:"topics,omitempty"`
	Interval  int                        `json:"interval,omitempty"` // milliseconds
	Data      map[string]json.RawMessage `json:"data,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

// NewSubscriptionManager creates a new subscription manager. Requested
// intervals of zero use defaultInterval; shorter ones are raised to minInterval.
func NewSubscriptionManager(bridge Bridge, maxSubscriptions int, defaultInterval, minInterval time.Duration, metrics plcbridge.Metrics, logger plcbridge.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		bridge:          bridge,
		subscriptions:   make(map[subscriptionKey]*Subscription),
		maxSubs:         maxSubscriptions,
		defaultInterval: defaultInterval,
		minInterval:     minInterval,
		metrics:         metrics,
		logger:          logger,
	}
}

// ValidateTopics rejects empty, duplicate or unknown topics.
func ValidateTopics(topics []string) error {
	if len(topics) == 0 {
		return NewInvalidRequestError("no topics specified")
	}
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		switch t {
		case TopicQueue, TopicPickup, TopicInProgressLeft, TopicInProgressRight, TopicPLCTime:
		default:
			return NewInvalidRequestError(fmt.Sprintf("unknown topic %q", t))
		}
		if seen[t] {
			return NewInvalidRequestError(fmt.Sprintf("duplicate topic %q", t))
		}
		seen[t] = true
	}
	return nil
}

// Subscribe registers a subscription for topics under requestID. Streaming
// begins with Start.
func (sm *SubscriptionManager) Subscribe(conn *wsConn, requestID string, topics []string, interval time.Duration) (*Subscription, error) {
	if err := ValidateTopics(topics); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = sm.defaultInterval
	}
	if interval < sm.minInterval {
		interval = sm.minInterval
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.subscriptions) >= sm.maxSubs {
		return nil, NewSubscriptionLimitError(sm.maxSubs)
	}

	key := subscriptionKey{conn: conn, id: requestID}
	if _, exists := sm.subscriptions[key]; exists {
		return nil, NewInvalidRequestError("subscription ID already exists")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		ID:         requestID,
		Topics:     topics,
		Interval:   interval,
		Connection: conn,
		ctx:        ctx,
		cancelFunc: cancel,
		lastValues: make(map[string][]byte),
	}

	sm.subscriptions[key] = sub
	sm.metrics.SubscriptionsActive(len(sm.subscriptions))

	return sub, nil
}

// Start streams sub in the background until it is unsubscribed.
func (sm *SubscriptionManager) Start(sub *Subscription) {
	go sm.pollTopics(sub.ctx, sub)
}

// Unsubscribe removes a subscription
func (sm *SubscriptionManager) Unsubscribe(conn *wsConn, requestID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := subscriptionKey{conn: conn, id: requestID}
	sub, exists := sm.subscriptions[key]
	if !exists {
		return NewInvalidRequestError("subscription not found")
	}

	sub.cancelFunc()
	delete(sm.subscriptions, key)
	sm.metrics.SubscriptionsActive(len(sm.subscriptions))

	return nil
}

// UnsubscribeAll removes all subscriptions for a connection
func (sm *SubscriptionManager) UnsubscribeAll(conn *wsConn) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for key, sub := range sm.subscriptions {
		if key.conn == conn {
			sub.cancelFunc()
			delete(sm.subscriptions, key)
		}
	}
	sm.metrics.SubscriptionsActive(len(sm.subscriptions))
}

// Close stops every subscription.
func (sm *SubscriptionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for key, sub := range sm.subscriptions {
		sub.cancelFunc()
		delete(sm.subscriptions, key)
	}
	sm.metrics.SubscriptionsActive(0)
}

// pollTopics sends the current state at once, then every interval when it changes
func (sm *SubscriptionManager) pollTopics(ctx context.Context, sub *Subscription) {
	ticker := time.NewTicker(sub.Interval)
	defer ticker.Stop()

	sm.readAndSendTopics(ctx, sub)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.readAndSendTopics(ctx, sub)
		}
	}
}

// readAndSendTopics reads every topic and sends those whose payload changed.
// Only pollTopics touches lastValues.
func (sm *SubscriptionManager) readAndSendTopics(ctx context.Context, sub *Subscription) {
	data := make(map[string]json.RawMessage)

	for _, topic := range sub.Topics {
		value, err := sm.readTopic(ctx, topic)
		if err != nil {
			if ctx.Err() == nil {
				sm.logger.Debug("stream read failed", "topic", topic, "error", err)
			}
			continue
		}

		payload, err := json.Marshal(value)
		if err != nil {
			sm.logger.Warn("stream encode failed", "topic", topic, "error", err)
			continue
		}

		if last, ok := sub.lastValues[topic]; ok && bytes.Equal(last, payload) {
			continue
		}
		sub.lastValues[topic] = payload
		data[topic] = payload
	}

	if len(data) == 0 || ctx.Err() != nil {
		return
	}

	msg := WebSocketMessage{
		Type:      "data",
		RequestID: sub.ID,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := sub.Connection.WriteJSON(msg); err != nil {
		sm.logger.Debug("stream write failed", "request_id", sub.ID, "error", err)
		return
	}
	sm.metrics.UpdatePublished()
}

func (sm *SubscriptionManager) readTopic(ctx context.Context, topic string) (interface{}, error) {
	switch topic {
	case TopicQueue:
		return sm.bridge.QueueState(ctx)
	case TopicPickup:
		return sm.bridge.PickupDrinks(ctx)
	case TopicPLCTime:
		ts, err := sm.bridge.PLCTime(ctx)
		if err != nil {
			return nil, err
		}
		return ts.String(), nil
	}

	if rest, ok := strings.CutPrefix(topic, "inProgress:"); ok {
		side, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid topic %q", topic)
		}
		return sm.bridge.DrinkInProgress(ctx, plcbridge.Side(side))
	}
	return nil, fmt.Errorf("unknown topic %q", topic)
}

// GetSubscriptionCount returns the number of active subscriptions
func (sm *SubscriptionManager) GetSubscriptionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscriptions)
}

// HandleWebSocket serves one WebSocket connection until it closes
func (m *Middleware) HandleWebSocket(raw *websocket.Conn) {
	conn := &wsConn{Conn: raw}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("websocket closed", "error", err)
			}
			break
		}

		switch msg.Type {
		case "subscribe":
			interval := time.Duration(msg.Interval) * time.Millisecond
			sub, err := m.subManager.Subscribe(conn, msg.RequestID, msg.Topics, interval)
			if err != nil {
				m.sendWebSocketError(conn, msg.RequestID, err.Error())
				continue
			}
			conn.WriteJSON(WebSocketMessage{
				Type:      "subscribed",
				RequestID: msg.RequestID,
				Topics:    msg.Topics,
				Interval:  int(sub.Interval / time.Millisecond),
				Timestamp: time.Now(),
			})
			m.subManager.Start(sub)

		case "unsubscribe":
			if err := m.subManager.Unsubscribe(conn, msg.RequestID); err != nil {
				m.sendWebSocketError(conn, msg.RequestID, err.Error())
				continue
			}
			conn.WriteJSON(WebSocketMessage{
				Type:      "unsubscribed",
				RequestID: msg.RequestID,
				Timestamp: time.Now(),
			})

		default:
			m.sendWebSocketError(conn, msg.RequestID, "unknown message type")
		}
	}

	m.subManager.UnsubscribeAll(conn)
}

// sendWebSocketError sends an error message via WebSocket
func (m *Middleware) sendWebSocketError(conn *wsConn, requestID, message string) {
	conn.WriteJSON(WebSocketMessage{
		Type:      "error",
		RequestID: requestID,
		Error:     message,
		Timestamp: time.Now(),
	})
}
