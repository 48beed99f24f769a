// Package events publishes bridge status and order outcomes to an MQTT broker.
//
// The status topic is retained and backed by a last will, so subscribers
// always see whether the bridge and its PLC session are up. Order events are
// not retained.
package events

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps a paho client with the bridge's topics and payloads.
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    Config
	topics Topics
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool
}

// Connect establishes the broker connection and announces the bridge online.
// It returns ErrDisabled when cfg.Enabled is false.
func Connect(cfg Config, logger *slog.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		topics: Topics{Prefix: cfg.TopicPrefix},
		logger: logger.With("component", "events"),
	}

	opts := buildClientOptions(cfg, time.Now())
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// OnConnect runs asynchronously and may not have fired yet.
	c.setConnected(true)
	return c, nil
}

func (c *Client) handleConnect() {
	c.setConnected(true)
	payload := statusPayload(StatusOnline, c.cfg.Broker.ClientID, "", time.Now())
	c.client.Publish(c.topics.Status(), c.qos(), true, payload)
	c.logger.Info("mqtt connected", "broker", c.cfg.BrokerURL())
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)
	c.logger.Warn("mqtt connection lost", "error", err)
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) qos() byte {
	return byte(c.cfg.QoS)
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Publish sends payload to topic and waits for the broker acknowledgement.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.qos(), retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishSession reports a PLC session change on the retained status topic.
func (c *Client) PublishSession(connected bool, cause error) error {
	msg := StatusMessage{
		Status:    StatusDisconnected,
		ClientID:  c.cfg.Broker.ClientID,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	if connected {
		msg.Status = StatusConnected
	}
	if cause != nil {
		msg.Error = cause.Error()
	}
	return c.Publish(c.topics.Status(), encode(msg), true)
}

// PublishOrder reports the outcome of an order push.
func (c *Client) PublishOrder(ev OrderEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return c.Publish(c.topics.Orders(), encode(ev), false)
}

// Close announces a graceful shutdown and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		payload := statusPayload(StatusOffline, c.cfg.Broker.ClientID, ReasonShutdown, time.Now())
		token := c.client.Publish(c.topics.Status(), c.qos(), true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}
