package events

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 30 * time.Second
	maxQoS                   = 2
)

// Config is the mqtt section of the bridge configuration.
type Config struct {
	Enabled     bool         `yaml:"enabled"`
	Broker      BrokerConfig `yaml:"broker"`
	Auth        AuthConfig   `yaml:"auth"`
	QoS         int          `yaml:"qos"`
	TopicPrefix string       `yaml:"topic_prefix"`
}

// BrokerConfig addresses the MQTT broker.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	TLS      bool   `yaml:"tls"`
}

// AuthConfig holds optional broker credentials.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DefaultConfig returns a disabled configuration pointing at a local broker.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Broker: BrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "plcbridge",
		},
		QoS:         1,
		TopicPrefix: DefaultTopicPrefix,
	}
}

// Validate checks an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker.Host == "" {
		return fmt.Errorf("mqtt broker host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		return fmt.Errorf("invalid mqtt broker port: %d", c.Broker.Port)
	}
	if c.Broker.ClientID == "" {
		return fmt.Errorf("mqtt client id is required")
	}
	if c.QoS < 0 || c.QoS > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}

// BrokerURL returns tcp://host:port, or ssl:// when TLS is enabled.
func (c Config) BrokerURL() string {
	scheme := "tcp"
	if c.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Broker.Host, c.Broker.Port)
}

// buildClientOptions creates paho options. The last will marks the bridge
// offline on the retained status topic if the connection drops uncleanly.
func buildClientOptions(cfg Config, now time.Time) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	topics := Topics{Prefix: cfg.TopicPrefix}
	will := statusPayload(StatusOffline, cfg.Broker.ClientID, ReasonUnexpected, now)
	opts.SetBinaryWill(topics.Status(), will, 1, true)

	return opts
}
