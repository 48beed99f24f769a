package middleware

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/robobar/plcbridge"
	"github.com/robobar/plcbridge/internal/events"
	"github.com/robobar/plcbridge/internal/transport"
	"github.com/robobar/plcbridge/internal/udt"
)

// Environment variables applied on top of the YAML file.
const (
	EnvPLCEndpoint = "PLCBRIDGE_PLC_ENDPOINT"
	EnvServerPort  = "PLCBRIDGE_SERVER_PORT"
	EnvLogLevel    = "PLCBRIDGE_LOG_LEVEL"
	EnvMQTTBroker  = "PLCBRIDGE_MQTT_BROKER"
)

// Config represents the bridge server configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	PLC        PLCConfig        `yaml:"plc"`
	Session    SessionConfig    `yaml:"session"`
	Orders     OrdersConfig     `yaml:"orders"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	MQTT       events.Config    `yaml:"mqtt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// RateLimitConfig limits order submissions per client address.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// PLCConfig contains PLC connection configuration
type PLCConfig struct {
	Endpoint         string          `yaml:"endpoint"`
	SecurityPolicy   string          `yaml:"security_policy"`
	SecurityMode     string          `yaml:"security_mode"`
	CertFile         string          `yaml:"cert_file"`
	KeyFile          string          `yaml:"key_file"`
	RequestTimeoutMs int             `yaml:"request_timeout_ms"`
	DialTimeoutMs    int             `yaml:"dial_timeout_ms"`
	TypeIDs          udt.EncodingIDs `yaml:"type_ids"`
}

// SessionConfig controls the reconnect loop.
type SessionConfig struct {
	RetryIntervalMs    int `yaml:"retry_interval_ms"`
	MaxRetryIntervalMs int `yaml:"max_retry_interval_ms"` // 0 keeps the retry interval fixed
	LivenessIntervalMs int `yaml:"liveness_interval_ms"`
}

// OrdersConfig controls the order handshake timing.
type OrdersConfig struct {
	SettleDelayMs  int `yaml:"settle_delay_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms"`
	AckTimeoutMs   int `yaml:"ack_timeout_ms"`
}

// MiddlewareConfig contains middleware-specific configuration
type MiddlewareConfig struct {
	MaxSubscriptions    int `yaml:"max_subscriptions"`
	StreamIntervalMs    int `yaml:"stream_interval_ms"`
	MinStreamIntervalMs int `yaml:"min_stream_interval_ms"` // floor for client-requested intervals
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	timing := plcbridge.DefaultOrderTiming()

	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: false,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 2,
				Burst:             4,
			},
		},
		PLC: PLCConfig{
			Endpoint:         plcbridge.DefaultEndpoint,
			SecurityPolicy:   "None",
			SecurityMode:     "None",
			RequestTimeoutMs: 5000,
			DialTimeoutMs:    5000,
			TypeIDs:          udt.DefaultEncodingIDs(),
		},
		Session: SessionConfig{
			RetryIntervalMs:    1000,
			LivenessIntervalMs: 1000,
		},
		Orders: OrdersConfig{
			SettleDelayMs:  int(timing.SettleDelay / time.Millisecond),
			PollIntervalMs: int(timing.PollInterval / time.Millisecond),
			AckTimeoutMs:   int(timing.AckTimeout / time.Millisecond),
		},
		Middleware: MiddlewareConfig{
			MaxSubscriptions:    100,
			StreamIntervalMs:    1000,
			MinStreamIntervalMs: 250,
		},
		MQTT: events.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment overrides
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyEnv loads .env from the working directory when present and applies
// the PLCBRIDGE_* overrides. Variables already set in the process win over .env.
func (c *Config) ApplyEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if v := os.Getenv(EnvPLCEndpoint); v != "" {
		c.PLC.Endpoint = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", EnvServerPort, v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker.Host = v
		c.MQTT.Enabled = true
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit needs a positive rate and a burst of at least 1")
	}

	if c.PLC.Endpoint == "" {
		return fmt.Errorf("PLC endpoint is required")
	}

	if err := c.PLC.TypeIDs.Validate(); err != nil {
		return fmt.Errorf("plc type_ids: %w", err)
	}

	if c.PLC.RequestTimeoutMs < 1 {
		return fmt.Errorf("PLC request timeout must be positive")
	}

	if c.Session.RetryIntervalMs < 1 || c.Session.LivenessIntervalMs < 1 {
		return fmt.Errorf("session retry and liveness intervals must be positive")
	}

	if c.Session.MaxRetryIntervalMs != 0 && c.Session.MaxRetryIntervalMs < c.Session.RetryIntervalMs {
		return fmt.Errorf("max retry interval %dms is below the retry interval %dms",
			c.Session.MaxRetryIntervalMs, c.Session.RetryIntervalMs)
	}

	if c.Orders.SettleDelayMs < 0 || c.Orders.PollIntervalMs < 1 {
		return fmt.Errorf("order settle delay must not be negative and poll interval must be positive")
	}

	if c.Orders.AckTimeoutMs < c.Orders.PollIntervalMs {
		return fmt.Errorf("order ack timeout %dms is shorter than the poll interval %dms",
			c.Orders.AckTimeoutMs, c.Orders.PollIntervalMs)
	}

	if c.Middleware.MaxSubscriptions < 1 {
		return fmt.Errorf("max subscriptions must be at least 1")
	}

	if c.Middleware.MinStreamIntervalMs < 1 {
		return fmt.Errorf("minimum stream interval must be positive")
	}

	if c.Middleware.StreamIntervalMs < c.Middleware.MinStreamIntervalMs {
		return fmt.Errorf("stream interval %dms is below the minimum %dms",
			c.Middleware.StreamIntervalMs, c.Middleware.MinStreamIntervalMs)
	}

	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Address returns the server address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Timeout returns the PLC request timeout as a time.Duration
func (c *Config) Timeout() time.Duration {
	return millis(c.PLC.RequestTimeoutMs)
}

// StreamInterval returns the default WebSocket polling interval.
func (c *Config) StreamInterval() time.Duration {
	return millis(c.Middleware.StreamIntervalMs)
}

// MinStreamInterval returns the shortest interval a WebSocket client may request.
func (c *Config) MinStreamInterval() time.Duration {
	return millis(c.Middleware.MinStreamIntervalMs)
}

// OrderTiming converts the orders section.
func (c *Config) OrderTiming() plcbridge.OrderTiming {
	return plcbridge.OrderTiming{
		SettleDelay:  millis(c.Orders.SettleDelayMs),
		PollInterval: millis(c.Orders.PollIntervalMs),
		AckTimeout:   millis(c.Orders.AckTimeoutMs),
	}
}

// Dialer builds the OPC-UA dialer with the configured structure types.
func (c *Config) Dialer() *transport.OPCUADialer {
	return &transport.OPCUADialer{
		SecurityPolicy: c.PLC.SecurityPolicy,
		SecurityMode:   c.PLC.SecurityMode,
		CertFile:       c.PLC.CertFile,
		KeyFile:        c.PLC.KeyFile,
		DialTimeout:    millis(c.PLC.DialTimeoutMs),
		RequestTimeout: c.Timeout(),
		Types:          udt.NewDrinkRegistry(c.PLC.TypeIDs),

		ApplicationName: plcbridge.ApplicationName(),
	}
}

// ClientOptions returns the plcbridge options described by the configuration.
func (c *Config) ClientOptions() []plcbridge.Option {
	opts := []plcbridge.Option{
		plcbridge.WithEndpoint(c.PLC.Endpoint),
		plcbridge.WithDialer(c.Dialer()),
		plcbridge.WithTimeout(c.Timeout()),
		plcbridge.WithReconnectDelay(millis(c.Session.RetryIntervalMs)),
		plcbridge.WithHealthCheck(millis(c.Session.LivenessIntervalMs)),
		plcbridge.WithOrderTiming(c.OrderTiming()),
	}
	if c.Session.MaxRetryIntervalMs > 0 {
		opts = append(opts, plcbridge.WithMaxReconnectDelay(millis(c.Session.MaxRetryIntervalMs)))
	}
	return opts
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

const exampleHeader = `# plcbridge configuration.
#
# Environment overrides (also read from .env):
#   PLCBRIDGE_PLC_ENDPOINT  plc.endpoint
#   PLCBRIDGE_SERVER_PORT   server.port
#   PLCBRIDGE_LOG_LEVEL     logging.level
#   PLCBRIDGE_MQTT_BROKER   mqtt.broker.host (and enables mqtt)
#
# plc.type_ids are the binary encoding node ids of the Drink_DB structures as
# exposed by the PLC's OPC-UA server. session.max_retry_interval_ms = 0 keeps
# the retry interval fixed.

`

// SaveExample saves an example configuration file
func SaveExample(filename string) error {
	config := DefaultConfig()
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, append([]byte(exampleHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
