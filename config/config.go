// Package config provides configuration management for the dextick service
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/sljivkov/dextick/domain"
)

// Config holds the application configuration
type Config struct {
	RPCURL    string        `envconfig:"RPC_URL"`                          // Websocket RPC endpoint, required
	Pool      string        `envconfig:"POOL"`                             // Pool contract address, required
	TimeAgo   time.Duration `envconfig:"TIME_AGO" default:"1h"`            // Start of the observation window
	Interval  time.Duration `envconfig:"TICK_INTERVAL" default:"5m"`       // Width of one window bucket
	Backoff   time.Duration `envconfig:"RESUBSCRIBE_BACKOFF" default:"30s"` // Max wait between head resubscriptions
	Precision int32         `envconfig:"PRECISION" default:"6"`            // Decimal places for displayed prices

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // Snapshot and metrics listener, empty disables

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`  // sqlite or postgres, empty disables history
	DBDSN    string `envconfig:"DB_DSN" default:"dextick.db"` // File path for sqlite, DSN for postgres

	NATSURL    string `envconfig:"NATS_URL"`                      // Empty disables publishing
	NATSPrefix string `envconfig:"NATS_PREFIX" default:"dextick"` // Subject prefix as in {prefix}.{pool}

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithEnvFile loads configuration from a .env file
func WithEnvFile(path string) Option {
	return func(c *Config) error {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}

		return envconfig.Process("", c)
	}
}

// WithRPCURL sets the RPC endpoint
func WithRPCURL(rpcURL string) Option {
	return func(c *Config) error {
		c.RPCURL = rpcURL
		return nil
	}
}

// WithPool sets the pool address
func WithPool(pool string) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithWindow sets the observation window
func WithWindow(timeAgo, interval time.Duration) Option {
	return func(c *Config) error {
		c.TimeAgo = timeAgo
		c.Interval = interval
		return nil
	}
}

// WithPrecision sets the precision value for price display
func WithPrecision(precision int32) Option {
	return func(c *Config) error {
		c.Precision = precision
		return nil
	}
}

// WithLogging sets the log level and format. Empty values keep the current setting.
func WithLogging(level, format string) Option {
	return func(c *Config) error {
		if level != "" {
			c.LogLevel = level
		}

		if format != "" {
			c.LogFormat = format
		}

		return nil
	}
}

// validate performs validation on the config values
func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL is required")
	}

	if _, err := url.ParseRequestURI(c.RPCURL); err != nil {
		return fmt.Errorf("invalid RPC URL: %s", c.RPCURL)
	}

	if _, err := domain.ParsePool(c.Pool); err != nil {
		return err
	}

	if err := c.Window().Validate(); err != nil {
		return err
	}

	if c.Precision < 0 {
		return fmt.Errorf("precision must not be negative: %d", c.Precision)
	}

	switch c.DBDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.DBDriver)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}

	return nil
}

// NewConfig creates a new validated Config instance
func NewConfig(opts ...Option) (*Config, error) {
	var cfg Config

	// Process environment variables first
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Apply user options last so they take precedence
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("option application failed: %w", err)
		}
	}

	// Validate the configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Window returns the configured observation window
func (c *Config) Window() domain.Window {
	return domain.Window{TimeAgo: c.TimeAgo, Interval: c.Interval}
}

// Logger builds a logrus logger from the configured level and format
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()

	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if strings.ToLower(c.LogFormat) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
