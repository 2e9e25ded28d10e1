package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the agent.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"player-agent"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"AGENT_OPS_PORT" envDefault:"8196"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Remote render service
	APIBaseURL      string        `env:"API_BASE_URL"`
	APIWebsocketURL string        `env:"API_WEBSOCKET_URL"`
	APINamespace    string        `env:"API_NAMESPACE"`
	APISecret       string        `env:"API_SECRET"`
	APITimeout      time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// Database. An empty DSN keeps rooms and configs in memory; they are
	// then lost on restart.
	DatabaseDSN     string        `env:"DATABASE_DSN" envDefault:""`
	DBMaxIdleConns  int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	DBMaxOpenConns  int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBConnLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Event handling
	EventTimeout      time.Duration `env:"EVENT_TIMEOUT" envDefault:"30s"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`

	// Artifact relay
	RelayTempDir     string `env:"RELAY_TEMP_DIR" envDefault:""`
	RelayMaxInFlight int    `env:"RELAY_MAX_IN_FLIGHT" envDefault:"2"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if strings.TrimSpace(cfg.APIWebsocketURL) == "" {
		return nil, fmt.Errorf("API_WEBSOCKET_URL is required")
	}
	if strings.TrimSpace(cfg.APINamespace) == "" {
		return nil, fmt.Errorf("API_NAMESPACE is required")
	}
	if strings.TrimSpace(cfg.APISecret) == "" {
		return nil, fmt.Errorf("API_SECRET is required")
	}

	return cfg, nil
}

// Addr returns the ops HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
