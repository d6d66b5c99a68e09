package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Distance strategy names selectable via DISTANCE_STRATEGY.
const (
	DistanceProvince = "province"
	DistanceLocality = "locality"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Persistence
	DatabaseURL string `envconfig:"DATABASE_URL"`
	MemoryStore bool   `envconfig:"MEMORY_STORE" default:"false"`

	// Pricing
	DistanceStrategy string `envconfig:"DISTANCE_STRATEGY" default:"locality"`
	DefaultOriginCPA string `envconfig:"DEFAULT_ORIGIN_CPA" default:"H3500"`
	DefaultCenterID  int64  `envconfig:"DEFAULT_CENTER_ID" default:"1"`
	DefaultMethodID  int64  `envconfig:"DEFAULT_METHOD_ID" default:"1"`

	// Stock service
	StockBaseURL string        `envconfig:"STOCK_BASE_URL" default:"http://localhost:3001"`
	StockTimeout time.Duration `envconfig:"STOCK_TIMEOUT" default:"10s"`
	StockUseMock bool          `envconfig:"STOCK_USE_MOCK" default:"false"`

	// Purchasing service
	PurchasingBaseURL string        `envconfig:"PURCHASING_BASE_URL" default:"http://localhost:3002"`
	PurchasingTimeout time.Duration `envconfig:"PURCHASING_TIMEOUT" default:"10s"`
	PurchasingUseMock bool          `envconfig:"PURCHASING_USE_MOCK" default:"false"`

	// Identity provider (client credentials for the stock service)
	TokenEndpoint     string `envconfig:"TOKEN_ENDPOINT"`
	TokenClientID     string `envconfig:"TOKEN_CLIENT_ID"`
	TokenClientSecret string `envconfig:"TOKEN_CLIENT_SECRET"`
	TokenScopes       string `envconfig:"TOKEN_SCOPES" default:"openid productos:read"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"pampacargo-logistica"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.DistanceStrategy != DistanceProvince && cfg.DistanceStrategy != DistanceLocality {
		return nil, fmt.Errorf("unknown distance strategy %q", cfg.DistanceStrategy)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("distance.strategy", c.DistanceStrategy),
		attribute.Bool("store.memory", c.MemoryStore),
	}
}
