package authkit

import (
	"errors"
	"time"
)

// ExchangeConfig controls the backend exchange client built from a base URL.
type ExchangeConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StoreConfig controls the redis-backed session store.
type StoreConfig struct {
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls metric collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config carries all manager settings. Zero values fall back to defaults at
// Build time; a Config is treated as immutable once the manager is built.
type Config struct {
	Exchange ExchangeConfig
	Store    StoreConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

func defaultConfig() Config {
	return Config{
		Exchange: ExchangeConfig{
			Timeout: 15 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "authkit",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) validate() error {
	if c.Exchange.Timeout < 0 {
		return errors.New("exchange timeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
