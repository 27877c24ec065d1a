// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`

	// MaxTopLimit caps GET /assessments/top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// Storage selects the assessment store: memory or postgres.
	Storage     string `koanf:"storage"`
	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int    `koanf:"db_max_conns"`

	// Forecast and sampling constants.
	BaseYieldKgHa float64 `koanf:"base_yield_kg_ha"`
	MaxYieldKgHa  float64 `koanf:"max_yield_kg_ha"`
	ForecastYears int     `koanf:"forecast_years"`
	SampleWeightG float64 `koanf:"sample_weight_g"`
	BeanWeightG   float64 `koanf:"bean_weight_g"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    50_000,
		MaxTopLimit:   100,
		Storage:       StorageMemory,
		DBMaxConns:    10,
		BaseYieldKgHa: 1200,
		MaxYieldKgHa:  2500,
		ForecastYears: 5,
		SampleWeightG: 350,
		BeanWeightG:   0.15,
	}
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxTopLimit < 1:
		return fmt.Errorf("%w: max_top_limit must be positive, got %d", ErrInvalidConfig, c.MaxTopLimit)
	case c.Storage != StorageMemory && c.Storage != StoragePostgres:
		return fmt.Errorf("%w: storage must be %q or %q, got %q", ErrInvalidConfig, StorageMemory, StoragePostgres, c.Storage)
	case c.Storage == StoragePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for postgres storage", ErrInvalidConfig)
	case c.BaseYieldKgHa <= 0 || c.MaxYieldKgHa < c.BaseYieldKgHa:
		return fmt.Errorf("%w: need 0 < base_yield_kg_ha <= max_yield_kg_ha", ErrInvalidConfig)
	case c.ForecastYears < 1 || c.ForecastYears > 10:
		return fmt.Errorf("%w: forecast_years must be within [1, 10], got %d", ErrInvalidConfig, c.ForecastYears)
	case c.SampleWeightG <= 0 || c.BeanWeightG <= 0:
		return fmt.Errorf("%w: sample_weight_g and bean_weight_g must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
