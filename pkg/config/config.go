// Package config loads the read-path middleware configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable of the read-path core.
type Config struct {
	// Redis backend
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// TTLs in seconds, per resource category
	EntityTTLSeconds int `mapstructure:"CACHE_ENTITY_TTL_SECONDS"`
	ListTTLSeconds   int `mapstructure:"CACHE_LIST_TTL_SECONDS"`
	StatsTTLSeconds  int `mapstructure:"CACHE_STATS_TTL_SECONDS"`

	// Pagination
	MaxPageLimit           int   `mapstructure:"PAGE_MAX_LIMIT"`
	CountEstimationEnabled bool  `mapstructure:"COUNT_ESTIMATION_ENABLED"`
	CountEstimationMinSize int64 `mapstructure:"COUNT_ESTIMATION_MIN_SIZE"`

	// Batch loader
	BatchDelayMillis int `mapstructure:"BATCH_DELAY_MS"`
	MaxBatchSize     int `mapstructure:"BATCH_MAX_SIZE"`

	// HTTP (cmd/readapi only)
	AppPort string `mapstructure:"APP_PORT"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`
}

// Default returns the configuration documented in the service runbook.
func Default() *Config {
	return &Config{
		RedisAddr:              "localhost:6379",
		RedisDB:                0,
		EntityTTLSeconds:       300,
		ListTTLSeconds:         30,
		StatsTTLSeconds:        120,
		MaxPageLimit:           100,
		CountEstimationEnabled: true,
		CountEstimationMinSize: 100_000,
		BatchDelayMillis:       10,
		MaxBatchSize:           100,
		AppPort:                "8080",
		LogLevel:               "info",
	}
}

// LoadFromEnv loads the configuration from environment variables,
// falling back to defaults for unset keys.
func LoadFromEnv() (*Config, error) {
	// .env is only used for local development
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	keys := []string{
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"CACHE_ENTITY_TTL_SECONDS", "CACHE_LIST_TTL_SECONDS", "CACHE_STATS_TTL_SECONDS",
		"PAGE_MAX_LIMIT", "COUNT_ESTIMATION_ENABLED", "COUNT_ESTIMATION_MIN_SIZE",
		"BATCH_DELAY_MS", "BATCH_MAX_SIZE",
		"APP_PORT", "LOG_LEVEL", "LOG_PRETTY",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the core cannot run with.
func (c *Config) Validate() error {
	if c.MaxPageLimit < 1 {
		return fmt.Errorf("PAGE_MAX_LIMIT must be >= 1 (got %d)", c.MaxPageLimit)
	}
	if c.BatchDelayMillis < 0 {
		return fmt.Errorf("BATCH_DELAY_MS must be >= 0 (got %d)", c.BatchDelayMillis)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("BATCH_MAX_SIZE must be >= 1 (got %d)", c.MaxBatchSize)
	}
	if c.EntityTTLSeconds <= 0 || c.ListTTLSeconds <= 0 || c.StatsTTLSeconds <= 0 {
		return errors.New("cache TTLs must be > 0")
	}
	if c.CountEstimationMinSize < 0 {
		return fmt.Errorf("COUNT_ESTIMATION_MIN_SIZE must be >= 0 (got %d)", c.CountEstimationMinSize)
	}
	return nil
}

// BatchDelay returns the loader coalescing window as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMillis) * time.Millisecond
}

// String implements fmt.Stringer with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	if c.RedisPassword != "" {
		sb.WriteString("  RedisPassword: ********\n")
	} else {
		sb.WriteString("  RedisPassword: (empty)\n")
	}
	sb.WriteString(fmt.Sprintf("  EntityTTLSeconds: %d\n", c.EntityTTLSeconds))
	sb.WriteString(fmt.Sprintf("  ListTTLSeconds: %d\n", c.ListTTLSeconds))
	sb.WriteString(fmt.Sprintf("  StatsTTLSeconds: %d\n", c.StatsTTLSeconds))
	sb.WriteString(fmt.Sprintf("  MaxPageLimit: %d\n", c.MaxPageLimit))
	sb.WriteString(fmt.Sprintf("  CountEstimationEnabled: %v\n", c.CountEstimationEnabled))
	sb.WriteString(fmt.Sprintf("  CountEstimationMinSize: %d\n", c.CountEstimationMinSize))
	sb.WriteString(fmt.Sprintf("  BatchDelayMillis: %d\n", c.BatchDelayMillis))
	sb.WriteString(fmt.Sprintf("  MaxBatchSize: %d\n", c.MaxBatchSize))
	sb.WriteString(fmt.Sprintf("  AppPort: %s\n", c.AppPort))
	sb.WriteString(fmt.Sprintf("  LogLevel: %s\n", c.LogLevel))
	return sb.String()
}
