// Package config provides configuration management for the Sharpline engine.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Model    ModelConfig    `mapstructure:"model_service" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	Sources  SourcesConfig  `mapstructure:"sources" validate:"required"`
	Ops      OpsConfig      `mapstructure:"ops" validate:"required"`
	Batch    BatchConfig    `mapstructure:"batch" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// RedisConfig represents the optional Redis backend for budget counters
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// ModelConfig represents the external win-probability service configuration
type ModelConfig struct {
	HTTPAddress           string `mapstructure:"http_address" validate:"required"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize          int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// EngineConfig represents the value-decision thresholds and sizing knobs
type EngineConfig struct {
	MinEV               float64 `mapstructure:"min_ev" validate:"gte=0"`
	MinEdge             float64 `mapstructure:"min_edge" validate:"gte=0"`
	MinConfidence       float64 `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	KellyMultiplier     float64 `mapstructure:"kelly_multiplier" validate:"required,gt=0,lte=1"`
	MaxStakeCap         float64 `mapstructure:"max_stake_cap" validate:"required,gt=0,lte=1"`
	MaxQuoteAgeHours    float64 `mapstructure:"max_quote_age_hours" validate:"required,gt=0"`
	MaxOverround        float64 `mapstructure:"max_overround" validate:"required,gt=0"`
	MinSampleSize       int     `mapstructure:"min_sample_size" validate:"gte=0"`
	MaxComboLegs        int     `mapstructure:"max_combo_legs" validate:"required,gt=0"`
	MinComboProbability float64 `mapstructure:"min_combo_probability" validate:"gte=0,lte=1"`
	MaxWorkers          int     `mapstructure:"max_workers" validate:"required,gt=0"`
}

// SourcesConfig represents upstream quote source configuration
type SourcesConfig struct {
	Sources             []SourceConfig `mapstructure:"list" validate:"required,min=1,dive"`
	DailyLimitPerSource map[string]int `mapstructure:"daily_limit_per_source" validate:"required"`
}

// SourceConfig represents a single upstream quote source
type SourceConfig struct {
	Name          string  `mapstructure:"name" validate:"required"`
	Kind          string  `mapstructure:"kind" validate:"required,oneof=http stream"`
	Enabled       bool    `mapstructure:"enabled"`
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	RateLimit     float64 `mapstructure:"rate_limit" validate:"omitempty,gt=0"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"omitempty,gt=0"`
}

// OpsConfig represents the ops HTTP listener (health, metrics, budget)
type OpsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// BatchConfig represents batch trigger configuration for the runner binary
type BatchConfig struct {
	Schedule       string `mapstructure:"schedule" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// DailyLimit returns the configured quota for a source, 0 if unknown
func (c *Config) DailyLimit(sourceID string) int {
	return c.Sources.DailyLimitPerSource[sourceID]
}
