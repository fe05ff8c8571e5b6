// Package config provides configuration management for the edge engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Decision   DecisionConfig   `mapstructure:"decision" validate:"required"`
	Classifier ClassifierConfig `mapstructure:"classifier" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache" validate:"required"`
	KillSwitch KillSwitchConfig `mapstructure:"kill_switch" validate:"required"`
	OddsFeed   OddsFeedConfig   `mapstructure:"odds_feed" validate:"required"`
	Monitor    MonitorConfig    `mapstructure:"monitor" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
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

// SimulationConfig controls the Monte Carlo executor
type SimulationConfig struct {
	DefaultTrials       int     `mapstructure:"default_trials" validate:"required,gt=0"`
	ConvergenceInterval int     `mapstructure:"convergence_interval" validate:"required,gt=0"`
	TargetHalfWidth     float64 `mapstructure:"target_half_width" validate:"required,gt=0,lt=1"`
	ConfidenceLevel     float64 `mapstructure:"confidence_level" validate:"required,oneof=0.90 0.95 0.99"`
	EdgeThresholdPct    float64 `mapstructure:"edge_threshold_pct" validate:"required,gt=0"`
}

// DecisionConfig controls decision gating and edge classification
type DecisionConfig struct {
	Profile              string  `mapstructure:"profile" validate:"required"`
	LeanThresholdPoints  float64 `mapstructure:"lean_threshold_points" validate:"required,gt=0"`
	EdgeThresholdPoints  float64 `mapstructure:"edge_threshold_points" validate:"required,gt=0"`
	MaxLineDeltaPoints   float64 `mapstructure:"max_line_delta_points" validate:"required,gt=0"`
	FreshnessWindowMins  int     `mapstructure:"freshness_window_minutes" validate:"required,gt=0"`
	ConvictionFloor      float64 `mapstructure:"conviction_floor" validate:"required,gte=0.5,lt=1"`
	StrictInvariants     bool    `mapstructure:"strict_invariants"`
}

// ClassifierConfig controls release state classification
type ClassifierConfig struct {
	PromoteConfidence   int     `mapstructure:"promote_confidence" validate:"required,gt=0,lte=100"`
	DemoteConfidence    int     `mapstructure:"demote_confidence" validate:"required,gt=0,lte=100"`
	ConfidenceFloor     int     `mapstructure:"confidence_floor" validate:"required,gte=0,lte=100"`
	MinEdgePct          float64 `mapstructure:"min_edge_pct" validate:"required,gt=0"`
	MaxInjuryImpact     float64 `mapstructure:"max_injury_impact" validate:"required,gt=0"`
	MinTrials           int     `mapstructure:"min_trials" validate:"required,gt=0"`
	ProbabilityFloor    float64 `mapstructure:"probability_floor" validate:"required,gt=0.5,lt=1"`
	ActionableEdgePct   float64 `mapstructure:"actionable_edge_pct" validate:"required,gt=0"`
	HighVolConfidence   int     `mapstructure:"high_vol_confidence" validate:"required,gt=0,lte=100"`
}

// CacheConfig controls the simulation result cache
type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" validate:"required,gt=0"`
}

// KillSwitchConfig controls the release kill switch
type KillSwitchConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"required,gt=0,lte=60"`
}

// OddsFeedConfig represents the live odds provider configuration
type OddsFeedConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	BurstSize         int     `mapstructure:"burst_size" validate:"required,gt=0"`
}

// MonitorConfig represents the market monitor configuration
type MonitorConfig struct {
	StreamURL            string   `mapstructure:"stream_url" validate:"required"`
	Markets              []string `mapstructure:"markets" validate:"required,min=1,markets"`
	FreshnessSweepCron   string   `mapstructure:"freshness_sweep_cron" validate:"required"`
	LineMoveThreshold    float64  `mapstructure:"line_move_threshold" validate:"required,gt=0"`
	OddsMoveThreshold    int      `mapstructure:"odds_move_threshold" validate:"required,gt=0"`
	ReconnectDelaySecs   int      `mapstructure:"reconnect_delay_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
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

// CacheTTL returns the result cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// KillSwitchTTL returns the kill switch staleness window as a duration.
func (c *Config) KillSwitchTTL() time.Duration {
	return time.Duration(c.KillSwitch.TTLSeconds) * time.Second
}

// FreshnessWindow returns the decision freshness window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Decision.FreshnessWindowMins) * time.Minute
}

// ReconnectDelay returns the stream reconnect backoff as a duration.
func (c *MonitorConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySecs) * time.Second
}
