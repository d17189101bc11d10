// Package config provides configuration management for the race forecaster.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
	// Race-day timezones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Scraper  ScraperConfig  `mapstructure:"scraper" validate:"required"`
	Scoring  ScoringConfig  `mapstructure:"scoring" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Timezone    string `mapstructure:"timezone" validate:"required,timezone"`
}

// ScraperConfig configures page fetching
type ScraperConfig struct {
	Source                        string  `mapstructure:"source" validate:"required,oneof=netkeiba directory"`
	NationalBaseURL               string  `mapstructure:"national_base_url" validate:"required,url"`
	RegionalBaseURL               string  `mapstructure:"regional_base_url" validate:"required,url"`
	HistoryBaseURL                string  `mapstructure:"history_base_url" validate:"required,url"`
	LocalDir                      string  `mapstructure:"local_dir"`
	UserAgent                     string  `mapstructure:"user_agent" validate:"required"`
	TimeoutSeconds                int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries                    int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryWaitMinMS                int     `mapstructure:"retry_wait_min_ms" validate:"gte=0"`
	RetryWaitMaxMS                int     `mapstructure:"retry_wait_max_ms" validate:"gte=0"`
	RequestsPerSecond             float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	CircuitBreakerMax             int     `mapstructure:"circuit_breaker_max" validate:"required,gt=0"`
	CircuitBreakerCooldownSeconds int     `mapstructure:"circuit_breaker_cooldown_seconds" validate:"gte=0"`
	CacheTTLSeconds               int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	HistoryConcurrency            int     `mapstructure:"history_concurrency" validate:"required,gt=0,lte=16"`
}

// ScoringConfig selects the weight preset and value-pick count
type ScoringConfig struct {
	Preset     string `mapstructure:"preset" validate:"required,preset"`
	ValuePicks int    `mapstructure:"value_picks" validate:"gte=0,lte=18"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// DatabaseConfig represents database connection configuration.
// It is validated only when Enabled is set.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// WatchConfig lists races to re-forecast on a schedule
type WatchConfig struct {
	Schedule string   `mapstructure:"schedule" validate:"omitempty,cron"`
	RaceIDs  []string `mapstructure:"race_ids" validate:"dive,len=12,numeric"`
}

// TracingConfig configures AWS X-Ray
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	SamplingRate   float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
	DaemonAddr     string  `mapstructure:"daemon_addr" validate:"required_if=Enabled true"`
}

// SecretsConfig points at an optional AWS Secrets Manager secret
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Location returns the configured race-day timezone, falling back to JST.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.App.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.ConnString()
}

// ConnString renders the settings as a postgres:// URL. Credentials are
// escaped, so empty values and spaces survive parsing.
func (d *DatabaseConfig) ConnString() string {
	query := url.Values{}
	query.Set("application_name", "race-forecast")
	if d.SSLMode != "" {
		query.Set("sslmode", d.SSLMode)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Timeout returns the per-request HTTP timeout.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RetryWaitMin returns the minimum backoff between retries.
func (s ScraperConfig) RetryWaitMin() time.Duration {
	return time.Duration(s.RetryWaitMinMS) * time.Millisecond
}

// RetryWaitMax returns the maximum backoff between retries.
func (s ScraperConfig) RetryWaitMax() time.Duration {
	return time.Duration(s.RetryWaitMaxMS) * time.Millisecond
}

// CircuitBreakerCooldown returns how long the breaker stays open.
func (s ScraperConfig) CircuitBreakerCooldown() time.Duration {
	return time.Duration(s.CircuitBreakerCooldownSeconds) * time.Second
}

// CacheTTL returns the document cache lifetime; zero disables caching.
func (s ScraperConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}
