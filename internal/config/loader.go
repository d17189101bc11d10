package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RACE_FORECAST_SCORING_PRESET.
const EnvPrefix = "RACE_FORECAST"

// DefaultConfigPath is read when no path is given.
const DefaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables are used instead.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := newViper()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		// Defaults are static; a failure here is a programming error.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)

	// Enable automatic binding of environment variables
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded expands ${VAR} placeholders before parsing.
func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "race-forecast")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.timezone", "Asia/Tokyo")

	v.SetDefault("scraper.source", "netkeiba")
	v.SetDefault("scraper.national_base_url", "https://race.netkeiba.com")
	v.SetDefault("scraper.regional_base_url", "https://nar.netkeiba.com")
	v.SetDefault("scraper.history_base_url", "https://db.netkeiba.com")
	v.SetDefault("scraper.local_dir", "pages")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.retry_wait_min_ms", 300)
	v.SetDefault("scraper.retry_wait_max_ms", 5000)
	v.SetDefault("scraper.requests_per_second", 3.0)
	v.SetDefault("scraper.circuit_breaker_max", 5)
	v.SetDefault("scraper.circuit_breaker_cooldown_seconds", 60)
	v.SetDefault("scraper.cache_ttl_seconds", 300)
	v.SetDefault("scraper.history_concurrency", 4)

	v.SetDefault("scoring.preset", "standard")
	v.SetDefault("scoring.value_picks", 3)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 5)

	v.SetDefault("watch.schedule", "@every 5m")
	v.SetDefault("watch.race_ids", []string{})

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "race-forecast")
	v.SetDefault("tracing.service_version", "")
	v.SetDefault("tracing.sampling_rate", 0.1)
	v.SetDefault("tracing.daemon_addr", "127.0.0.1:2000")
}
