package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Google    GoogleConfig    `mapstructure:"google"`
	Search    SearchConfig    `mapstructure:"search"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// GoogleConfig carries the places provider credential and transport bound.
type GoogleConfig struct {
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SearchConfig tunes the search-and-sync engine.
type SearchConfig struct {
	DebounceMillis      int `mapstructure:"debounce_millis"`
	CooldownMillis      int `mapstructure:"cooldown_millis"`
	DefaultRadiusMeters int `mapstructure:"default_radius_meters"`
	DefaultZoom         int `mapstructure:"default_zoom"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("google.timeout_seconds", 10)
	v.SetDefault("search.debounce_millis", 1000)
	v.SetDefault("search.cooldown_millis", 1000)
	v.SetDefault("search.default_radius_meters", 24140)
	v.SetDefault("search.default_zoom", 13)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: FINDER_SEARCH_DEBOUNCE_MILLIS → search.debounce_millis
	v.SetEnvPrefix("FINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The provider credential is deployed as GOOGLE_MAPS_API_KEY.
	_ = v.BindEnv("google.api_key", "GOOGLE_MAPS_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// A missing provider credential is fatal for the whole widget.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Google.APIKey == "" {
		errs = append(errs, "google.api_key is required (set GOOGLE_MAPS_API_KEY)")
	}
	if c.Google.TimeoutSeconds <= 0 {
		errs = append(errs, "google.timeout_seconds must be positive")
	}
	if c.Search.DebounceMillis <= 0 {
		errs = append(errs, "search.debounce_millis must be positive")
	}
	if c.Search.CooldownMillis < 0 {
		errs = append(errs, "search.cooldown_millis must not be negative")
	}
	if c.Search.DefaultRadiusMeters < domain.MinRadiusMeters ||
		c.Search.DefaultRadiusMeters > domain.MaxRadiusMeters {
		errs = append(errs, fmt.Sprintf("search.default_radius_meters must be %d-%d",
			domain.MinRadiusMeters, domain.MaxRadiusMeters))
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
