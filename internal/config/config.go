// Package config loads dashcache settings from defaults, an optional config
// file and DASHCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/IvanBrykalov/dashcache/ttl"
)

// EnvPrefix is prepended to every environment override, e.g.
// DASHCACHE_CACHE_CAPACITY or DASHCACHE_LOG_LEVEL.
const EnvPrefix = "DASHCACHE"

// Source backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Source    SourceConfig    `mapstructure:"source"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type CacheConfig struct {
	Capacity      int                      `mapstructure:"capacity"`
	DefaultTTL    time.Duration            `mapstructure:"default_ttl"`
	SweepInterval time.Duration            `mapstructure:"sweep_interval"`
	TTLOverrides  map[string]time.Duration `mapstructure:"ttl_overrides"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type SourceConfig struct {
	Backend   string `mapstructure:"backend"`
	DSN       string `mapstructure:"dsn"`
	RedisAddr string `mapstructure:"redis_addr"`
}

type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector host:port. Empty disables export.
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Capacity:      1000,
			DefaultTTL:    ttl.DefaultTTL,
			SweepInterval: time.Minute,
		},
		Log:     LogConfig{Level: "info", Format: "console"},
		Metrics: MetricsConfig{Addr: ":2112"},
		Source:  SourceConfig{Backend: BackendMemory},
		Telemetry: TelemetryConfig{
			SampleRate: 1,
		},
	}
}

// New returns a viper instance wired with defaults and environment lookup.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.default_ttl", d.Cache.DefaultTTL)
	v.SetDefault("cache.sweep_interval", d.Cache.SweepInterval)
	v.SetDefault("cache.ttl_overrides", map[string]string{})
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("source.backend", d.Source.Backend)
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.redis_addr", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
}

// Load reads file (when non-empty) into v, applies environment overrides and
// returns the validated configuration.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("config file %s not found: %w", file, err)
			}
			return Config{}, fmt.Errorf("failed to read config file at %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Source.Backend = strings.ToLower(cfg.Source.Backend)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var problems []string

	if c.Cache.Capacity <= 0 {
		problems = append(problems, "cache.capacity must be positive")
	}
	if c.Cache.DefaultTTL <= 0 {
		problems = append(problems, "cache.default_ttl must be positive")
	}
	if c.Cache.SweepInterval < 0 {
		problems = append(problems, "cache.sweep_interval must be non-negative")
	}
	for domain, d := range c.Cache.TTLOverrides {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("cache.ttl_overrides.%s must be positive", domain))
		}
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Source.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Source.DSN == "" {
			problems = append(problems, "source.dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Source.RedisAddr == "" {
			problems = append(problems, "source.redis_addr is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("source.backend must be memory, postgres or redis, got %q", c.Source.Backend))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate must be within [0, 1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Resolver builds the TTL resolver described by the cache section.
func (c CacheConfig) Resolver() *ttl.Resolver {
	return ttl.New(c.DefaultTTL, nil).WithOverrides(c.TTLOverrides)
}
