// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/newsgpt/newsapi"
)

// Cache backends accepted in NEWS_CACHE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	News  NewsConfig
	Cache CacheConfig
	Redis RedisConfig
	Warm  WarmConfig

	DatabaseURL string `env:"DATABASE_URL"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// NewsConfig holds provider settings
type NewsConfig struct {
	APIKey  string        `env:"NEWS_API_KEY"`
	BaseURL string        `env:"NEWS_BASE_URL" envDefault:"https://newsapi.org/v2"`
	Timeout time.Duration `env:"NEWS_TIMEOUT" envDefault:"10s"`
}

// CacheConfig selects and tunes the response cache
type CacheConfig struct {
	TTLSeconds int    `env:"NEWS_CACHE_TTL" envDefault:"300"`
	Backend    string `env:"NEWS_CACHE_BACKEND" envDefault:"memory"`
	// Dir is only used by the file backend; empty means the XDG cache dir.
	Dir string `env:"NEWS_CACHE_DIR"`
}

// RedisConfig is shared by the redis cache backend and the job queue
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// WarmConfig drives the worker's scheduled jobs
type WarmConfig struct {
	Countries     []string `env:"WARM_COUNTRIES" envDefault:"us" envSeparator:","`
	Schedule      string   `env:"WARM_SCHEDULE" envDefault:"@every 5m"`
	PurgeSchedule string   `env:"PURGE_SCHEDULE" envDefault:"@every 1h"`
}

// Load reads configuration from the process environment and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, newsapi.ConfigurationError("failed to parse environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom is Load over an explicit variable set instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, newsapi.ConfigurationError("failed to parse environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CacheTTL returns the configured entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Addr returns the listen address for the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks every setting; all failures are configuration errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.News.APIKey) == "" {
		return newsapi.ConfigurationError("NEWS_API_KEY is required", nil)
	}
	u, err := url.Parse(c.News.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return newsapi.ConfigurationError(fmt.Sprintf("NEWS_BASE_URL %q is not an http(s) URL", c.News.BaseURL), nil)
	}
	if c.News.Timeout <= 0 {
		return newsapi.ConfigurationError("NEWS_TIMEOUT must be positive", nil)
	}
	if c.Cache.TTLSeconds <= 0 {
		return newsapi.ConfigurationError(fmt.Sprintf("NEWS_CACHE_TTL must be positive, got %d", c.Cache.TTLSeconds), nil)
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return newsapi.ConfigurationError("REDIS_ADDR is required for the redis cache backend", nil)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return newsapi.ConfigurationError("DATABASE_URL is required for the postgres cache backend", nil)
		}
	default:
		return newsapi.ConfigurationError(fmt.Sprintf("unknown NEWS_CACHE_BACKEND %q", c.Cache.Backend), nil)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return newsapi.ConfigurationError(fmt.Sprintf("PORT out of range: %d", c.Port), nil)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return newsapi.ConfigurationError(fmt.Sprintf("invalid LOG_LEVEL %q", c.LogLevel), err)
	}
	return nil
}
