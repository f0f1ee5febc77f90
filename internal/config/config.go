// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"5001"`
	FrontendURL string `env:"FRONTEND_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Groq   GroqConfig
	Tavily TavilyConfig

	// UpstreamTimeout bounds every call to the completion and search APIs.
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"sqlite"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	DBPath         string        `env:"DB_PATH" envDefault:"./data/sessions.db"`
	Redis          RedisConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimit          RateLimitConfig
}

// GroqConfig configures the OpenAI-compatible completion API.
type GroqConfig struct {
	APIKey  string `env:"GROQ_API_KEY"`
	BaseURL string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	Model   string `env:"GROQ_MODEL" envDefault:"llama-3.1-8b-instant"`
}

// TavilyConfig configures the web search API.
type TavilyConfig struct {
	APIKey  string `env:"TAVILY_API_KEY"`
	BaseURL string `env:"TAVILY_BASE_URL" envDefault:"https://api.tavily.com"`
}

// RedisConfig is used when SessionBackend is "redis".
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RateLimitConfig throttles chat requests per session.
type RateLimitConfig struct {
	PerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	Burst     int `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.Tavily.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, sqlite, redis; got %q", c.SessionBackend)
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
