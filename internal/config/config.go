// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the complete service configuration, assembled once at startup.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Translator TranslatorConfig
	Target     TargetConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Env  string // "development" or "production"
}

// DatabaseConfig holds the Postgres settings for the migration history store.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the cache settings.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// TranslatorConfig selects and configures the SQL translation backend.
type TranslatorConfig struct {
	Backend string // "databricks" or "agent"
	Timeout time.Duration

	DatabricksHost  string
	DatabricksToken string
	DefaultModel    string

	AgentEndpoint string
	AgentToken    string
}

// TargetConfig holds the warehouse migrations are applied to.
type TargetConfig struct {
	URL     string // Postgres-protocol DSN; empty disables execution
	Catalog string
	Schema  string
}

// RateLimitConfig holds the fixed-window request limit per client address.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PORT", 8080),
			Env:  envString("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             envString("DATABASE_URL", ""),
			MaxConns:        envInt("DATABASE_MAX_CONNS", 10),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:      envString("REDIS_URL", ""),
			CacheTTL: envDuration("TRANSLATION_CACHE_TTL", 24*time.Hour),
		},
		Translator: TranslatorConfig{
			Backend:         envString("TRANSLATOR_BACKEND", "databricks"),
			Timeout:         envDuration("TRANSLATOR_TIMEOUT", 60*time.Second),
			DatabricksHost:  envString("DATABRICKS_HOST", ""),
			DatabricksToken: envString("DATABRICKS_TOKEN", ""),
			DefaultModel:    envString("DATABRICKS_MODEL", "databricks-llama-4-maverick"),
			AgentEndpoint:   envString("LLM_AGENT_ENDPOINT", ""),
			AgentToken:      envString("LLM_AGENT_TOKEN", ""),
		},
		Target: TargetConfig{
			URL:     envString("TARGET_WAREHOUSE_URL", ""),
			Catalog: envString("TARGET_CATALOG", "main"),
			Schema:  envString("TARGET_SCHEMA", "default"),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 120),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	switch c.Translator.Backend {
	case "databricks":
		if c.Translator.DatabricksHost == "" || c.Translator.DatabricksToken == "" {
			return fmt.Errorf("DATABRICKS_HOST and DATABRICKS_TOKEN are required for the databricks backend")
		}
	case "agent":
		if c.Translator.AgentEndpoint == "" {
			return fmt.Errorf("LLM_AGENT_ENDPOINT is required for the agent backend")
		}
	default:
		return fmt.Errorf("invalid TRANSLATOR_BACKEND: %q (must be databricks or agent)", c.Translator.Backend)
	}
	if c.Translator.Timeout <= 0 {
		return fmt.Errorf("TRANSLATOR_TIMEOUT must be positive")
	}
	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
