// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads strata configuration with viper.
// Priority: environment variables (STRATA_ prefix) > explicit file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the strata engine.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Costs    CostsConfig    `mapstructure:"costs"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig selects the driver and connection.
type DatabaseConfig struct {
	// Driver is one of pg, mysql, sqlite, mssql
	Driver string `mapstructure:"driver"`

	// DSN is the driver connection string (file path for sqlite)
	DSN string `mapstructure:"dsn"`
}

// LLMConfig configures the generation provider.
type LLMConfig struct {
	// Provider is one of anthropic, openai, cohere, mistral, google
	Provider string `mapstructure:"provider"`

	// Model overrides the provider default
	Model string `mapstructure:"model"`

	// APIKey overrides the provider env var
	APIKey string `mapstructure:"api_key"`

	// MaxTokens caps generation output (default: 2048)
	MaxTokens int `mapstructure:"max_tokens"`
}

// CacheConfig configures the two cache tiers.
type CacheConfig struct {
	L1 L1Config `mapstructure:"l1"`
	L2 L2Config `mapstructure:"l2"`
}

// L1Config configures the exact cache.
type L1Config struct {
	// Enabled turns the exact tier on (default: true)
	Enabled bool `mapstructure:"enabled"`

	// MaxSize caps in-memory entries (default: 1000)
	MaxSize int `mapstructure:"max_size"`

	// RedisURL switches to the Redis-backed store when set
	RedisURL string `mapstructure:"redis_url"`

	// TTL is the sliding expiration of Redis entries (default: 24h)
	TTL time.Duration `mapstructure:"ttl"`
}

// L2Config configures the semantic cache.
type L2Config struct {
	// Enabled turns the semantic tier on (default: false)
	Enabled bool `mapstructure:"enabled"`

	// Provider is the embedding provider (openai, cohere, mistral, google)
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default embedding model
	Model string `mapstructure:"model"`

	// APIKey overrides the provider env var (falls back to llm.api_key
	// when the providers match)
	APIKey string `mapstructure:"api_key"`

	// MaxSize caps semantic entries (default: 500)
	MaxSize int `mapstructure:"max_size"`

	// Threshold is the minimum cosine similarity (default: 0.85)
	Threshold float64 `mapstructure:"threshold"`
}

// LimitsConfig bounds query shapes.
type LimitsConfig struct {
	// MaxQueryLength bounds raw input text (default: 500)
	MaxQueryLength int `mapstructure:"max_query_length"`

	// DefaultLimit is applied when an intent has no limit (default: 100)
	DefaultLimit int `mapstructure:"default_limit"`

	// MaxLimit caps any requested limit (default: 1000)
	MaxLimit int `mapstructure:"max_limit"`
}

// CostsConfig carries the per-layer dollar estimates.
type CostsConfig struct {
	// L1Hit is the cost of an exact-cache hit (default: 0)
	L1Hit float64 `mapstructure:"l1_hit"`

	// Embed is the cost of one embedding call (default: 0.0001)
	Embed float64 `mapstructure:"embed"`

	// Generate is the cost of one generation (default: 0.01)
	Generate float64 `mapstructure:"generate"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `mapstructure:"level"`

	// Format is console or json (default: console)
	Format string `mapstructure:"format"`
}

// setDefaults registers every default on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 2048)

	v.SetDefault("cache.l1.enabled", true)
	v.SetDefault("cache.l1.max_size", 1000)
	v.SetDefault("cache.l1.ttl", 24*time.Hour)

	v.SetDefault("cache.l2.enabled", false)
	v.SetDefault("cache.l2.max_size", 500)
	v.SetDefault("cache.l2.threshold", 0.85)

	v.SetDefault("limits.max_query_length", 500)
	v.SetDefault("limits.default_limit", 100)
	v.SetDefault("limits.max_limit", 1000)

	v.SetDefault("costs.l1_hit", 0.0)
	v.SetDefault("costs.embed", 0.0001)
	v.SetDefault("costs.generate", 0.01)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration from the optional file path plus STRATA_*
// environment variables and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints a typo would break.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "pg", "mysql", "sqlite", "mssql":
	case "":
		return fmt.Errorf("database.driver is required")
	default:
		return fmt.Errorf("unknown database.driver %q (expected pg, mysql, sqlite, or mssql)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	switch c.LLM.Provider {
	case "anthropic", "openai", "cohere", "mistral", "google":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}

	if c.Cache.L2.Enabled && c.Cache.L2.Provider == "" {
		return fmt.Errorf("cache.l2.provider is required when the semantic cache is enabled")
	}
	if t := c.Cache.L2.Threshold; t <= 0 || t > 1 {
		return fmt.Errorf("cache.l2.threshold must be in (0, 1], got %v", t)
	}
	return nil
}
