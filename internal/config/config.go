// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package config loads and validates the Cinefill configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Cinefill server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Trakt     TraktConfig     `koanf:"trakt"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Store     StoreConfig     `koanf:"store"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout applies to request read/write and graceful shutdown.
	Timeout time.Duration `koanf:"timeout"`

	// SessionSecret signs the browser session token (HS256).
	SessionSecret string `koanf:"session_secret"`

	// SessionMaxAge bounds how long a browser session stays valid.
	SessionMaxAge time.Duration `koanf:"session_max_age"`

	// CORSOrigins lists the origins allowed by the CORS middleware.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs/RateLimitWindow bound requests per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// TraktConfig holds Trakt API credentials and endpoints.
type TraktConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri"`

	// BaseURL is overridable for testing against a stub server.
	BaseURL string `koanf:"base_url"`

	// AuthorizeURL is the browser-facing OAuth authorize endpoint.
	AuthorizeURL string `koanf:"authorize_url"`

	Timeout time.Duration `koanf:"timeout"`
}

// TMDBConfig holds TMDB API settings.
type TMDBConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit caps requests per second to stay inside TMDB quotas.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// GeminiConfig holds generative model API settings.
type GeminiConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`

	Temperature     float64 `koanf:"temperature"`
	TopK            int     `koanf:"top_k"`
	TopP            float64 `koanf:"top_p"`
	MaxOutputTokens int     `koanf:"max_output_tokens"`
}

// StoreConfig selects and configures the key-value store backing the
// history cache, OAuth tokens, and per-user generation configs.
type StoreConfig struct {
	// Backend is "redis" or "badger".
	Backend string `koanf:"backend"`

	// Namespace prefixes every key so one Redis instance can be shared
	// with unrelated deployments.
	Namespace string `koanf:"namespace"`

	RedisURL string `koanf:"redis_url"`

	// BadgerPath is the on-disk location for the embedded store.
	BadgerPath string `koanf:"badger_path"`

	// HistoryTTL bounds the lifetime of a cached history record.
	HistoryTTL time.Duration `koanf:"history_ttl"`

	// UserConfigTTL bounds the lifetime of a stored generation config.
	UserConfigTTL time.Duration `koanf:"user_config_ttl"`
}

// RecommendConfig tunes the generation retry/dedup engine.
type RecommendConfig struct {
	TargetCount     int     `koanf:"target_count"`
	MaxRetries      int     `koanf:"max_retries"`
	MinQualityScore float64 `koanf:"min_quality_score"`

	// HistoryPageSize is the Trakt history page size.
	HistoryPageSize int `koanf:"history_page_size"`

	// MaxFullPages / MaxIncrementalPages bound paginated history fetches.
	MaxFullPages        int `koanf:"max_full_pages"`
	MaxIncrementalPages int `koanf:"max_incremental_pages"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8454,
			Timeout:         30 * time.Second,
			SessionSecret:   "",
			SessionMaxAge:   24 * time.Hour,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Trakt: TraktConfig{
			ClientID:     "",
			ClientSecret: "",
			RedirectURI:  "",
			BaseURL:      "https://api.trakt.tv",
			AuthorizeURL: "https://trakt.tv/oauth/authorize",
			Timeout:      30 * time.Second,
		},
		TMDB: TMDBConfig{
			APIKey:    "",
			BaseURL:   "https://api.themoviedb.org/3",
			Timeout:   15 * time.Second,
			RateLimit: 4, // TMDB allows ~40 requests per 10 seconds
			RateBurst: 8,
		},
		Gemini: GeminiConfig{
			APIKey:          "",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Model:           "gemini-2.5-flash",
			Timeout:         30 * time.Second,
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
		Store: StoreConfig{
			Backend:       "badger",
			Namespace:     "cinefill",
			RedisURL:      "",
			BadgerPath:    "/data/cinefill",
			HistoryTTL:    7 * 24 * time.Hour,
			UserConfigTTL: 30 * 24 * time.Hour,
		},
		Recommend: RecommendConfig{
			TargetCount:         20,
			MaxRetries:          3,
			MinQualityScore:     5.0,
			HistoryPageSize:     100,
			MaxFullPages:        50,
			MaxIncrementalPages: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for invalid or inconsistent values.
// It is called by Load; call it directly when constructing a Config by hand.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Trakt.ClientID == "" {
		return fmt.Errorf("trakt.client_id is required")
	}
	if c.Trakt.ClientSecret == "" {
		return fmt.Errorf("trakt.client_secret is required")
	}
	if c.Trakt.BaseURL == "" {
		return fmt.Errorf("trakt.base_url is required")
	}

	if c.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if c.TMDB.RateLimit <= 0 {
		return fmt.Errorf("tmdb.rate_limit must be positive, got %f", c.TMDB.RateLimit)
	}

	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required")
	}
	if c.Gemini.Model == "" {
		return fmt.Errorf("gemini.model is required")
	}

	switch c.Store.Backend {
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required when store.backend is redis")
		}
	case "badger":
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("store.badger_path is required when store.backend is badger")
		}
	default:
		return fmt.Errorf("store.backend must be redis or badger, got %q", c.Store.Backend)
	}
	if c.Store.Namespace == "" {
		return fmt.Errorf("store.namespace is required")
	}
	if c.Store.HistoryTTL <= 0 {
		return fmt.Errorf("store.history_ttl must be positive, got %s", c.Store.HistoryTTL)
	}

	if c.Recommend.TargetCount < 1 {
		return fmt.Errorf("recommend.target_count must be at least 1, got %d", c.Recommend.TargetCount)
	}
	if c.Recommend.MaxRetries < 1 {
		return fmt.Errorf("recommend.max_retries must be at least 1, got %d", c.Recommend.MaxRetries)
	}
	if c.Recommend.MinQualityScore < 0 {
		return fmt.Errorf("recommend.min_quality_score must not be negative, got %f", c.Recommend.MinQualityScore)
	}
	if c.Recommend.HistoryPageSize < 1 {
		return fmt.Errorf("recommend.history_page_size must be at least 1, got %d", c.Recommend.HistoryPageSize)
	}

	return nil
}
