// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package config loads Qupid API configuration from defaults, an optional
// YAML file and environment variables (highest priority).
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	LLM       LLMConfig       `koanf:"llm"`
	Security  SecurityConfig  `koanf:"security"`
	ChatLimit ChatLimitConfig `koanf:"chat_limit"`
	Events    EventsConfig    `koanf:"events"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Authz     AuthzConfig     `koanf:"authz"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
	// StreamTimeout bounds SSE chat responses, which outlive Timeout.
	StreamTimeout time.Duration `koanf:"stream_timeout"`
	Environment   string        `koanf:"environment"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// Driver is "memory" or "postgres".
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	SeedDefaults    bool          `koanf:"seed_defaults"`
}

// LLMConfig configures the completion providers.
type LLMConfig struct {
	// Provider is the primary provider: "openai" or "gemini".
	Provider string `koanf:"provider"`
	// Fallback is tried when the primary fails before producing output. Empty disables it.
	Fallback          string        `koanf:"fallback"`
	OpenAI            OpenAIConfig  `koanf:"openai"`
	Gemini            GeminiConfig  `koanf:"gemini"`
	Temperature       float64       `koanf:"temperature"`
	MaxTokens         int           `koanf:"max_tokens"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Breaker           BreakerConfig `koanf:"breaker"`
}

// OpenAIConfig holds OpenAI credentials.
type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

// GeminiConfig holds Gemini credentials.
type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	FailureRatio float64       `koanf:"failure_ratio"`
	MinRequests  uint32        `koanf:"min_requests"`
}

// SecurityConfig configures authentication, CORS and per-IP limiting.
type SecurityConfig struct {
	// AuthMode is "supabase" (verify Supabase JWTs) or "none" (local development).
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	DevUserID         string        `koanf:"dev_user_id"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// ChatLimitConfig configures the per-user fixed-window limit on LLM backed
// endpoints.
type ChatLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend       string        `koanf:"backend"`
	Requests      int           `koanf:"requests"`
	Window        time.Duration `koanf:"window"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	KeyPrefix     string        `koanf:"key_prefix"`
}

// EventsConfig configures the side-effect event bus.
type EventsConfig struct {
	// Backend is "gochannel" (in process) or "nats".
	Backend              string        `koanf:"backend"`
	NATSURL              string        `koanf:"nats_url"`
	QueueGroup           string        `koanf:"queue_group"`
	BufferSize           int64         `koanf:"buffer_size"`
	RetryMax             int           `koanf:"retry_max"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// SchedulerConfig configures background jobs.
type SchedulerConfig struct {
	Enabled             bool          `koanf:"enabled"`
	ReminderCron        string        `koanf:"reminder_cron"`
	InactivityThreshold time.Duration `koanf:"inactivity_threshold"`
}

// AuthzConfig points at optional Casbin model/policy overrides.
type AuthzConfig struct {
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// Load loads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether production-only checks apply.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
