// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/qupid/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          4000,
			Timeout:       30 * time.Second,
			StreamTimeout: 2 * time.Minute,
			Environment:   "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     false,
			SeedDefaults:    true,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Fallback: "",
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
			Temperature:       0.8,
			MaxTokens:         400,
			Timeout:           45 * time.Second,
			RequestsPerSecond: 10,
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				FailureRatio: 0.6,
				MinRequests:  5,
			},
		},
		Security: SecurityConfig{
			AuthMode:        "supabase",
			DevUserID:       "00000000-0000-0000-0000-000000000001",
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"http://localhost:5173", "capacitor://localhost"},
			TrustedProxies:  []string{},
		},
		ChatLimit: ChatLimitConfig{
			Backend:       "memory",
			Requests:      20,
			Window:        time.Minute,
			SweepInterval: 5 * time.Minute,
			RedisAddr:     "localhost:6379",
			KeyPrefix:     "qupid:chatlimit",
		},
		Events: EventsConfig{
			Backend:              "gochannel",
			NATSURL:              "nats://127.0.0.1:4222",
			QueueGroup:           "qupid-api",
			BufferSize:           256,
			RetryMax:             3,
			RetryInitialInterval: 200 * time.Millisecond,
			CloseTimeout:         10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			ReminderCron:        "0 0 19 * * *",
			InactivityThreshold: 48 * time.Hour,
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields splits comma separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Names follow the Express API's .env file so existing deployments keep working.
var envMappings = map[string]string{
	// Server
	"port":                "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"http_stream_timeout": "server.stream_timeout",
	"node_env":            "server.environment",
	"environment":         "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Database (Supabase Postgres)
	"database_driver":            "database.driver",
	"database_url":               "database.dsn",
	"supabase_db_url":            "database.dsn",
	"database_max_open_conns":    "database.max_open_conns",
	"database_max_idle_conns":    "database.max_idle_conns",
	"database_conn_max_lifetime": "database.conn_max_lifetime",
	"database_auto_migrate":      "database.auto_migrate",
	"database_seed_defaults":     "database.seed_defaults",

	// LLM
	"llm_provider":              "llm.provider",
	"llm_fallback_provider":     "llm.fallback",
	"openai_api_key":            "llm.openai.api_key",
	"openai_base_url":           "llm.openai.base_url",
	"openai_model":              "llm.openai.model",
	"gemini_api_key":            "llm.gemini.api_key",
	"gemini_model":              "llm.gemini.model",
	"llm_temperature":           "llm.temperature",
	"llm_max_tokens":            "llm.max_tokens",
	"llm_timeout":               "llm.timeout",
	"llm_requests_per_second":   "llm.requests_per_second",
	"llm_breaker_max_requests":  "llm.breaker.max_requests",
	"llm_breaker_interval":      "llm.breaker.interval",
	"llm_breaker_timeout":       "llm.breaker.timeout",
	"llm_breaker_failure_ratio": "llm.breaker.failure_ratio",
	"llm_breaker_min_requests":  "llm.breaker.min_requests",

	// Security
	"auth_mode":           "security.auth_mode",
	"supabase_jwt_secret": "security.jwt_secret",
	"jwt_secret":          "security.jwt_secret",
	"dev_user_id":         "security.dev_user_id",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",

	// Per-user chat limit
	"chat_limit_backend":        "chat_limit.backend",
	"chat_limit_requests":       "chat_limit.requests",
	"chat_limit_window":         "chat_limit.window",
	"chat_limit_sweep_interval": "chat_limit.sweep_interval",
	"redis_addr":                "chat_limit.redis_addr",
	"redis_password":            "chat_limit.redis_password",
	"redis_db":                  "chat_limit.redis_db",
	"chat_limit_key_prefix":     "chat_limit.key_prefix",

	// Events
	"events_backend":        "events.backend",
	"nats_url":              "events.nats_url",
	"nats_queue_group":      "events.queue_group",
	"events_buffer_size":    "events.buffer_size",
	"events_retry_max":      "events.retry_max",
	"events_retry_interval": "events.retry_initial_interval",
	"events_close_timeout":  "events.close_timeout",

	// Scheduler
	"scheduler_enabled":    "scheduler.enabled",
	"reminder_cron":        "scheduler.reminder_cron",
	"inactivity_threshold": "scheduler.inactivity_threshold",

	// Authorization
	"casbin_model_path":  "authz.model_path",
	"casbin_policy_path": "authz.policy_path",
}

// envTransformFunc returns "" for unmapped variables so koanf ignores them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
