// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// minJWTSecretLength matches the length of Supabase generated JWT secrets.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateDatabase,
		c.validateLLM,
		c.validateSecurity,
		c.validateChatLimit,
		c.validateEvents,
		c.validateScheduler,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.StreamTimeout < c.Server.Timeout {
		return fmt.Errorf("HTTP_STREAM_TIMEOUT (%s) must not be shorter than HTTP_TIMEOUT (%s)",
			c.Server.StreamTimeout, c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, disabled, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "memory":
		return nil
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
		u, err := url.Parse(c.Database.DSN)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return fmt.Errorf("DATABASE_URL must be a postgres:// URL")
		}
		if c.Database.MaxOpenConns < 1 {
			return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be at least 1")
		}
		return nil
	default:
		return fmt.Errorf("DATABASE_DRIVER must be memory or postgres, got %q", c.Database.Driver)
	}
}

func (c *Config) validateLLM() error {
	if err := c.validateProvider(c.LLM.Provider, "LLM_PROVIDER"); err != nil {
		return err
	}
	if c.LLM.Fallback != "" {
		if c.LLM.Fallback == c.LLM.Provider {
			return fmt.Errorf("LLM_FALLBACK_PROVIDER must differ from LLM_PROVIDER")
		}
		if err := c.validateProvider(c.LLM.Fallback, "LLM_FALLBACK_PROVIDER"); err != nil {
			return err
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.LLM.Breaker.FailureRatio <= 0 || c.LLM.Breaker.FailureRatio > 1 {
		return fmt.Errorf("LLM_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateProvider(name, envVar string) error {
	switch name {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" && c.Server.IsProduction() {
			return fmt.Errorf("OPENAI_API_KEY is required when %s=openai", envVar)
		}
		if _, err := url.ParseRequestURI(c.LLM.OpenAI.BaseURL); err != nil {
			return fmt.Errorf("OPENAI_BASE_URL is invalid: %w", err)
		}
	case "gemini":
		if c.LLM.Gemini.APIKey == "" && c.Server.IsProduction() {
			return fmt.Errorf("GEMINI_API_KEY is required when %s=gemini", envVar)
		}
	default:
		return fmt.Errorf("%s must be openai or gemini, got %q", envVar, name)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "supabase":
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("SUPABASE_JWT_SECRET must be at least %d characters when AUTH_MODE=supabase", minJWTSecretLength)
		}
	case "none":
		if c.Server.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when NODE_ENV=production")
		}
		if c.Security.DevUserID == "" {
			return fmt.Errorf("DEV_USER_ID is required when AUTH_MODE=none")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be supabase or none, got %q", c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	for _, o := range c.Security.CORSOrigins {
		if o == "*" && c.Server.IsProduction() {
			return fmt.Errorf("CORS_ORIGINS must not contain * when NODE_ENV=production")
		}
	}
	return nil
}

func (c *Config) validateChatLimit() error {
	if c.ChatLimit.Requests < 1 {
		return fmt.Errorf("CHAT_LIMIT_REQUESTS must be positive")
	}
	if c.ChatLimit.Window <= 0 {
		return fmt.Errorf("CHAT_LIMIT_WINDOW must be positive")
	}
	switch c.ChatLimit.Backend {
	case "memory":
		if c.ChatLimit.SweepInterval <= 0 {
			return fmt.Errorf("CHAT_LIMIT_SWEEP_INTERVAL must be positive")
		}
	case "redis":
		if c.ChatLimit.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CHAT_LIMIT_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CHAT_LIMIT_BACKEND must be memory or redis, got %q", c.ChatLimit.Backend)
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "gochannel":
	case "nats":
		if !strings.HasPrefix(c.Events.NATSURL, "nats://") && !strings.HasPrefix(c.Events.NATSURL, "tls://") {
			return fmt.Errorf("NATS_URL must start with nats:// or tls://")
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be gochannel or nats, got %q", c.Events.Backend)
	}
	if c.Events.RetryMax < 0 {
		return fmt.Errorf("EVENTS_RETRY_MAX must not be negative")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	if len(strings.Fields(c.Scheduler.ReminderCron)) != 6 {
		return fmt.Errorf("REMINDER_CRON must have 6 fields (seconds first), got %q", c.Scheduler.ReminderCron)
	}
	if c.Scheduler.InactivityThreshold < 0 {
		return fmt.Errorf("INACTIVITY_THRESHOLD must not be negative")
	}
	return nil
}
