// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"context"
	"fmt"

	"github.com/big-teddy/Qupid-sub001/internal/config"
)

// New builds the provider chain described by cfg: the primary provider
// behind a breaker, optionally followed by a fallback behind its own breaker.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	primary, err := newProvider(ctx, cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	bc := BreakerConfig{
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
	}
	var chain Provider = NewBreaker(primary, bc)

	if cfg.Fallback != "" {
		secondary, err := newProvider(ctx, cfg.Fallback, cfg)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		chain = NewFallback(chain, NewBreaker(secondary, bc))
	}
	return chain, nil
}

func newProvider(ctx context.Context, name string, cfg config.LLMConfig) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:            cfg.OpenAI.APIKey,
			BaseURL:           cfg.OpenAI.BaseURL,
			Model:             cfg.OpenAI.Model,
			Temperature:       cfg.Temperature,
			MaxTokens:         cfg.MaxTokens,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "gemini":
		return NewGemini(ctx, GeminiConfig{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			Temperature:       cfg.Temperature,
			MaxTokens:         cfg.MaxTokens,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderUnavailable, name)
	}
}
