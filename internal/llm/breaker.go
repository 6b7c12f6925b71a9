// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// BreakerConfig tunes a provider circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval resets closed-state counts; zero never resets.
	Interval time.Duration
	// Timeout is how long the circuit stays open.
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// Breaker wraps a Provider with a circuit breaker. Open or saturated
// circuits fail fast with ErrProviderUnavailable.
type Breaker struct {
	next Provider
	name string
	cb   *gobreaker.CircuitBreaker[*Response]
}

// NewBreaker wraps next.
func NewBreaker(next Provider, cfg BreakerConfig) *Breaker {
	name := "llm-" + next.Name()
	metrics.SetCircuitBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_ratio", ratio).
					Msg("opening LLM circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.SetCircuitBreakerState(name, stateValue(to))
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			return !IsProviderFault(err)
		},
	})

	return &Breaker{next: next, name: name, cb: cb}
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name implements Provider.
func (b *Breaker) Name() string { return b.next.Name() }

// State returns the current breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string { return b.cb.State().String() }

// Complete implements Provider.
func (b *Breaker) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		return b.next.Complete(ctx, req)
	})
	return resp, b.translate(err)
}

// Stream implements Provider.
func (b *Breaker) Stream(ctx context.Context, req Request, fn StreamFunc) (*Response, error) {
	resp, err := b.cb.Execute(func() (*Response, error) {
		return b.next.Stream(ctx, req, fn)
	})
	return resp, b.translate(err)
}

func (b *Breaker) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s circuit %s", ErrProviderUnavailable, b.next.Name(), b.cb.State())
	}
	return err
}
