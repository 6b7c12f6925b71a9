// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package ratelimit implements the per-user fixed-window limit applied to
// LLM backed endpoints.
//
// Two backends share the Limiter interface:
//   - Memory: a mutex guarded map of windows, swept periodically so keys
//     from users who stopped chatting do not accumulate
//   - Redis: INCR plus EXPIRE NX on a key per window index, for
//     multi-replica deployments
//
// Requests rejected by a limiter are not counted against the window.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrLimited is returned by callers that surface a denied Decision as an error.
var ErrLimited = errors.New("rate limit exceeded")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long a denied caller should wait, rounded up to
// whole seconds and never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return ((wait + time.Second - 1) / time.Second) * time.Second
}

// Limiter decides whether a request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
