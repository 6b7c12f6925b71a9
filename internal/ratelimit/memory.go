// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

type window struct {
	start time.Time
	count int
}

// Memory is an in-process fixed-window limiter.
type Memory struct {
	limit         int
	window        time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// MemoryOption customizes a Memory limiter.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithSweepInterval sets how often Run removes expired windows.
// Defaults to the window length.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// NewMemory creates a limiter allowing limit requests per window per key.
func NewMemory(limit int, windowLen time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		limit:         limit,
		window:        windowLen,
		sweepInterval: windowLen,
		now:           time.Now,
		windows:       make(map[string]*window),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow implements Limiter. It never returns an error.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.window {
		w = &window{start: now}
		m.windows[key] = w
	}

	d := Decision{Limit: m.limit, ResetAt: w.start.Add(m.window)}
	if w.count >= m.limit {
		return d, nil
	}
	w.count++
	d.Allowed = true
	d.Remaining = m.limit - w.count
	return d, nil
}

// Sweep removes every window that has ended by now and returns how many
// were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if now.Sub(w.start) >= m.window {
			delete(m.windows, key)
			removed++
		}
	}
	metrics.RateLimitWindows.Set(float64(len(m.windows)))
	return removed
}

// Len returns the number of tracked windows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps on a ticker until ctx is canceled.
func (m *Memory) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				logging.Debug().Int("removed", n).Int("remaining", m.Len()).Msg("Swept expired rate limit windows")
			}
		}
	}
}

// Serve implements suture.Service.
func (m *Memory) Serve(ctx context.Context) error {
	return m.Run(ctx)
}

// String implements fmt.Stringer for suture logging.
func (m *Memory) String() string {
	return "chat-limit-sweeper"
}
