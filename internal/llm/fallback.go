// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"context"
	"errors"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Fallback sends requests to Primary and retries on Secondary when Primary
// fails without having produced output.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

// NewFallback chains two providers.
func NewFallback(primary, secondary Provider) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

// Name implements Provider.
func (f *Fallback) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f *Fallback) shouldFallback(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var cbErr *CallbackError
	return !errors.As(err, &cbErr) && !errors.Is(err, ErrNoMessages)
}

// Complete implements Provider.
func (f *Fallback) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := f.Primary.Complete(ctx, req)
	if !f.shouldFallback(ctx, err) {
		return resp, err
	}
	logging.Ctx(ctx).Warn().Err(err).
		Str("primary", f.Primary.Name()).
		Str("secondary", f.Secondary.Name()).
		Msg("primary LLM failed, using fallback")
	return f.Secondary.Complete(ctx, req)
}

// Stream implements Provider. Once a delta has reached fn the primary's
// error is returned as is, since the consumer already saw partial output.
func (f *Fallback) Stream(ctx context.Context, req Request, fn StreamFunc) (*Response, error) {
	emitted := false
	resp, err := f.Primary.Stream(ctx, req, func(c Chunk) error {
		emitted = true
		return fn(c)
	})
	if emitted || !f.shouldFallback(ctx, err) {
		return resp, err
	}
	logging.Ctx(ctx).Warn().Err(err).
		Str("primary", f.Primary.Name()).
		Str("secondary", f.Secondary.Name()).
		Msg("primary LLM stream failed before output, using fallback")
	return f.Secondary.Stream(ctx, req, fn)
}
