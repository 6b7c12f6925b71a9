// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Redis is a fixed-window limiter shared across API replicas.
//
// Each window is a counter keyed prefix:key:index where index is the
// window number since the Unix epoch, so all replicas agree on window
// boundaries without coordination.
type Redis struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis creates a Redis backed limiter.
func NewRedis(client redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *Redis) key(key string, index int64) string {
	return r.prefix + ":" + key + ":" + strconv.FormatInt(index, 10)
}

// Allow implements Limiter. When Redis is unreachable the request is
// allowed and the error is logged and returned alongside the Decision.
func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	index := now.UnixNano() / int64(r.window)
	resetAt := time.Unix(0, (index+1)*int64(r.window))
	k := r.key(key, index)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, r.window)
		return nil
	})
	if err != nil {
		logging.CtxErr(ctx, err).Str("key", logging.SanitizeValue(key)).Msg("Rate limit backend unavailable, allowing request")
		return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit, ResetAt: resetAt},
			fmt.Errorf("redis rate limit: %w", err)
	}

	count := int(incr.Val())
	d := Decision{Limit: r.limit, ResetAt: resetAt}
	if count > r.limit {
		// Undo so rejected requests do not extend the count.
		if err := r.client.Decr(ctx, k).Err(); err != nil {
			logging.CtxErr(ctx, err).Msg("Failed to roll back rejected rate limit hit")
		}
		return d, nil
	}
	d.Allowed = true
	d.Remaining = r.limit - count
	return d, nil
}
