// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// KeyFunc extracts the limiter key from a request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// DeniedFunc writes the response for a rejected request.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, d Decision)

// Middleware enforces limiter on every request keyed by keyFunc.
//
// Headers X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// (Unix seconds) are set on every limited route. Denied requests get
// Retry-After and are passed to denied, or a plain 429 when denied is nil.
func Middleware(limiter Limiter, name string, keyFunc KeyFunc, denied DeniedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logging.CtxErr(r.Context(), err).Str("limiter", name).Msg("Rate limiter error")
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				metrics.RecordRateLimitHit(name)
				retry := d.RetryAfter(time.Now())
				h.Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				if denied != nil {
					denied(w, r, d)
					return
				}
				http.Error(w, ErrLimited.Error(), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
