// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// RequestIDHeader is read from upstream proxies and echoed on responses.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// RequestID assigns a request ID (reusing a sane upstream one), stores it
// with a fresh correlation ID in the logging context and logs one access
// line when the handler returns.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		r = r.WithContext(ctx)

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		event := logging.Ctx(r.Context()).Info()
		if rec.statusCode >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", logging.SanitizeValue(r.URL.Path)).
			Int("status", rec.statusCode).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("request")
	})
}
