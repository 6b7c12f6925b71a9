// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()
	limiter := NewMemory(1, time.Minute)
	keyFunc := func(r *http.Request) string { return r.Header.Get("X-User") }

	var calls int
	h := Middleware(limiter, "chat", keyFunc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	do := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do("u1")
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("unexpected headers %v", first.Header())
	}
	if _, err := strconv.ParseInt(first.Header().Get("X-RateLimit-Reset"), 10, 64); err != nil {
		t.Errorf("X-RateLimit-Reset not a unix timestamp: %v", err)
	}

	second := do("u1")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	retry, err := strconv.Atoi(second.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Errorf("Retry-After = %q", second.Header().Get("Retry-After"))
	}

	if rec := do(""); rec.Code != http.StatusOK {
		t.Errorf("empty key should skip limiting, got %d", rec.Code)
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestMiddleware_CustomDenied(t *testing.T) {
	t.Parallel()
	limiter := NewMemory(0, time.Minute)
	denied := func(w http.ResponseWriter, r *http.Request, d Decision) {
		w.WriteHeader(http.StatusTeapot)
	}
	h := Middleware(limiter, "chat", func(*http.Request) string { return "k" }, denied)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}
