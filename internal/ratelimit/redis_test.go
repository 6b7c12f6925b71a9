// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, limit int) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedis(client, "qupid:chatlimit", limit, time.Minute)
	fixed := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	return r, mr
}

func TestRedis_Allow(t *testing.T) {
	r, mr := newTestRedis(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := r.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
	}

	d, err := r.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("third request should be denied")
	}

	want := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	if !d.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", d.ResetAt, want)
	}

	key := r.key("user-1", r.now().UnixNano()/int64(time.Minute))
	got, err := mr.Get(key)
	if err != nil {
		t.Fatalf("Get %s: %v", key, err)
	}
	if got != "2" {
		t.Errorf("stored count = %s, want 2 (denied requests rolled back)", got)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestRedis_WindowRollover(t *testing.T) {
	r, _ := newTestRedis(t, 1)
	ctx := context.Background()

	if d, _ := r.Allow(ctx, "k"); !d.Allowed {
		t.Fatal("first request denied")
	}
	if d, _ := r.Allow(ctx, "k"); d.Allowed {
		t.Fatal("second request allowed")
	}

	next := r.now().Add(time.Minute)
	r.now = func() time.Time { return next }
	if d, _ := r.Allow(ctx, "k"); !d.Allowed {
		t.Error("request in next window denied")
	}
}

func TestRedis_FailsOpen(t *testing.T) {
	r, mr := newTestRedis(t, 1)
	mr.Close()

	d, err := r.Allow(context.Background(), "k")
	if err == nil {
		t.Fatal("expected backend error")
	}
	if !d.Allowed {
		t.Error("limiter must allow requests when redis is unreachable")
	}
}
