// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/big-teddy/Qupid-sub001/internal/ratelimit"
	"github.com/big-teddy/Qupid-sub001/internal/testinfra"
)

func TestRedisLimiterIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, rc)

	client := redis.NewClient(&redis.Options{Addr: rc.Addr})
	defer client.Close()

	// Two replicas sharing one Redis enforce a single budget.
	a := ratelimit.NewRedis(client, "it:chat", 3, time.Minute)
	b := ratelimit.NewRedis(client, "it:chat", 3, time.Minute)

	// Stay inside one fixed window.
	if untilNext := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute)); untilNext < 5*time.Second {
		time.Sleep(untilNext)
	}

	allowed := 0
	for i := 0; i < 6; i++ {
		l := a
		if i%2 == 1 {
			l = b
		}
		d, err := l.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if d.Allowed {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("allowed %d requests across replicas, want 3", allowed)
	}

	keys, err := client.Keys(ctx, "it:chat:*").Result()
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range keys {
		ttl, err := client.TTL(ctx, k).Result()
		if err != nil || ttl <= 0 {
			t.Errorf("key %s has no expiry (ttl=%v, err=%v)", k, ttl, err)
		}
	}
}
