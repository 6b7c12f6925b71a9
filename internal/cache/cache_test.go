// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()
	c := New[string](time.Minute)

	c.Set("key1", "value1")
	got, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected to find key1")
	}
	if got != "value1" {
		t.Errorf("expected value1, got %s", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for missing key")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if rate := c.HitRate(); rate != 50 {
		t.Errorf("expected 50%% hit rate, got %.1f", rate)
	}
}

func TestCacheExpiration(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	c := New[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.SetWithTTL("b", 2, time.Hour)

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be expired")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("expected b=2, got %d (found=%v)", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected expired entry removed on read, len=%d", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()
	c := New[string](time.Minute)
	c.Set("k", "v")
	c.Delete("k")
	c.Delete("never-set")

	if _, ok := c.Get("k"); ok {
		t.Error("expected k to be deleted")
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("expected 1 eviction, got %d", ev)
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()
	c := New[int](time.Minute)
	for i, k := range []string{"a", "b", "c"} {
		c.Set(k, i)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", c.Len())
	}
	if s := c.Stats(); s.TotalKeys != 0 || s.Evictions != 3 {
		t.Errorf("unexpected stats after clear: %+v", s)
	}
}

func TestCacheCleanup(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	c := New[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)
	now = now.Add(5 * time.Minute)

	if removed := c.Cleanup(); removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", c.Len())
	}
	if !c.Stats().LastCleanup.Equal(now) {
		t.Errorf("LastCleanup not recorded")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := GenerateKey("k", i%5)
			c.Set(key, i)
			c.Get(key)
			if i%10 == 0 {
				c.Delete(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 5 {
		t.Errorf("expected at most 5 keys, got %d", c.Len())
	}
}

func TestCacheRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := New[int](time.Millisecond)
	c.Set("x", 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("expected expired entry to be swept")
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	type filter struct{ Gender, MBTI string }

	a := GenerateKey("personas", filter{Gender: "female"})
	b := GenerateKey("personas", filter{Gender: "female"})
	c := GenerateKey("personas", filter{Gender: "male"})

	if a != b {
		t.Error("expected identical params to produce identical keys")
	}
	if a == c {
		t.Error("expected different params to produce different keys")
	}
	if len(a) != len("personas:")+32 {
		t.Errorf("unexpected key length %d", len(a))
	}
}
