// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

// countingService runs until canceled, failing the first fails times.
type countingService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTreeConfigDefaults(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{})
	if diff := cmp.Diff(DefaultTreeConfig(), tree.config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	custom := TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second}
	tree = NewTree(quietLogger(), custom)
	if tree.config.FailureThreshold != 2 || tree.config.FailureBackoff != time.Second || tree.config.FailureDecay != 30 {
		t.Errorf("unexpected config %+v", tree.config)
	}
}

func TestTreeRunsEveryLayer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tree := NewTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	data := &countingService{name: "persona-cache"}
	messaging := &countingService{name: "websocket-hub"}
	api := &countingService{name: "http-server"}
	tree.MustAdd(LayerData, data)
	tree.MustAdd(LayerMessaging, messaging)
	tree.MustAdd(LayerAPI, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return data.starts.Load() > 0 && messaging.starts.Load() > 0 && api.starts.Load() > 0
	})

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil || len(report) != 0 {
		t.Errorf("unstopped services: %v, %v", report, err)
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tree := NewTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := &countingService{name: "event-router", fails: 2}
	tree.MustAdd(LayerMessaging, flaky)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)
	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })
	cancel()
	<-done
}

func TestTreeAddUnknownLayer(t *testing.T) {
	tree := NewTree(quietLogger(), TreeConfig{})
	if _, err := tree.Add("storage-layer", &countingService{name: "x"}); err == nil {
		t.Error("expected error for unknown layer")
	}

	tree.MustAdd(LayerAPI, &countingService{name: "http-server"})
	tree.MustAdd(LayerData, &countingService{name: "persona-cache"})
	tree.MustAdd(LayerData, &countingService{name: "chat-limiter"})
	want := map[Layer][]string{
		LayerAPI:  {"http-server"},
		LayerData: {"persona-cache", "chat-limiter"},
	}
	if diff := cmp.Diff(want, tree.Services()); diff != "" {
		t.Errorf("services mismatch (-want +got):\n%s", diff)
	}
}
