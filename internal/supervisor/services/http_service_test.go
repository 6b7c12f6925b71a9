// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
	"go.uber.org/goleak"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stop        chan struct{}
	shutdowns   atomic.Int32
	closes      atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 1), stop: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	if errors.Is(f.shutdownErr, context.DeadlineExceeded) {
		// A stream is still open; only Close ends it.
		return f.shutdownErr
	}
	close(f.stop)
	return f.shutdownErr
}

func (f *fakeServer) Close() error {
	f.closes.Add(1)
	close(f.stop)
	return nil
}

func serveUntilCanceled(t *testing.T, svc *HTTPServerService, started <-chan struct{}) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
	cancel()

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
		return nil
	}
}

func TestNewHTTPServerServiceDefaults(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		svc := NewHTTPServerService(newFakeServer(), timeout)
		if svc.shutdownTimeout != DefaultShutdownTimeout {
			t.Errorf("timeout %v: got %v, want default", timeout, svc.shutdownTimeout)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), time.Second).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newFakeServer()
	err := serveUntilCanceled(t, NewHTTPServerService(server, time.Second), server.started)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if server.shutdowns.Load() != 1 || server.closes.Load() != 0 {
		t.Errorf("shutdowns=%d closes=%d", server.shutdowns.Load(), server.closes.Load())
	}
}

func TestHTTPServerServiceForceClosesAfterTimeout(t *testing.T) {
	server := newFakeServer()
	server.shutdownErr = context.DeadlineExceeded
	err := serveUntilCanceled(t, NewHTTPServerService(server, 10*time.Millisecond), server.started)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if server.closes.Load() != 1 {
		t.Errorf("Close called %d times, want 1", server.closes.Load())
	}
}

func TestHTTPServerServiceShutdownError(t *testing.T) {
	server := newFakeServer()
	server.shutdownErr = errors.New("listener busy")
	err := serveUntilCanceled(t, NewHTTPServerService(server, time.Second), server.started)
	if err == nil || !errors.Is(err, server.shutdownErr) {
		t.Errorf("got %v, want shutdown error", err)
	}
}

func TestHTTPServerServiceListenError(t *testing.T) {
	server := newFakeServer()
	server.listenErr = errors.New("bind: address already in use")
	err := NewHTTPServerService(server, time.Second).Serve(context.Background())
	if !errors.Is(err, server.listenErr) {
		t.Errorf("got %v, want listen error", err)
	}
}

func TestHTTPServerServiceRealServer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Get("http://" + addr + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	client.CloseIdleConnections()

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
