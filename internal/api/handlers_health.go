// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	Components    map[string]string `json:"components,omitempty"`
	WebSocket     int               `json:"websocketClients"`
}

// Health handles liveness checks. It never touches dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	if h.hub != nil {
		status.WebSocket = h.hub.ClientCount()
	}
	WriteSuccess(w, r, status)
}

// HealthReady runs every readiness check with a short timeout and answers
// 503 when any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.readyChecks))
	for name := range h.readyChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		if err := h.readyChecks[name](ctx); err != nil {
			components[name] = "unavailable: " + err.Error()
			ready = false
			continue
		}
		components[name] = "ok"
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", components)
		return
	}
	rw.Success(HealthStatus{
		Status:        "ready",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Components:    components,
	})
}
