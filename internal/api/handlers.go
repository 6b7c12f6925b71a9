// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/badges"
	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/coaching"
	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/growth"
	"github.com/big-teddy/Qupid-sub001/internal/notification"
	"github.com/big-teddy/Qupid-sub001/internal/onboarding"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	ws "github.com/big-teddy/Qupid-sub001/internal/websocket"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// Deps are the services behind the handlers.
type Deps struct {
	Config *config.Config
	Users  storage.UserStore
	// Personas is usually the cached store.
	Personas      storage.PersonaStore
	Chat          *chat.Service
	Coaching      *coaching.Service
	Onboarding    *onboarding.Service
	Growth        *growth.Service
	Badges        *badges.Service
	Notifications *notification.Service
	Hub           *ws.Hub
	// ReadyChecks run on /health/ready, keyed by component name.
	ReadyChecks map[string]ReadyCheck
	Version     string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files by resource:
//   - handlers_health.go: liveness and readiness
//   - handlers_users.go: profile, onboarding and tutorial script
//   - handlers_personas.go: persona reads and admin writes
//   - handlers_conversations.go: conversations and chat turns
//   - handlers_chat.go: raw completion proxy and realtime tips
//   - handlers_coaching.go: coaches and coaching sessions
//   - handlers_stats.go: growth stats, badges and notifications
//   - handlers_websocket.go: the push channel
type Handler struct {
	cfg           *config.Config
	users         storage.UserStore
	personas      storage.PersonaStore
	chat          *chat.Service
	coaching      *coaching.Service
	onboarding    *onboarding.Service
	growth        *growth.Service
	badges        *badges.Service
	notifications *notification.Service
	hub           *ws.Hub
	readyChecks   map[string]ReadyCheck
	version       string
	startTime     time.Time
}

// NewHandler creates a handler from d.
func NewHandler(d Deps) *Handler {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		cfg:           cfg,
		users:         d.Users,
		personas:      d.Personas,
		chat:          d.Chat,
		coaching:      d.Coaching,
		onboarding:    d.Onboarding,
		growth:        d.Growth,
		badges:        d.Badges,
		notifications: d.Notifications,
		hub:           d.Hub,
		readyChecks:   d.ReadyChecks,
		version:       version,
		startTime:     time.Now(),
	}
}
