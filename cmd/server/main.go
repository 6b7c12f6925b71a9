// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/analysis"
	"github.com/big-teddy/Qupid-sub001/internal/api"
	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/authz"
	"github.com/big-teddy/Qupid-sub001/internal/badges"
	"github.com/big-teddy/Qupid-sub001/internal/cache"
	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/coaching"
	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/events/handlers"
	"github.com/big-teddy/Qupid-sub001/internal/growth"
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/notification"
	"github.com/big-teddy/Qupid-sub001/internal/onboarding"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/scheduler"
	"github.com/big-teddy/Qupid-sub001/internal/supervisor"
	"github.com/big-teddy/Qupid-sub001/internal/supervisor/services"
	ws "github.com/big-teddy/Qupid-sub001/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// personaCacheTTL bounds how stale a persona read can be on a replica
// that did not perform the write.
const personaCacheTTL = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("database", cfg.Database.Driver).
		Str("llm_provider", cfg.LLM.Provider).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Qupid API")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === STORAGE ===
	stores, err := openStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	// === LLM ===
	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	logging.Info().Str("provider", provider.Name()).Msg("LLM provider initialized")

	// === EVENTS ===
	wmLogger := logging.NewWatermillLogger()
	bus, err := events.New(cfg.Events, wmLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	logging.Info().Str("backend", bus.Backend()).Msg("Event bus initialized")

	// === SERVICES ===
	personas := cache.NewPersonaStore(stores.Personas, personaCacheTTL)
	stores.Personas = personas

	hub := ws.NewHub()
	analyzer := analysis.New(provider, prompt.NewBuilder())
	chatSvc := chat.NewService(stores, provider, analyzer, bus)
	coachingSvc := coaching.NewService(stores, chatSvc, analyzer, bus)
	onboardingSvc := onboarding.NewService(stores.Users, stores.Surveys, personas, bus)
	growthSvc := growth.NewService(stores.Stats)
	badgeSvc := badges.NewService(stores.Badges, stores.Stats, stores.Users, bus)
	notifySvc := notification.NewService(stores.Notifications, hub)

	router := events.NewRouter(bus, events.RouterConfigFrom(cfg.Events), wmLogger)
	if err := handlers.Register(router, handlers.Deps{
		Growth:        growthSvc,
		Badges:        badgeSvc,
		Notifications: notifySvc,
		Pusher:        hub,
	}); err != nil {
		return err
	}

	limiter, err := newChatLimiter(ctx, cfg.ChatLimit)
	if err != nil {
		return err
	}
	defer limiter.close()

	// === HTTP ===
	handler := api.NewHandler(api.Deps{
		Config:        cfg,
		Users:         stores.Users,
		Personas:      personas,
		Chat:          chatSvc,
		Coaching:      coachingSvc,
		Onboarding:    onboardingSvc,
		Growth:        growthSvc,
		Badges:        badgeSvc,
		Notifications: notifySvc,
		Hub:           hub,
		ReadyChecks: map[string]api.ReadyCheck{
			"storage": stores.Ping,
		},
		Version: version,
	})

	authMW, err := auth.NewMiddleware(cfg.Security, api.ErrorHandler)
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer(cfg.Authz)
	if err != nil {
		return err
	}
	apiRouter := api.NewRouter(handler, authMW, authz.NewMiddleware(enforcer, api.ErrorHandler), limiter.Limiter)

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: apiRouter.Setup(),
		// WriteTimeout must outlast StreamTimeout or replies are cut mid-stream.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.StreamTimeout + cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.MustAdd(supervisor.LayerData, personas)
	if limiter.sweeper != nil {
		tree.MustAdd(supervisor.LayerData, limiter.sweeper)
	}

	tree.MustAdd(supervisor.LayerMessaging, hub)
	tree.MustAdd(supervisor.LayerMessaging, router)
	if cfg.Scheduler.Enabled {
		reminders := scheduler.NewReminderJob(stores.Users, notifySvc, cfg.Scheduler.InactivityThreshold)
		sched, err := scheduler.FromConfig(cfg.Scheduler, reminders)
		if err != nil {
			return err
		}
		tree.MustAdd(supervisor.LayerMessaging, sched)
		logging.Info().Strs("jobs", sched.Jobs()).Msg("Scheduler enabled")
	}

	tree.MustAdd(supervisor.LayerAPI, services.NewHTTPServerService(server, services.DefaultShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	return nil
}
