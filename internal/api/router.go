// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/authz"
	"github.com/big-teddy/Qupid-sub001/internal/middleware"
	"github.com/big-teddy/Qupid-sub001/internal/ratelimit"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
	authz         *authz.Middleware
	chatLimiter   ratelimit.Limiter
}

// NewRouter creates a router. chatLimiter may be nil to disable the
// per-user chat limit.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chatLimiter ratelimit.Limiter) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(handler.cfg.Security)),
		auth:          authMW,
		authz:         authzMW,
		chatLimiter:   chatLimiter,
	}
}

// ErrorHandler writes auth and authorization failures in the response
// envelope. Pass it to auth.NewMiddleware and authz.NewMiddleware.
func ErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err)
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", h.Health)
		r.Get("/health/ready", h.HealthReady)

		// Browsers cannot set headers on the WebSocket handshake.
		r.With(router.auth.AuthenticateQuery).Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(router.auth.Authenticate)
			chatLimit := router.chiMiddleware.ChatLimit(router.chatLimiter)

			r.Route("/users/me", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectUsers))
				r.Get("/", h.GetProfile)
				r.Put("/", h.UpdateProfile)
			})

			r.Route("/onboarding/survey", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectUsers))
				r.Get("/", h.SurveyQuestions)
				r.Post("/", h.SubmitSurvey)
			})
			r.Get("/tutorial/steps", h.TutorialSteps)

			r.Route("/personas", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectPersonas))
				r.With(middleware.Compression).Get("/", h.ListPersonas)
				r.Get("/recommended", h.RecommendedPersonas)
				r.Get("/{id}", h.GetPersona)
				r.Post("/", h.CreatePersona)
				r.Put("/{id}", h.UpdatePersona)
				r.Delete("/{id}", h.DeletePersona)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectConversations))
				r.Post("/", h.StartConversation)
				r.Get("/", h.ListConversations)
				r.Get("/{id}/messages", h.ConversationMessages)
				r.With(chatLimit).Post("/{id}/messages", h.SendMessage)
				r.With(chatLimit).Post("/{id}/messages/stream", h.StreamMessage)
				r.Post("/{id}/end", h.EndConversation)
				r.Get("/{id}/quick-replies", h.QuickReplies)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectChat))
				r.Use(chatLimit)
				r.Post("/completions", h.Completions)
				r.Post("/completions/stream", h.StreamCompletions)
			})
			r.With(router.authz.RequireMethod(authz.ObjectChat), chatLimit).
				Post("/feedback/realtime", h.RealtimeTip)

			r.Route("/coaching", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectCoaching))
				r.Get("/coaches", h.ListCoaches)
				r.Post("/sessions", h.StartSession)
				r.Get("/sessions", h.ListSessions)
				r.Get("/sessions/{id}", h.GetSession)
				r.With(chatLimit).Post("/sessions/{id}/messages", h.SessionMessage)
				r.Post("/sessions/{id}/end", h.EndSession)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectStats))
				r.Use(middleware.Compression)
				r.Get("/stats/growth", h.GrowthStats)
				r.Get("/stats/weekly", h.WeeklyStats)
				r.Get("/badges", h.Badges)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Use(router.authz.RequireMethod(authz.ObjectNotifications))
				r.Get("/", h.Notifications)
				r.Get("/unread-count", h.UnreadCount)
				r.Post("/{id}/read", h.MarkNotificationRead)
				r.Post("/read-all", h.MarkAllNotificationsRead)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}
