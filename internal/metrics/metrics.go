// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to expose them. Record* helpers keep label
// values consistent across call sites.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qupid_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qupid_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_rate_limit_hits_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// LLM

	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_llm_requests_total",
			Help: "Total number of LLM provider calls",
		},
		[]string{"provider", "mode", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qupid_llm_request_duration_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"provider", "mode"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_llm_tokens_total",
			Help: "Total number of tokens reported by LLM providers",
		},
		[]string{"provider", "kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qupid_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Events

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_events_handled_total",
			Help: "Total number of events handled successfully",
		},
		[]string{"topic", "handler"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_events_failed_total",
			Help: "Total number of event handler failures (before retries)",
		},
		[]string{"topic", "handler"},
	)

	// WebSocket

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qupid_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qupid_websocket_messages_dropped_total",
			Help: "Messages dropped because a client send buffer was full",
		},
	)

	// Domain

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_chat_messages_total",
			Help: "Total number of chat messages exchanged",
		},
		[]string{"kind", "sender"},
	)

	CoachingSessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qupid_coaching_sessions_completed_total",
			Help: "Total number of completed coaching sessions",
		},
		[]string{"feedback"},
	)

	RateLimitWindows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qupid_rate_limit_windows",
			Help: "Live fixed windows held by the in-memory chat limiter",
		},
	)

	ReminderNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qupid_reminder_notifications_total",
			Help: "Total number of inactivity reminders sent",
		},
	)
)

// RecordAPIRequest records a finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge up or down.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts one rejected request for the named limiter.
func RecordRateLimitHit(limiter string) {
	RateLimitHits.WithLabelValues(limiter).Inc()
}

// RecordLLMRequest records one provider call. mode is "complete" or
// "stream"; a nil err counts as "success".
func RecordLLMRequest(provider, mode string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	LLMRequestsTotal.WithLabelValues(provider, mode, outcome).Inc()
	LLMRequestDuration.WithLabelValues(provider, mode).Observe(duration.Seconds())
}

// RecordLLMTokens adds reported token usage.
func RecordLLMTokens(provider string, prompt, completion int) {
	if prompt > 0 {
		LLMTokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		LLMTokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
	}
}

// SetCircuitBreakerState exports a breaker state as 0, 1 or 2.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTransition counts a state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordEventPublished counts a published event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventHandled counts a handler attempt by outcome.
func RecordEventHandled(topic, handler string, err error) {
	if err != nil {
		EventsFailed.WithLabelValues(topic, handler).Inc()
		return
	}
	EventsHandled.WithLabelValues(topic, handler).Inc()
}

// RecordChatMessage counts a persisted chat message.
func RecordChatMessage(kind, sender string) {
	ChatMessages.WithLabelValues(kind, sender).Inc()
}

// RecordCoachingCompleted counts a completed session. fallback reports
// whether neutral scores were used.
func RecordCoachingCompleted(fallback bool) {
	label := "parsed"
	if fallback {
		label = "fallback"
	}
	CoachingSessionsCompleted.WithLabelValues(label).Inc()
}
