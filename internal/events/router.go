// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// HandlerFunc processes one event. Returning an error triggers a retry.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// Typed decodes the JSON payload into T before calling fn. Payloads that
// do not decode are dropped without retry since they can never succeed.
func Typed[T any](fn func(ctx context.Context, payload T) error) HandlerFunc {
	return func(ctx context.Context, msg *message.Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			logging.CtxErr(ctx, err).Str("message_uuid", msg.UUID).Msg("dropping undecodable event")
			return nil
		}
		return fn(ctx, payload)
	}
}

// RouterConfig tunes retries and shutdown.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// RouterConfigFrom maps the events config section onto RouterConfig.
func RouterConfigFrom(cfg config.EventsConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.CloseTimeout > 0 {
		rc.CloseTimeout = cfg.CloseTimeout
	}
	rc.RetryMaxRetries = cfg.RetryMax
	if cfg.RetryInitialInterval > 0 {
		rc.RetryInitialInterval = cfg.RetryInitialInterval
	}
	return rc
}

type route struct {
	name  string
	topic string
	fn    HandlerFunc
}

// Router delivers bus events to registered handlers. Handlers are added
// before Serve; each Serve call builds a fresh watermill router so the
// supervisor can restart it.
type Router struct {
	bus    *Bus
	cfg    RouterConfig
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	routes  []route
	names   map[string]bool
	running chan struct{}
}

// NewRouter creates a router reading from bus.
func NewRouter(bus *Bus, cfg RouterConfig, logger watermill.LoggerAdapter) *Router {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	return &Router{
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
		names:   make(map[string]bool),
		running: make(chan struct{}),
	}
}

// Handle registers fn for topic under a unique handler name.
func (r *Router) Handle(name, topic string, fn HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[name] {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.names[name] = true
	r.routes = append(r.routes, route{name: name, topic: topic, fn: fn})
	return nil
}

// Handlers returns the registered handler names in registration order.
func (r *Router) Handlers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.name
	}
	return out
}

// Running returns a channel closed once the current run subscribed to
// every topic.
func (r *Router) Running() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Serve runs the router until ctx is canceled. It implements suture.Service.
func (r *Router) Serve(ctx context.Context) error {
	wr, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.cfg.CloseTimeout}, r.logger)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}

	// Outermost first: drop after retries, recover panics, then retry.
	wr.AddMiddleware(r.dropFailures, middleware.Recoverer)
	if r.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      r.cfg.RetryMaxRetries,
			InitialInterval: r.cfg.RetryInitialInterval,
			MaxInterval:     r.cfg.RetryMaxInterval,
			Multiplier:      r.cfg.RetryMultiplier,
			Logger:          r.logger,
		}
		wr.AddMiddleware(retry.Middleware)
	}

	r.mu.Lock()
	routes := append([]route(nil), r.routes...)
	running := r.running
	r.mu.Unlock()

	var subs []message.Subscriber
	defer func() {
		for _, s := range subs {
			_ = s.Close()
		}
	}()
	for _, rt := range routes {
		sub, err := r.bus.subscriber(rt.name)
		if err != nil {
			return err
		}
		subs = append(subs, sub)
		wr.AddConsumerHandler(rt.name, rt.topic, sub, r.wrap(rt))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-wr.Running():
			close(running)
		case <-runCtx.Done():
		}
	}()
	go func() {
		<-runCtx.Done()
		_ = wr.Close()
	}()

	logging.Info().Int("handlers", len(routes)).Str("backend", r.bus.Backend()).Msg("event router starting")
	runErr := wr.Run(runCtx)

	r.mu.Lock()
	select {
	case <-running:
		r.running = make(chan struct{})
	default:
	}
	r.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("event router: %w", runErr)
	}
	return errors.New("event router stopped unexpectedly")
}

func (r *Router) String() string {
	return "event-router"
}

// wrap adapts a HandlerFunc to watermill, restoring the correlation ID
// into the context for logging.
func (r *Router) wrap(rt route) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := middleware.MessageCorrelationID(msg); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		}
		if userID := msg.Metadata.Get(MetadataUserID); userID != "" {
			ctx = logging.ContextWithUserID(ctx, userID)
		}
		err := rt.fn(ctx, msg)
		metrics.RecordEventHandled(rt.topic, rt.name, err)
		return err
	}
}

// dropFailures acks messages whose handler still fails after retries.
func (r *Router) dropFailures(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			logging.Error().Err(err).
				Str("handler", message.HandlerNameFromCtx(msg.Context())).
				Str("topic", message.SubscribeTopicFromCtx(msg.Context())).
				Str("correlation_id", middleware.MessageCorrelationID(msg)).
				Msg("event handler failed, dropping event")
			return nil, nil
		}
		return out, nil
	}
}
