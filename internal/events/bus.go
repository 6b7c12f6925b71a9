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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// Metadata keys set on every message.
const (
	MetadataUserID    = "user_id"
	MetadataRequestID = "request_id"
)

// subscriberFactory returns the subscriber one router handler reads from.
// Each handler gets its own so NATS queue groups fan out per handler.
type subscriberFactory func(handler string) (message.Subscriber, error)

// Bus publishes events and hands subscribers to the Router.
type Bus struct {
	publisher     message.Publisher
	newSubscriber subscriberFactory
	closers       []func() error
	logger        watermill.LoggerAdapter
	backend       string

	mu     sync.RWMutex
	closed bool
}

// New creates a bus for cfg.Backend ("gochannel" or "nats").
func New(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	switch cfg.Backend {
	case "", "gochannel":
		return NewGoChannel(cfg.BufferSize, logger), nil
	case "nats":
		return newNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewGoChannel creates an in-process bus. Messages are lost on restart,
// which is acceptable for side effects that can be recomputed.
func NewGoChannel(buffer int64, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logger)
	// The router closes subscribers on shutdown; the shared pub/sub is
	// closed by the bus instead.
	shared := nopCloseSubscriber{pubsub}
	return &Bus{
		publisher:     pubsub,
		newSubscriber: func(string) (message.Subscriber, error) { return shared, nil },
		closers:       []func() error{pubsub.Close},
		logger:        logger,
		backend:       "gochannel",
	}
}

type nopCloseSubscriber struct {
	message.Subscriber
}

func (nopCloseSubscriber) Close() error { return nil }

// Backend names the transport in use.
func (b *Bus) Backend() string {
	return b.backend
}

// Publish encodes payload as JSON and publishes it to topic. The message
// carries the correlation ID from ctx, or a fresh one, so handler logs
// can be joined with the originating request.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	if userID := logging.UserIDFromContext(ctx); userID != "" {
		msg.Metadata.Set(MetadataUserID, userID)
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		msg.Metadata.Set(MetadataRequestID, requestID)
	}

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordEventPublished(topic)
	return nil
}

// PublishBestEffort publishes and only logs failures, so a broken
// transport never fails the request. It is synchronous: both transports
// only buffer the message (the gochannel buffer, or the nats.go outbound
// and reconnect buffers), so it does not wait on subscribers or the
// network.
func PublishBestEffort(ctx context.Context, pub Publisher, topic string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, payload); err != nil {
		logging.CtxErr(ctx, err).Str("topic", topic).Msg("failed to publish event")
	}
}

func (b *Bus) subscriber(handler string) (message.Subscriber, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.newSubscriber(handler)
}

// Close releases the transport. It is safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
