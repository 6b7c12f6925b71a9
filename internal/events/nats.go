// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/big-teddy/Qupid-sub001/internal/config"
)

// natsOptions returns connection options with reconnect logging.
func natsOptions(name string, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"client": name})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"client": name, "url": nc.ConnectedUrl()})
		}),
	}
}

// newNATSBus publishes over core NATS. JetStream is not used: events are
// fire-and-forget and every API replica runs the same handlers, so each
// handler joins its own queue group and one replica processes each event.
func newNATSBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOptions("qupid-publisher", logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	factory := func(handler string) (message.Subscriber, error) {
		sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
			URL:              cfg.NATSURL,
			QueueGroupPrefix: cfg.QueueGroup + "." + handler,
			SubscribersCount: 1,
			CloseTimeout:     cfg.CloseTimeout,
			AckWaitTimeout:   30 * time.Second,
			NatsOptions:      natsOptions("qupid-"+handler, logger),
			Unmarshaler:      &wmNats.NATSMarshaler{},
			JetStream:        wmNats.JetStreamConfig{Disabled: true},
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create NATS subscriber for %s: %w", handler, err)
		}
		return sub, nil
	}

	return &Bus{
		publisher:     pub,
		newSubscriber: factory,
		closers:       []func() error{pub.Close},
		logger:        logger,
		backend:       "nats",
	}, nil
}
