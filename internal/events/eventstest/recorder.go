// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package eventstest provides an in-memory events.Publisher for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/big-teddy/Qupid-sub001/internal/events"
)

// Published is one recorded Publish call.
type Published struct {
	Topic   string
	Payload interface{}
}

// Recorder records published events. Set Err to make Publish fail.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

var _ events.Publisher = (*Recorder)(nil)

// Publish implements events.Publisher.
func (r *Recorder) Publish(_ context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Published{Topic: topic, Payload: payload})
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Topic returns the payloads published on topic, in order.
func (r *Recorder) Topic(topic string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.Topic == topic {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
