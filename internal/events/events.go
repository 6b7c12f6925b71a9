// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package events carries fire-and-forget side effects (growth stats,
// badges, notifications, real-time pushes) off the request path.
//
// Request handlers publish a typed payload to a topic and return; the
// Router delivers it to every registered handler with retry and panic
// recovery. A handler that still fails after its retries is logged and
// dropped, so side effects can never fail or stall a chat turn.
package events

import (
	"context"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// Topics.
const (
	TopicMessageSent         = "message.sent"
	TopicConversationEnded   = "conversation.ended"
	TopicCoachingCompleted   = "coaching.completed"
	TopicTutorialCompleted   = "tutorial.completed"
	TopicOnboardingCompleted = "onboarding.completed"
	TopicBadgeAwarded        = "badge.awarded"
)

// Topics lists every topic the application publishes.
var Topics = []string{
	TopicMessageSent,
	TopicConversationEnded,
	TopicCoachingCompleted,
	TopicTutorialCompleted,
	TopicOnboardingCompleted,
	TopicBadgeAwarded,
}

// Publisher publishes a JSON-encoded payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, payload interface{}) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, topic string, payload interface{}) error {
	return f(ctx, topic, payload)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, string, interface{}) error { return nil })

// MessageSent is published after a chat turn saved both messages.
type MessageSent struct {
	UserID         string                  `json:"userId"`
	ConversationID string                  `json:"conversationId"`
	PersonaID      string                  `json:"personaId"`
	Kind           models.ConversationKind `json:"kind"`
	// MessageID is the saved AI reply; it identifies the turn.
	MessageID string `json:"messageId"`
	// Messages is how many rows the turn added.
	Messages int       `json:"messages"`
	SentAt   time.Time `json:"sentAt"`
}

// Key identifies the turn for idempotent consumers.
func (e MessageSent) Key() string { return eventKey(TopicMessageSent, e.MessageID) }

// ConversationEnded is published when a user ends a conversation.
// Feedback is nil when the conversation was too short to analyze.
// Fallback marks neutral scores produced because analysis failed.
type ConversationEnded struct {
	UserID         string                  `json:"userId"`
	ConversationID string                  `json:"conversationId"`
	PersonaID      string                  `json:"personaId"`
	Kind           models.ConversationKind `json:"kind"`
	Feedback       *models.Feedback        `json:"feedback,omitempty"`
	Fallback       bool                    `json:"fallback"`
	EndedAt        time.Time               `json:"endedAt"`
}

// Key identifies the conversation for idempotent consumers.
func (e ConversationEnded) Key() string { return eventKey(TopicConversationEnded, e.ConversationID) }

// CoachingCompleted is published when a coaching session is scored.
type CoachingCompleted struct {
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
	CoachID   string          `json:"coachId"`
	Feedback  models.Feedback `json:"feedback"`
	Fallback  bool            `json:"fallback"`
	EndedAt   time.Time       `json:"endedAt"`
}

// Key identifies the session for idempotent consumers.
func (e CoachingCompleted) Key() string { return eventKey(TopicCoachingCompleted, e.SessionID) }

// eventKey returns "" for a missing id, which disables deduplication.
func eventKey(topic, id string) string {
	if id == "" {
		return ""
	}
	return topic + ":" + id
}

// TutorialCompleted is published when the last tutorial step is passed.
type TutorialCompleted struct {
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	CompletedAt    time.Time `json:"completedAt"`
}

// OnboardingCompleted is published after the survey is submitted.
type OnboardingCompleted struct {
	UserID      string    `json:"userId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// BadgeAwarded is published for each newly earned badge.
type BadgeAwarded struct {
	UserID     string       `json:"userId"`
	Badge      models.Badge `json:"badge"`
	AcquiredAt time.Time    `json:"acquiredAt"`
}
