// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// Coaching session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// CoachingSession ties a coaching conversation to its feedback.
type CoachingSession struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CoachID        string     `json:"coachId"`
	ConversationID string     `json:"conversationId"`
	Topic          string     `json:"topic,omitempty"`
	Status         string     `json:"status"`
	Feedback       *Feedback  `json:"feedback,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

// Feedback scores a conversation. Scores are always within 0..100.
type Feedback struct {
	Friendliness int      `json:"friendliness"`
	Curiosity    int      `json:"curiosity"`
	Empathy      int      `json:"empathy"`
	Overall      int      `json:"overall"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}
