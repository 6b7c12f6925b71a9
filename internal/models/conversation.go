// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// ConversationKind distinguishes regular persona chats from coaching and
// tutorial conversations.
type ConversationKind string

// Conversation kinds.
const (
	KindPersona  ConversationKind = "persona"
	KindCoaching ConversationKind = "coaching"
	KindTutorial ConversationKind = "tutorial"
)

// Valid reports whether k is a known kind.
func (k ConversationKind) Valid() bool {
	switch k {
	case KindPersona, KindCoaching, KindTutorial:
		return true
	}
	return false
}

// ConversationStatus is active until the user ends the conversation.
type ConversationStatus string

// Conversation statuses.
const (
	StatusActive ConversationStatus = "active"
	StatusEnded  ConversationStatus = "ended"
)

// Conversation is one chat thread between a user and a persona.
type Conversation struct {
	ID           string             `json:"id"`
	UserID       string             `json:"userId"`
	PersonaID    string             `json:"personaId"`
	Kind         ConversationKind   `json:"kind"`
	Status       ConversationStatus `json:"status"`
	TutorialStep int                `json:"tutorialStep"`
	StartedAt    time.Time          `json:"startedAt"`
	EndedAt      *time.Time         `json:"endedAt,omitempty"`
	MessageCount int                `json:"messageCount"`
}

// Active reports whether new messages may be added.
func (c *Conversation) Active() bool {
	return c.Status == StatusActive
}

// Sender identifies who wrote a message.
type Sender string

// Message senders.
const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// Message is a single chat line.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         Sender    `json:"sender"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
