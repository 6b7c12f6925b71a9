// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package storage declares the persistence interfaces used by the Qupid
// services. Implementations live in the memory and postgres subpackages.
//
// Get methods return ErrNotFound when the row does not exist. State
// transitions that have already happened (ending an ended conversation,
// completing a completed session) return ErrConflict.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write conflicts with the current state.
	ErrConflict = errors.New("conflict")
)

// PersonaStore persists AI personas, including coaches and the tutorial guide.
type PersonaStore interface {
	ListPersonas(ctx context.Context, filter models.PersonaFilter) ([]*models.Persona, error)
	GetPersona(ctx context.Context, id string) (*models.Persona, error)
	CreatePersona(ctx context.Context, p *models.Persona) error
	UpdatePersona(ctx context.Context, p *models.Persona) error
	DeletePersona(ctx context.Context, id string) error
}

// UserStore persists user profiles.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.UserProfile, error)
	UpsertUser(ctx context.Context, u *models.UserProfile) error
	// TouchUser records activity, creating a bare profile when none exists.
	TouchUser(ctx context.Context, id string, at time.Time) error
	// ListInactiveUsers returns users whose last activity is before cutoff.
	ListInactiveUsers(ctx context.Context, cutoff time.Time) ([]*models.UserProfile, error)
}

// ConversationStore persists conversations.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// ListConversations returns a user's conversations, newest first.
	ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error)
	// UpdateConversationStatus returns ErrConflict if the status is already set.
	UpdateConversationStatus(ctx context.Context, id string, status models.ConversationStatus, at time.Time) error
	SetTutorialStep(ctx context.Context, id string, step int) error
	IncrementMessageCount(ctx context.Context, id string, delta int) error
}

// MessageStore persists chat messages.
type MessageStore interface {
	AppendMessage(ctx context.Context, m *models.Message) error
	// ListMessages returns the most recent limit messages in chronological
	// order. limit <= 0 returns all messages.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error)
	// CountMessages counts messages by sender; an empty sender counts all.
	CountMessages(ctx context.Context, conversationID string, sender models.Sender) (int, error)
}

// CoachingStore persists coaching sessions.
type CoachingStore interface {
	CreateSession(ctx context.Context, s *models.CoachingSession) error
	GetSession(ctx context.Context, id string) (*models.CoachingSession, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]*models.CoachingSession, error)
	// CompleteSession returns ErrConflict if the session is already completed.
	CompleteSession(ctx context.Context, id string, fb *models.Feedback, at time.Time) error
}

// StatsUpdate mutates a user's stats row in place. A non-nil point is
// merged into its week in the same write.
type StatsUpdate func(st *models.GrowthStats) *models.WeeklyPoint

// StatsStore persists growth statistics.
type StatsStore interface {
	GetStats(ctx context.Context, userID string) (*models.GrowthStats, error)
	SaveStats(ctx context.Context, s *models.GrowthStats) error
	// ApplyStats runs fn on userID's row, or a zero row, and stores the
	// result atomically with respect to other ApplyStats calls for the
	// same user, across processes. A non-empty key is recorded with the
	// write; if it was already recorded nothing is written, fn is not
	// called and applied is false.
	ApplyStats(ctx context.Context, userID, key string, fn StatsUpdate) (st *models.GrowthStats, applied bool, err error)
	// AddWeekly merges p into the stored point for the same week.
	AddWeekly(ctx context.Context, userID string, p models.WeeklyPoint) error
	// Weekly returns up to weeks points, oldest first.
	Weekly(ctx context.Context, userID string, weeks int) ([]models.WeeklyPoint, error)
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	// MarkNotificationRead returns ErrNotFound unless the notification belongs to userID.
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	HasNotificationSince(ctx context.Context, userID string, kind models.NotificationKind, since time.Time) (bool, error)
}

// BadgeStore persists badge definitions and awards.
type BadgeStore interface {
	ListBadges(ctx context.Context) ([]*models.Badge, error)
	UpsertBadge(ctx context.Context, b *models.Badge) error
	UserBadges(ctx context.Context, userID string) ([]*models.UserBadge, error)
	// AwardBadge is idempotent and reports whether the badge was newly awarded.
	AwardBadge(ctx context.Context, userID, badgeID string, at time.Time) (bool, error)
}

// SurveyStore persists onboarding survey answers, one response per user.
type SurveyStore interface {
	SaveSurvey(ctx context.Context, r *models.SurveyResponse) error
	GetSurvey(ctx context.Context, userID string) (*models.SurveyResponse, error)
}

// Backend is implemented by a complete storage implementation.
type Backend interface {
	PersonaStore
	UserStore
	ConversationStore
	MessageStore
	CoachingStore
	StatsStore
	NotificationStore
	BadgeStore
	SurveyStore

	Ping(ctx context.Context) error
	Close() error
}

// Stores groups the per-entity interfaces handed to services.
type Stores struct {
	Personas      PersonaStore
	Users         UserStore
	Conversations ConversationStore
	Messages      MessageStore
	Coaching      CoachingStore
	Stats         StatsStore
	Notifications NotificationStore
	Badges        BadgeStore
	Surveys       SurveyStore

	backend Backend
}

// NewStores exposes every interface of b.
func NewStores(b Backend) *Stores {
	return &Stores{
		Personas:      b,
		Users:         b,
		Conversations: b,
		Messages:      b,
		Coaching:      b,
		Stats:         b,
		Notifications: b,
		Badges:        b,
		Surveys:       b,
		backend:       b,
	}
}

// Ping checks backend health.
func (s *Stores) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases backend resources.
func (s *Stores) Close() error {
	return s.backend.Close()
}
