// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package chat runs persona and tutorial conversations: it assembles the
// prompt from persona, profile and history, calls the LLM and persists
// both sides of each turn. Side effects (stats, badges, notifications)
// are published as events and never affect the result of a turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/analysis"
	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

var (
	// ErrConversationNotFound is returned for missing conversations and
	// for conversations owned by another user.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationEnded rejects messages on ended conversations.
	ErrConversationEnded = errors.New("conversation has ended")
	// ErrPersonaNotFound is returned for unknown persona IDs.
	ErrPersonaNotFound = errors.New("persona not found")
	// ErrInvalidKind rejects conversation kinds that cannot be started here.
	ErrInvalidKind = errors.New("invalid conversation kind")
	// ErrEmptyMessage rejects blank user messages.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrMessageTooLong rejects messages over MaxMessageLength.
	ErrMessageTooLong = errors.New("message is too long")
	// ErrCoachingConversation is returned when a coaching conversation is
	// ended directly instead of through its session.
	ErrCoachingConversation = errors.New("coaching conversations are ended through their session")
)

// Defaults.
const (
	DefaultHistoryLimit = 20
	DefaultListLimit    = 20
	MaxListLimit        = 100
	// MinUserMessagesForFeedback is how many user messages a conversation
	// needs before ending it produces feedback.
	MinUserMessagesForFeedback = 2
)

// Service is the chat service.
type Service struct {
	personas      storage.PersonaStore
	users         storage.UserStore
	conversations storage.ConversationStore
	messages      storage.MessageStore

	provider  llm.Provider
	prompts   *prompt.Builder
	analyzer  *analysis.Analyzer
	publisher events.Publisher

	historyLimit int
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHistoryLimit sets how many past messages go into each prompt.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithPrompts replaces the default prompt builder.
func WithPrompts(b *prompt.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.prompts = b
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a chat service. publisher may be nil.
func NewService(stores *storage.Stores, provider llm.Provider, analyzer *analysis.Analyzer, publisher events.Publisher, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	s := &Service{
		personas:      stores.Personas,
		users:         stores.Users,
		conversations: stores.Conversations,
		messages:      stores.Messages,
		provider:      provider,
		prompts:       prompt.NewBuilder(),
		analyzer:      analyzer,
		publisher:     publisher,
		historyLimit:  DefaultHistoryLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analysis.New(provider, s.prompts)
	}
	return s
}

func (s *Service) persona(ctx context.Context, id string) (*models.Persona, error) {
	p, err := s.personas.GetPersona(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPersonaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load persona: %w", err)
	}
	return p, nil
}

// profile returns the stored profile or an empty one.
func (s *Service) profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.UserProfile{ID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return u, nil
}

// Conversation returns the user's conversation.
func (s *Service) Conversation(ctx context.Context, userID, convID string) (*models.Conversation, error) {
	c, err := s.conversations.GetConversation(ctx, convID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if c.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return c, nil
}

// StartConversation opens a conversation with a persona. Tutorial
// conversations default to the tutorial guide and start at step 0;
// coach personas are only reachable through coaching sessions.
func (s *Service) StartConversation(ctx context.Context, userID, personaID string, kind models.ConversationKind) (*models.Conversation, error) {
	if kind == "" {
		kind = models.KindPersona
	}
	if !kind.Valid() || kind == models.KindCoaching {
		return nil, ErrInvalidKind
	}
	if kind == models.KindTutorial && personaID == "" {
		personaID = storage.TutorialPersonaID
	}

	p, err := s.persona(ctx, personaID)
	if err != nil {
		return nil, err
	}
	if p.IsCoach {
		return nil, ErrInvalidKind
	}
	if p.IsTutorial {
		kind = models.KindTutorial
	}

	c := &models.Conversation{
		UserID:    userID,
		PersonaID: p.ID,
		Kind:      kind,
		Status:    models.StatusActive,
		StartedAt: s.now().UTC(),
	}
	if err := s.conversations.CreateConversation(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	logging.Ctx(ctx).Info().
		Str("conversation_id", c.ID).
		Str("persona_id", p.ID).
		Str("kind", string(kind)).
		Msg("conversation started")
	return c, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *Service) ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	list, err := s.conversations.ListConversations(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if list == nil {
		list = []*models.Conversation{}
	}
	return list, nil
}

// History returns the most recent messages of a conversation in
// chronological order. limit <= 0 returns every message.
func (s *Service) History(ctx context.Context, userID, convID string, limit int) ([]*models.Message, error) {
	if _, err := s.Conversation(ctx, userID, convID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, convID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

// EndResult is the outcome of EndConversation.
type EndResult struct {
	Conversation *models.Conversation `json:"conversation"`
	// Feedback is nil when the user wrote too little to score.
	Feedback *models.Feedback `json:"feedback,omitempty"`
	Fallback bool             `json:"fallback"`
}

// EndConversation ends a conversation and scores it when the user sent at
// least MinUserMessagesForFeedback messages.
func (s *Service) EndConversation(ctx context.Context, userID, convID string) (*EndResult, error) {
	c, err := s.Conversation(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if c.Kind == models.KindCoaching {
		return nil, ErrCoachingConversation
	}
	if !c.Active() {
		return nil, ErrConversationEnded
	}

	now := s.now().UTC()
	err = s.conversations.UpdateConversationStatus(ctx, c.ID, models.StatusEnded, now)
	if errors.Is(err, storage.ErrConflict) {
		return nil, ErrConversationEnded
	}
	if err != nil {
		return nil, fmt.Errorf("end conversation: %w", err)
	}
	c.Status = models.StatusEnded
	c.EndedAt = &now

	res := &EndResult{Conversation: c}
	userMsgs, err := s.messages.CountMessages(ctx, c.ID, models.SenderUser)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	if userMsgs >= MinUserMessagesForFeedback {
		fb, fallback, err := s.feedback(ctx, c)
		if err != nil {
			return nil, err
		}
		res.Feedback, res.Fallback = &fb, fallback
	}

	events.PublishBestEffort(ctx, s.publisher, events.TopicConversationEnded, events.ConversationEnded{
		UserID:         userID,
		ConversationID: c.ID,
		PersonaID:      c.PersonaID,
		Kind:           c.Kind,
		Feedback:       res.Feedback,
		Fallback:       res.Fallback,
		EndedAt:        now,
	})
	logging.Ctx(ctx).Info().
		Str("conversation_id", c.ID).
		Int("user_messages", userMsgs).
		Bool("scored", res.Feedback != nil).
		Msg("conversation ended")
	return res, nil
}

func (s *Service) feedback(ctx context.Context, c *models.Conversation) (models.Feedback, bool, error) {
	msgs, err := s.messages.ListMessages(ctx, c.ID, 0)
	if err != nil {
		return models.Feedback{}, false, fmt.Errorf("list messages: %w", err)
	}
	name := ""
	if p, err := s.persona(ctx, c.PersonaID); err == nil {
		name = p.Name
	}
	fb, fallback := s.analyzer.Analyze(ctx, derefMessages(msgs), name)
	return fb, fallback, nil
}

func derefMessages(msgs []*models.Message) []models.Message {
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		out[i] = *m
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
