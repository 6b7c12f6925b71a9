// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package coaching runs sessions with AI coaches. A session wraps a
// coaching-kind conversation; ending it scores the transcript.
package coaching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/analysis"
	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

var (
	// ErrSessionNotFound is returned for missing sessions and sessions
	// owned by another user.
	ErrSessionNotFound = errors.New("coaching session not found")
	// ErrSessionEnded is returned when a completed session is used.
	ErrSessionEnded = errors.New("coaching session has ended")
	// ErrCoachNotFound is returned for IDs that are not coach personas.
	ErrCoachNotFound = errors.New("coach not found")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service manages coaching sessions.
type Service struct {
	stores    *storage.Stores
	chat      *chat.Service
	analyzer  *analysis.Analyzer
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a coaching service. publisher may be nil.
func NewService(stores *storage.Stores, chatSvc *chat.Service, analyzer *analysis.Analyzer, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		stores:    stores,
		chat:      chatSvc,
		analyzer:  analyzer,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListCoaches returns every coach persona.
func (s *Service) ListCoaches(ctx context.Context) ([]*models.Persona, error) {
	yes := true
	coaches, err := s.stores.Personas.ListPersonas(ctx, models.PersonaFilter{Coaches: &yes})
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	if coaches == nil {
		coaches = []*models.Persona{}
	}
	return coaches, nil
}

func (s *Service) coach(ctx context.Context, id string) (*models.Persona, error) {
	p, err := s.stores.Personas.GetPersona(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrCoachNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load coach: %w", err)
	}
	if !p.IsCoach {
		return nil, ErrCoachNotFound
	}
	return p, nil
}

// Started is the result of StartSession.
type Started struct {
	Session      *models.CoachingSession `json:"session"`
	Conversation *models.Conversation    `json:"conversation"`
	Greeting     *models.Message         `json:"greeting"`
}

// StartSession opens a session with coachID, or the default coach when
// empty, and stores the coach's greeting as the first message.
func (s *Service) StartSession(ctx context.Context, userID, coachID, topic string) (*Started, error) {
	if coachID == "" {
		coachID = storage.DefaultCoachID
	}
	coach, err := s.coach(ctx, coachID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	conv := &models.Conversation{
		UserID:    userID,
		PersonaID: coach.ID,
		Kind:      models.KindCoaching,
		Status:    models.StatusActive,
		StartedAt: now,
	}
	if err := s.stores.Conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	session := &models.CoachingSession{
		UserID:         userID,
		CoachID:        coach.ID,
		ConversationID: conv.ID,
		Topic:          topic,
		Status:         models.SessionActive,
		StartedAt:      now,
	}
	if err := s.stores.Coaching.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	greeting := &models.Message{
		ConversationID: conv.ID,
		Sender:         models.SenderAI,
		Content:        Greeting(coach, topic),
		CreatedAt:      now,
	}
	if err := s.stores.Messages.AppendMessage(ctx, greeting); err != nil {
		return nil, fmt.Errorf("save greeting: %w", err)
	}
	if err := s.stores.Conversations.IncrementMessageCount(ctx, conv.ID, 1); err != nil {
		return nil, fmt.Errorf("update message count: %w", err)
	}
	conv.MessageCount = 1
	metrics.RecordChatMessage(string(models.KindCoaching), string(models.SenderAI))

	logging.Ctx(ctx).Info().
		Str("session_id", session.ID).
		Str("coach_id", coach.ID).
		Msg("coaching session started")
	return &Started{Session: session, Conversation: conv, Greeting: greeting}, nil
}

// Greeting is the coach's opening line.
func Greeting(coach *models.Persona, topic string) string {
	if topic != "" {
		return fmt.Sprintf("안녕하세요, %s예요. 오늘은 \"%s\"에 대해 이야기해볼까요? 편하게 상황을 들려주세요.", coach.Name, topic)
	}
	return fmt.Sprintf("안녕하세요, %s예요. 요즘 대화하면서 고민되는 부분이 있다면 편하게 들려주세요.", coach.Name)
}

// GetSession returns the user's session.
func (s *Service) GetSession(ctx context.Context, userID, sessionID string) (*models.CoachingSession, error) {
	cs, err := s.stores.Coaching.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if cs.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return cs, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID string, limit int) ([]*models.CoachingSession, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	list, err := s.stores.Coaching.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if list == nil {
		list = []*models.CoachingSession{}
	}
	return list, nil
}

// SendMessage runs one turn of the session's conversation with the coach
// prompt.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID, content string) (*chat.Reply, error) {
	cs, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	reply, err := s.chat.SendWithOptions(ctx, userID, cs.ConversationID, content, chat.TurnOptions{Topic: cs.Topic})
	if errors.Is(err, chat.ErrConversationEnded) {
		return nil, ErrSessionEnded
	}
	return reply, err
}

// StreamMessage is the streaming form of SendMessage.
func (s *Service) StreamMessage(ctx context.Context, userID, sessionID, content string, onDelta chat.DeltaFunc) (*chat.Reply, error) {
	cs, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	reply, err := s.chat.StreamWithOptions(ctx, userID, cs.ConversationID, content, chat.TurnOptions{Topic: cs.Topic}, onDelta)
	if errors.Is(err, chat.ErrConversationEnded) {
		return nil, ErrSessionEnded
	}
	return reply, err
}

func (s *Service) activeSession(ctx context.Context, userID, sessionID string) (*models.CoachingSession, error) {
	cs, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if cs.Status == models.SessionCompleted {
		return nil, ErrSessionEnded
	}
	return cs, nil
}

// EndSession scores the session transcript, completes the session and
// publishes coaching.completed. Analysis failures fall back to neutral
// scores; ending a completed session returns ErrSessionEnded.
func (s *Service) EndSession(ctx context.Context, userID, sessionID string) (*models.CoachingSession, error) {
	cs, err := s.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.stores.Messages.ListMessages(ctx, cs.ConversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	transcript := make([]models.Message, len(msgs))
	for i, m := range msgs {
		transcript[i] = *m
	}
	coachName := ""
	if coach, err := s.coach(ctx, cs.CoachID); err == nil {
		coachName = coach.Name
	}
	fb, fallback := s.analyzer.Analyze(ctx, transcript, coachName)

	now := s.now().UTC()
	err = s.stores.Coaching.CompleteSession(ctx, cs.ID, &fb, now)
	if errors.Is(err, storage.ErrConflict) {
		return nil, ErrSessionEnded
	}
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	err = s.stores.Conversations.UpdateConversationStatus(ctx, cs.ConversationID, models.StatusEnded, now)
	if err != nil && !errors.Is(err, storage.ErrConflict) {
		logging.CtxErr(ctx, err).Str("conversation_id", cs.ConversationID).Msg("failed to end coaching conversation")
	}

	cs.Status = models.SessionCompleted
	cs.Feedback = &fb
	cs.EndedAt = &now
	metrics.RecordCoachingCompleted(fallback)

	events.PublishBestEffort(ctx, s.publisher, events.TopicCoachingCompleted, events.CoachingCompleted{
		UserID:    userID,
		SessionID: cs.ID,
		CoachID:   cs.CoachID,
		Feedback:  fb,
		Fallback:  fallback,
		EndedAt:   now,
	})
	logging.Ctx(ctx).Info().
		Str("session_id", cs.ID).
		Int("overall", fb.Overall).
		Bool("fallback", fallback).
		Msg("coaching session completed")
	return cs, nil
}
