// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/tutorial"
)

// MaxMessageLength bounds a single user message, in runes.
const MaxMessageLength = 2000

// Reply is the result of one chat turn.
type Reply struct {
	UserMessage *models.Message `json:"userMessage"`
	AIMessage   *models.Message `json:"aiMessage"`
	// TutorialStep and QuickReplies are set for tutorial conversations.
	TutorialStep      *int     `json:"tutorialStep,omitempty"`
	TutorialCompleted bool     `json:"tutorialCompleted,omitempty"`
	QuickReplies      []string `json:"quickReplies,omitempty"`
}

// TurnOptions carries what callers know beyond the conversation itself.
type TurnOptions struct {
	// Topic is the coaching session topic.
	Topic string
}

// DeltaFunc receives streamed reply text. Returning an error aborts the
// stream.
type DeltaFunc func(delta string) error

// turn is the prepared state shared by the blocking and streaming paths.
type turn struct {
	conv    *models.Conversation
	persona *models.Persona
	user    *models.UserProfile
	request llm.Request
	userMsg *models.Message
}

// SendMessage runs one chat turn and waits for the full reply.
func (s *Service) SendMessage(ctx context.Context, userID, convID, content string) (*Reply, error) {
	return s.SendWithOptions(ctx, userID, convID, content, TurnOptions{})
}

// SendWithOptions is SendMessage with extra prompt context.
func (s *Service) SendWithOptions(ctx context.Context, userID, convID, content string, opts TurnOptions) (*Reply, error) {
	t, err := s.prepare(ctx, userID, convID, content, opts)
	if err != nil {
		return nil, err
	}
	resp, err := s.provider.Complete(ctx, t.request)
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w: %w", llm.ErrCompletionFailed, err)
	}
	return s.finish(ctx, t, resp.Content)
}

// StreamMessage runs one chat turn, forwarding reply deltas as they
// arrive. The AI message is saved only if the stream completes.
func (s *Service) StreamMessage(ctx context.Context, userID, convID, content string, onDelta DeltaFunc) (*Reply, error) {
	return s.StreamWithOptions(ctx, userID, convID, content, TurnOptions{}, onDelta)
}

// StreamWithOptions is StreamMessage with extra prompt context.
func (s *Service) StreamWithOptions(ctx context.Context, userID, convID, content string, opts TurnOptions, onDelta DeltaFunc) (*Reply, error) {
	t, err := s.prepare(ctx, userID, convID, content, opts)
	if err != nil {
		return nil, err
	}
	resp, err := s.provider.Stream(ctx, t.request, func(c llm.Chunk) error {
		if c.Delta == "" {
			return nil
		}
		return onDelta(c.Delta)
	})
	if err != nil {
		logging.CtxErr(ctx, err).Str("conversation_id", convID).Msg("reply stream aborted")
		return nil, fmt.Errorf("stream reply: %w: %w", llm.ErrCompletionFailed, err)
	}
	return s.finish(ctx, t, resp.Content)
}

// prepare validates the turn, loads its context concurrently, builds the
// prompt and saves the user message.
func (s *Service) prepare(ctx context.Context, userID, convID, content string, opts TurnOptions) (*turn, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if n := len([]rune(content)); n > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d characters, limit is %d", ErrMessageTooLong, n, MaxMessageLength)
	}

	conv, err := s.Conversation(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !conv.Active() {
		return nil, ErrConversationEnded
	}

	t := &turn{conv: conv}
	var history []*models.Message
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.persona(gctx, conv.PersonaID)
		t.persona = p
		return err
	})
	g.Go(func() error {
		u, err := s.profile(gctx, userID)
		t.user = u
		return err
	})
	g.Go(func() error {
		msgs, err := s.messages.ListMessages(gctx, conv.ID, s.historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		history = msgs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.request = llm.Request{Messages: s.buildMessages(t, history, content, opts)}

	t.userMsg = &models.Message{
		ConversationID: conv.ID,
		Sender:         models.SenderUser,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.save(ctx, conv, t.userMsg); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) buildMessages(t *turn, history []*models.Message, content string, opts TurnOptions) []llm.Message {
	var system string
	switch t.conv.Kind {
	case models.KindCoaching:
		system = s.prompts.CoachSystemPrompt(t.persona, t.user, opts.Topic)
	default:
		popts := prompt.Options{MessageCount: t.conv.MessageCount}
		if t.conv.Kind == models.KindTutorial {
			if step, ok := tutorial.Step(t.conv.TutorialStep); ok {
				popts.TutorialStep = &step
			}
		}
		system = s.prompts.PersonaSystemPrompt(t.persona, t.user, popts)
	}

	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history {
		switch m.Sender {
		case models.SenderUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case models.SenderAI:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: content})
}

func (s *Service) save(ctx context.Context, conv *models.Conversation, m *models.Message) error {
	if err := s.messages.AppendMessage(ctx, m); err != nil {
		return fmt.Errorf("save %s message: %w", m.Sender, err)
	}
	if err := s.conversations.IncrementMessageCount(ctx, conv.ID, 1); err != nil {
		return fmt.Errorf("update message count: %w", err)
	}
	metrics.RecordChatMessage(string(conv.Kind), string(m.Sender))
	return nil
}

// finish saves the AI reply, advances the tutorial and publishes the
// turn's side effects.
func (s *Service) finish(ctx context.Context, t *turn, reply string) (*Reply, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, llm.ErrEmptyCompletion
	}
	now := s.now().UTC()
	aiMsg := &models.Message{
		ConversationID: t.conv.ID,
		Sender:         models.SenderAI,
		Content:        reply,
		CreatedAt:      now,
	}
	if err := s.save(ctx, t.conv, aiMsg); err != nil {
		return nil, err
	}

	out := &Reply{UserMessage: t.userMsg, AIMessage: aiMsg}
	if t.conv.Kind == models.KindTutorial {
		s.advanceTutorial(ctx, t, out, now)
	}

	if err := s.users.TouchUser(ctx, t.conv.UserID, now); err != nil {
		logging.CtxErr(ctx, err).Msg("failed to record user activity")
	}
	events.PublishBestEffort(ctx, s.publisher, events.TopicMessageSent, events.MessageSent{
		UserID:         t.conv.UserID,
		ConversationID: t.conv.ID,
		PersonaID:      t.conv.PersonaID,
		Kind:           t.conv.Kind,
		MessageID:      aiMsg.ID,
		Messages:       2,
		SentAt:         now,
	})
	return out, nil
}

// advanceTutorial moves the tutorial forward for the user's message.
// Failures here are logged; the turn itself already succeeded.
func (s *Service) advanceTutorial(ctx context.Context, t *turn, out *Reply, now time.Time) {
	step := t.conv.TutorialStep
	if step >= tutorial.Len() {
		out.TutorialStep = &step
		out.TutorialCompleted = true
		out.QuickReplies = []string{}
		return
	}

	next, completed := tutorial.Advance(step, t.userMsg.Content)
	out.TutorialStep = &next
	out.TutorialCompleted = completed
	out.QuickReplies = tutorial.QuickReplies(next)
	if next == step {
		return
	}
	if err := s.conversations.SetTutorialStep(ctx, t.conv.ID, next); err != nil {
		logging.CtxErr(ctx, err).Str("conversation_id", t.conv.ID).Msg("failed to advance tutorial")
		return
	}
	if !completed {
		return
	}

	u, err := s.profile(ctx, t.conv.UserID)
	if err == nil {
		u.IsTutorialCompleted = true
		err = s.users.UpsertUser(ctx, u)
	}
	if err != nil {
		logging.CtxErr(ctx, err).Msg("failed to mark tutorial completed")
	}
	logging.Ctx(ctx).Info().Str("conversation_id", t.conv.ID).Msg("tutorial completed")
	events.PublishBestEffort(ctx, s.publisher, events.TopicTutorialCompleted, events.TutorialCompleted{
		UserID:         t.conv.UserID,
		ConversationID: t.conv.ID,
		CompletedAt:    now,
	})
}
