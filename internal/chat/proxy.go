// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package chat

import (
	"context"
	"fmt"

	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/tutorial"
)

// QuickReplies returns the suggested replies for a tutorial
// conversation's current step. Other conversations have none.
func (s *Service) QuickReplies(ctx context.Context, userID, convID string) (step int, replies []string, err error) {
	c, err := s.Conversation(ctx, userID, convID)
	if err != nil {
		return 0, nil, err
	}
	if c.Kind != models.KindTutorial || !c.Active() {
		return c.TutorialStep, []string{}, nil
	}
	return c.TutorialStep, tutorial.QuickReplies(c.TutorialStep), nil
}

// RealtimeTip returns a one-line tip for a message the user is about to
// send, or just sent, to personaID.
func (s *Service) RealtimeTip(ctx context.Context, userID, personaID, message string) (string, error) {
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("persona_id", personaID).Msg("realtime tip requested")
	var p *models.Persona
	if personaID != "" {
		var err error
		if p, err = s.persona(ctx, personaID); err != nil {
			return "", err
		}
	}
	return s.analyzer.RealtimeTip(ctx, message, p)
}

// Complete proxies a raw completion through the provider chain.
func (s *Service) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrNoMessages
	}
	resp, err := s.provider.Complete(ctx, llm.Request{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("complete: %w: %w", llm.ErrCompletionFailed, err)
	}
	return resp, nil
}

// StreamComplete is the streaming form of Complete.
func (s *Service) StreamComplete(ctx context.Context, messages []llm.Message, onDelta DeltaFunc) (*llm.Response, error) {
	if len(messages) == 0 {
		return nil, llm.ErrNoMessages
	}
	resp, err := s.provider.Stream(ctx, llm.Request{Messages: messages}, func(c llm.Chunk) error {
		if c.Delta == "" {
			return nil
		}
		return onDelta(c.Delta)
	})
	if err != nil {
		return nil, fmt.Errorf("stream complete: %w: %w", llm.ErrCompletionFailed, err)
	}
	return resp, nil
}
