// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package handlers subscribes the side-effect services to domain events.
//
//	message.sent          -> growth (messages, streak) -> badges
//	conversation.ended    -> growth (conversation, feedback) -> badges
//	coaching.completed    -> growth (session, feedback) -> badges
//	                      -> notification, websocket push
//	tutorial.completed    -> badges
//	onboarding.completed  -> badges
//	badge.awarded         -> notification, websocket push
//
// Badge evaluation runs in the same handler as the stats update it
// depends on, so it always sees the new totals. Each stats update is a
// single write keyed by the event, so when a retry replays the handler
// the update is skipped and only the badge evaluation runs again.
package handlers

import (
	"context"
	"fmt"

	"github.com/big-teddy/Qupid-sub001/internal/badges"
	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/growth"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/notification"
	"github.com/big-teddy/Qupid-sub001/internal/websocket"
)

// Deps are the services handlers call.
type Deps struct {
	Growth        *growth.Service
	Badges        *badges.Service
	Notifications *notification.Service
	// Pusher is optional; nil disables the direct websocket pushes.
	Pusher notification.Pusher
}

type route struct {
	name, topic string
	fn          events.HandlerFunc
}

// Register adds every handler to r.
func Register(r *events.Router, d Deps) error {
	h := &handlers{Deps: d}
	routes := []route{
		{"growth.message_sent", events.TopicMessageSent, events.Typed(h.onMessageSent)},
		{"growth.conversation_ended", events.TopicConversationEnded, events.Typed(h.onConversationEnded)},
		{"growth.coaching_completed", events.TopicCoachingCompleted, events.Typed(h.onCoachingStats)},
		{"badges.tutorial_completed", events.TopicTutorialCompleted, events.Typed(h.onTutorialCompleted)},
		{"badges.onboarding_completed", events.TopicOnboardingCompleted, events.Typed(h.onOnboardingCompleted)},
		{"notify.coaching_completed", events.TopicCoachingCompleted, events.Typed(h.notifyCoaching)},
		{"notify.badge_awarded", events.TopicBadgeAwarded, events.Typed(h.notifyBadge)},
	}
	if d.Pusher != nil {
		routes = append(routes,
			route{"push.coaching_completed", events.TopicCoachingCompleted, events.Typed(h.pushCoaching)},
			route{"push.badge_awarded", events.TopicBadgeAwarded, events.Typed(h.pushBadge)},
		)
	}
	for _, rt := range routes {
		if err := r.Handle(rt.name, rt.topic, rt.fn); err != nil {
			return fmt.Errorf("register %s: %w", rt.name, err)
		}
	}
	return nil
}

type handlers struct {
	Deps
}

func (h *handlers) evaluate(ctx context.Context, userID string, trigger badges.Trigger) error {
	if _, err := h.Badges.Evaluate(ctx, userID, trigger); err != nil {
		return fmt.Errorf("evaluate badges: %w", err)
	}
	return nil
}

func (h *handlers) onMessageSent(ctx context.Context, ev events.MessageSent) error {
	if _, err := h.Growth.RecordActivity(ctx, ev.UserID, ev.Key(), ev.Messages); err != nil {
		return err
	}
	return h.evaluate(ctx, ev.UserID, badges.TriggerStats)
}

// scored drops neutral fallback scores, which would drag the averages
// toward 50.
func scored(fb *models.Feedback, fallback bool) *models.Feedback {
	if fallback {
		return nil
	}
	return fb
}

func (h *handlers) onConversationEnded(ctx context.Context, ev events.ConversationEnded) error {
	// Messages were already counted per turn.
	if _, err := h.Growth.RecordConversation(ctx, ev.UserID, ev.Key(), 0, scored(ev.Feedback, ev.Fallback)); err != nil {
		return err
	}
	return h.evaluate(ctx, ev.UserID, badges.TriggerStats)
}

func (h *handlers) onCoachingStats(ctx context.Context, ev events.CoachingCompleted) error {
	if _, err := h.Growth.RecordCoaching(ctx, ev.UserID, ev.Key(), scored(&ev.Feedback, ev.Fallback)); err != nil {
		return err
	}
	return h.evaluate(ctx, ev.UserID, badges.TriggerStats)
}

func (h *handlers) onTutorialCompleted(ctx context.Context, ev events.TutorialCompleted) error {
	return h.evaluate(ctx, ev.UserID, badges.TriggerTutorial)
}

func (h *handlers) onOnboardingCompleted(ctx context.Context, ev events.OnboardingCompleted) error {
	return h.evaluate(ctx, ev.UserID, badges.TriggerOnboarding)
}

func (h *handlers) notifyCoaching(ctx context.Context, ev events.CoachingCompleted) error {
	body := fmt.Sprintf("종합 점수 %d점! 코칭 피드백을 확인해보세요.", ev.Feedback.Overall)
	_, err := h.Notifications.Notify(ctx, ev.UserID, models.NotifyCoaching, "코칭 피드백이 도착했어요", body)
	return err
}

func (h *handlers) notifyBadge(ctx context.Context, ev events.BadgeAwarded) error {
	title := fmt.Sprintf("%s 새 배지를 획득했어요", ev.Badge.Icon)
	body := fmt.Sprintf("'%s' 배지: %s", ev.Badge.Name, ev.Badge.Description)
	_, err := h.Notifications.Notify(ctx, ev.UserID, models.NotifyBadge, title, body)
	return err
}

func (h *handlers) pushCoaching(_ context.Context, ev events.CoachingCompleted) error {
	h.Pusher.SendToUser(ev.UserID, websocket.MessageTypeCoachingCompleted, ev)
	return nil
}

func (h *handlers) pushBadge(_ context.Context, ev events.BadgeAwarded) error {
	h.Pusher.SendToUser(ev.UserID, websocket.MessageTypeBadgeAwarded, ev)
	return nil
}
