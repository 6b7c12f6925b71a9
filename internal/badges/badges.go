// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package badges awards achievement badges from growth stats and
// milestone events. Badge definitions live in storage; each carries a
// rule string evaluated by ParseRule.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// Trigger names what prompted an evaluation. Milestone triggers count as
// satisfied facts even if the profile write has not landed yet.
type Trigger string

const (
	TriggerStats      Trigger = "stats"
	TriggerTutorial   Trigger = "tutorial"
	TriggerOnboarding Trigger = "onboarding"
)

// Service evaluates and lists badges.
type Service struct {
	badges    storage.BadgeStore
	stats     storage.StatsStore
	users     storage.UserStore
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a badge service. publisher may be nil.
func NewService(badges storage.BadgeStore, stats storage.StatsStore, users storage.UserStore, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{badges: badges, stats: stats, users: users, publisher: publisher, now: time.Now}
}

func (s *Service) facts(ctx context.Context, userID string, trigger Trigger) (Facts, error) {
	f := Facts{Stats: models.GrowthStats{UserID: userID}}

	st, err := s.stats.GetStats(ctx, userID)
	switch {
	case err == nil:
		f.Stats = *st
	case !errors.Is(err, storage.ErrNotFound):
		return f, fmt.Errorf("load stats: %w", err)
	}

	u, err := s.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		f.TutorialCompleted = u.IsTutorialCompleted
		f.OnboardingCompleted = u.OnboardingCompleted
	case !errors.Is(err, storage.ErrNotFound):
		return f, fmt.Errorf("load user: %w", err)
	}

	switch trigger {
	case TriggerTutorial:
		f.TutorialCompleted = true
	case TriggerOnboarding:
		f.OnboardingCompleted = true
	}
	return f, nil
}

// Evaluate awards every badge the user now satisfies and returns the
// ones that were newly awarded. Each new award publishes badge.awarded.
func (s *Service) Evaluate(ctx context.Context, userID string, trigger Trigger) ([]models.Badge, error) {
	defs, err := s.badges.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	owned, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	f, err := s.facts(ctx, userID, trigger)
	if err != nil {
		return nil, err
	}

	var awarded []models.Badge
	now := s.now()
	for _, b := range defs {
		if _, ok := owned[b.ID]; ok {
			continue
		}
		rule, err := ParseRule(b.Rule)
		if err != nil {
			logging.CtxErr(ctx, err).Str("badge_id", b.ID).Msg("skipping badge with invalid rule")
			continue
		}
		if !rule(f) {
			continue
		}
		isNew, err := s.badges.AwardBadge(ctx, userID, b.ID, now)
		if err != nil {
			return awarded, fmt.Errorf("award badge %s: %w", b.ID, err)
		}
		if !isNew {
			continue
		}
		awarded = append(awarded, *b)
		logging.Ctx(ctx).Info().Str("badge_id", b.ID).Str("trigger", string(trigger)).Msg("badge awarded")
		events.PublishBestEffort(ctx, s.publisher, events.TopicBadgeAwarded, events.BadgeAwarded{
			UserID:     userID,
			Badge:      *b,
			AcquiredAt: now,
		})
	}
	return awarded, nil
}

func (s *Service) owned(ctx context.Context, userID string) (map[string]time.Time, error) {
	ubs, err := s.badges.UserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	out := make(map[string]time.Time, len(ubs))
	for _, ub := range ubs {
		out[ub.BadgeID] = ub.AcquiredAt
	}
	return out, nil
}

// List returns every badge with the user's acquisition state.
func (s *Service) List(ctx context.Context, userID string) ([]models.BadgeStatus, error) {
	defs, err := s.badges.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	owned, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.BadgeStatus, 0, len(defs))
	for _, b := range defs {
		st := models.BadgeStatus{Badge: *b}
		if at, ok := owned[b.ID]; ok {
			at := at
			st.Acquired = true
			st.AcquiredAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}
