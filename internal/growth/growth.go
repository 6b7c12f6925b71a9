// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package growth maintains the gamified per-user statistics: totals,
// daily streaks, running feedback averages and weekly score points.
//
// Days and weeks are computed in Korea Standard Time since that is where
// users are; weeks start on Monday.
package growth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

const dateLayout = "2006-01-02"

// KST is the zone streak days are counted in.
var KST = time.FixedZone("KST", 9*60*60)

// Weekly window bounds.
const (
	DefaultWeeks = 8
	MaxWeeks     = 52
)

// Service updates and reads growth stats.
//
// Every Record method takes an idempotency key, normally derived from the
// event being handled. Replaying a key is a no-op, so a retried handler
// never double counts.
type Service struct {
	stats storage.StatsStore
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a growth service.
func NewService(stats storage.StatsStore) *Service {
	return &Service{stats: stats, loc: KST, now: time.Now}
}

// load returns the stored stats or a zero row for userID.
func (s *Service) load(ctx context.Context, userID string) (*models.GrowthStats, error) {
	st, err := s.stats.GetStats(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.GrowthStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

func (s *Service) update(ctx context.Context, userID, key string, fn func(st *models.GrowthStats, now time.Time) *models.WeeklyPoint) (*models.GrowthStats, error) {
	now := s.now()
	st, applied, err := s.stats.ApplyStats(ctx, userID, key, func(st *models.GrowthStats) *models.WeeklyPoint {
		return fn(st, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update stats: %w", err)
	}
	if !applied {
		logging.Ctx(ctx).Debug().Str("user_id", userID).Str("key", key).Msg("stats update already applied")
	}
	return st, nil
}

// RecordConversation counts a finished conversation and its messages,
// advances the streak and, when fb is non-nil, folds it into the averages.
func (s *Service) RecordConversation(ctx context.Context, userID, key string, messages int, fb *models.Feedback) (*models.GrowthStats, error) {
	return s.update(ctx, userID, key, func(st *models.GrowthStats, now time.Time) *models.WeeklyPoint {
		st.TotalConversations++
		if messages > 0 {
			st.TotalMessages += messages
		}
		s.advanceStreak(st, now)
		return s.foldFeedback(st, fb, now)
	})
}

// RecordActivity counts messages from a chat turn and advances the
// streak, so a day counts even if no conversation is ended.
func (s *Service) RecordActivity(ctx context.Context, userID, key string, messages int) (*models.GrowthStats, error) {
	return s.update(ctx, userID, key, func(st *models.GrowthStats, now time.Time) *models.WeeklyPoint {
		if messages > 0 {
			st.TotalMessages += messages
		}
		s.advanceStreak(st, now)
		return nil
	})
}

// RecordCoaching counts a completed coaching session and folds fb, when
// non-nil, into the averages.
func (s *Service) RecordCoaching(ctx context.Context, userID, key string, fb *models.Feedback) (*models.GrowthStats, error) {
	return s.update(ctx, userID, key, func(st *models.GrowthStats, now time.Time) *models.WeeklyPoint {
		st.CoachingSessions++
		s.advanceStreak(st, now)
		return s.foldFeedback(st, fb, now)
	})
}

// RecordFeedback folds fb into the running averages and the current
// week's point.
func (s *Service) RecordFeedback(ctx context.Context, userID, key string, fb models.Feedback) (*models.GrowthStats, error) {
	return s.update(ctx, userID, key, func(st *models.GrowthStats, now time.Time) *models.WeeklyPoint {
		return s.foldFeedback(st, &fb, now)
	})
}

// foldFeedback updates the running averages and returns the week's point.
func (s *Service) foldFeedback(st *models.GrowthStats, fb *models.Feedback, now time.Time) *models.WeeklyPoint {
	if fb == nil {
		return nil
	}
	n := float64(st.FeedbackCount)
	st.AvgFriendliness = (st.AvgFriendliness*n + float64(fb.Friendliness)) / (n + 1)
	st.AvgCuriosity = (st.AvgCuriosity*n + float64(fb.Curiosity)) / (n + 1)
	st.AvgEmpathy = (st.AvgEmpathy*n + float64(fb.Empathy)) / (n + 1)
	st.FeedbackCount++
	return &models.WeeklyPoint{
		WeekStart:     WeekStart(now.In(s.loc)).Format(dateLayout),
		Friendliness:  float64(fb.Friendliness),
		Curiosity:     float64(fb.Curiosity),
		Empathy:       float64(fb.Empathy),
		Conversations: 1,
	}
}

// advanceStreak applies one day of activity at now.
func (s *Service) advanceStreak(st *models.GrowthStats, now time.Time) {
	today := now.In(s.loc).Format(dateLayout)
	st.StreakDays = NextStreak(st.StreakDays, st.LastActiveDate, today)
	st.LastActiveDate = today
}

// NextStreak returns the streak after activity on today, given the last
// active date. Same day keeps the streak, the next day extends it and any
// gap restarts it at 1.
func NextStreak(current int, lastActive, today string) int {
	if lastActive == today {
		if current < 1 {
			return 1
		}
		return current
	}
	last, err := time.Parse(dateLayout, lastActive)
	if err != nil {
		return 1
	}
	t, err := time.Parse(dateLayout, today)
	if err != nil {
		return 1
	}
	if last.AddDate(0, 0, 1).Equal(t) {
		return current + 1
	}
	return 1
}

// WeekStart returns midnight of the Monday starting t's week, in t's zone.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// Summary returns the user's stats. Users without activity get zeros.
// A streak whose last day is before yesterday is reported as broken.
func (s *Service) Summary(ctx context.Context, userID string) (*models.GrowthStats, error) {
	st, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.LastActiveDate != "" {
		today := s.now().In(s.loc)
		yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
		if st.LastActiveDate != today.Format(dateLayout) && st.LastActiveDate != yesterday {
			st.StreakDays = 0
		}
	}
	return st, nil
}

// Weekly returns exactly weeks points ending with the current week,
// oldest first. Weeks without feedback are zero points.
func (s *Service) Weekly(ctx context.Context, userID string, weeks int) ([]models.WeeklyPoint, error) {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if weeks > MaxWeeks {
		weeks = MaxWeeks
	}

	stored, err := s.stats.Weekly(ctx, userID, weeks)
	if err != nil {
		return nil, fmt.Errorf("load weekly stats: %w", err)
	}
	byWeek := make(map[string]models.WeeklyPoint, len(stored))
	for _, p := range stored {
		byWeek[p.WeekStart] = p
	}

	current := WeekStart(s.now().In(s.loc))
	out := make([]models.WeeklyPoint, weeks)
	for i := 0; i < weeks; i++ {
		key := current.AddDate(0, 0, -7*(weeks-1-i)).Format(dateLayout)
		if p, ok := byWeek[key]; ok {
			out[i] = p
		} else {
			out[i] = models.WeeklyPoint{WeekStart: key}
		}
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Int("weeks", weeks).Int("stored", len(stored)).Msg("weekly stats loaded")
	return out, nil
}
