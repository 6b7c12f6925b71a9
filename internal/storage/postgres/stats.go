// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

type statsRow struct {
	UserID             string    `db:"user_id"`
	TotalConversations int       `db:"total_conversations"`
	TotalMessages      int       `db:"total_messages"`
	CoachingSessions   int       `db:"coaching_sessions"`
	FeedbackCount      int       `db:"feedback_count"`
	AvgFriendliness    float64   `db:"avg_friendliness"`
	AvgCuriosity       float64   `db:"avg_curiosity"`
	AvgEmpathy         float64   `db:"avg_empathy"`
	StreakDays         int       `db:"streak_days"`
	LastActiveDate     string    `db:"last_active_date"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type weeklyRow struct {
	WeekStart     string  `db:"week_start"`
	Friendliness  float64 `db:"friendliness"`
	Curiosity     float64 `db:"curiosity"`
	Empathy       float64 `db:"empathy"`
	Conversations int     `db:"conversations"`
}

const selectStats = `
	SELECT user_id, total_conversations, total_messages, coaching_sessions, feedback_count,
	       avg_friendliness, avg_curiosity, avg_empathy, streak_days,
	       COALESCE(to_char(last_active_date, 'YYYY-MM-DD'), '') AS last_active_date, updated_at
	FROM user_stats WHERE user_id = $1`

func (s *Store) GetStats(ctx context.Context, userID string) (*models.GrowthStats, error) {
	return getStats(ctx, s.db, selectStats, userID)
}

func getStats(ctx context.Context, q sqlx.QueryerContext, query, userID string) (*models.GrowthStats, error) {
	var r statsRow
	if err := sqlx.GetContext(ctx, q, &r, query, userID); err != nil {
		return nil, mapError(err)
	}
	return &models.GrowthStats{
		UserID:             r.UserID,
		TotalConversations: r.TotalConversations,
		TotalMessages:      r.TotalMessages,
		CoachingSessions:   r.CoachingSessions,
		FeedbackCount:      r.FeedbackCount,
		AvgFriendliness:    r.AvgFriendliness,
		AvgCuriosity:       r.AvgCuriosity,
		AvgEmpathy:         r.AvgEmpathy,
		StreakDays:         r.StreakDays,
		LastActiveDate:     r.LastActiveDate,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

func (s *Store) SaveStats(ctx context.Context, st *models.GrowthStats) error {
	st.UpdatedAt = s.now()
	return saveStats(ctx, s.db, st)
}

func saveStats(ctx context.Context, e sqlx.ExecerContext, st *models.GrowthStats) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, total_conversations, total_messages, coaching_sessions, feedback_count,
			avg_friendliness, avg_curiosity, avg_empathy, streak_days, last_active_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, '')::date, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			total_conversations = EXCLUDED.total_conversations,
			total_messages = EXCLUDED.total_messages,
			coaching_sessions = EXCLUDED.coaching_sessions,
			feedback_count = EXCLUDED.feedback_count,
			avg_friendliness = EXCLUDED.avg_friendliness,
			avg_curiosity = EXCLUDED.avg_curiosity,
			avg_empathy = EXCLUDED.avg_empathy,
			streak_days = EXCLUDED.streak_days,
			last_active_date = EXCLUDED.last_active_date,
			updated_at = EXCLUDED.updated_at
	`, st.UserID, st.TotalConversations, st.TotalMessages, st.CoachingSessions, st.FeedbackCount,
		st.AvgFriendliness, st.AvgCuriosity, st.AvgEmpathy, st.StreakDays, st.LastActiveDate, st.UpdatedAt)
	return mapError(err)
}

// ApplyStats runs fn inside a transaction holding the user's stats row
// lock, so replicas consuming the same queue group never lose an update.
// The key is claimed in user_stats_events in the same transaction.
func (s *Store) ApplyStats(ctx context.Context, userID, key string, fn storage.StatsUpdate) (*models.GrowthStats, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin stats update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if key != "" {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO user_stats_events (user_id, event_key) VALUES ($1, $2)
			ON CONFLICT (user_id, event_key) DO NOTHING
		`, userID, key)
		if err != nil {
			return nil, false, mapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, false, err
		}
		if n == 0 {
			st, err := getStats(ctx, tx, selectStats, userID)
			if errors.Is(err, storage.ErrNotFound) {
				return &models.GrowthStats{UserID: userID}, false, nil
			}
			return st, false, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, false, mapError(err)
	}
	st, err := getStats(ctx, tx, selectStats+" FOR UPDATE", userID)
	if err != nil {
		return nil, false, err
	}

	point := fn(st)
	st.UserID = userID
	st.UpdatedAt = s.now()
	if err := saveStats(ctx, tx, st); err != nil {
		return nil, false, err
	}
	if point != nil {
		if err := addWeekly(ctx, tx, userID, *point); err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit stats update: %w", err)
	}
	return st, true, nil
}

// AddWeekly merges p into the stored week with a conversation weighted mean,
// matching models.MergeWeekly.
func (s *Store) AddWeekly(ctx context.Context, userID string, p models.WeeklyPoint) error {
	return addWeekly(ctx, s.db, userID, p)
}

func addWeekly(ctx context.Context, e sqlx.ExecerContext, userID string, p models.WeeklyPoint) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO user_weekly_stats AS w (user_id, week_start, friendliness, curiosity, empathy, conversations)
		VALUES ($1, $2::date, $3, $4, $5, $6)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			friendliness = COALESCE((w.friendliness * w.conversations + EXCLUDED.friendliness * EXCLUDED.conversations)
				/ NULLIF(w.conversations + EXCLUDED.conversations, 0), w.friendliness),
			curiosity = COALESCE((w.curiosity * w.conversations + EXCLUDED.curiosity * EXCLUDED.conversations)
				/ NULLIF(w.conversations + EXCLUDED.conversations, 0), w.curiosity),
			empathy = COALESCE((w.empathy * w.conversations + EXCLUDED.empathy * EXCLUDED.conversations)
				/ NULLIF(w.conversations + EXCLUDED.conversations, 0), w.empathy),
			conversations = w.conversations + EXCLUDED.conversations
	`, userID, p.WeekStart, p.Friendliness, p.Curiosity, p.Empathy, p.Conversations)
	return mapError(err)
}

func (s *Store) Weekly(ctx context.Context, userID string, weeks int) ([]models.WeeklyPoint, error) {
	var rows []weeklyRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT week_start, friendliness, curiosity, empathy, conversations FROM (
			SELECT to_char(week_start, 'YYYY-MM-DD') AS week_start,
			       friendliness, curiosity, empathy, conversations
			FROM user_weekly_stats
			WHERE user_id = $1
			ORDER BY week_start DESC
			LIMIT $2
		) recent
		ORDER BY week_start
	`, userID, limitArg(weeks))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]models.WeeklyPoint, len(rows))
	for i, r := range rows {
		out[i] = models.WeeklyPoint(r)
	}
	return out, nil
}
