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

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

type sessionRow struct {
	ID             string     `db:"id"`
	UserID         string     `db:"user_id"`
	CoachID        string     `db:"coach_id"`
	ConversationID string     `db:"conversation_id"`
	Topic          string     `db:"topic"`
	Status         string     `db:"status"`
	Feedback       []byte     `db:"feedback"`
	StartedAt      time.Time  `db:"started_at"`
	EndedAt        *time.Time `db:"ended_at"`
}

func (r *sessionRow) toModel() (*models.CoachingSession, error) {
	cs := &models.CoachingSession{
		ID:             r.ID,
		UserID:         r.UserID,
		CoachID:        r.CoachID,
		ConversationID: r.ConversationID,
		Topic:          r.Topic,
		Status:         r.Status,
		StartedAt:      r.StartedAt,
		EndedAt:        r.EndedAt,
	}
	if len(r.Feedback) > 0 {
		var fb models.Feedback
		if err := json.Unmarshal(r.Feedback, &fb); err != nil {
			return nil, fmt.Errorf("decode feedback for session %s: %w", r.ID, err)
		}
		cs.Feedback = &fb
	}
	return cs, nil
}

const sessionColumns = `id, user_id, coach_id, conversation_id, topic, status, feedback, started_at, ended_at`

func (s *Store) CreateSession(ctx context.Context, cs *models.CoachingSession) error {
	if cs.ID == "" {
		cs.ID = newID()
	}
	if cs.StartedAt.IsZero() {
		cs.StartedAt = s.now()
	}
	if cs.Status == "" {
		cs.Status = models.SessionActive
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coaching_sessions (id, user_id, coach_id, conversation_id, topic, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, cs.ID, cs.UserID, cs.CoachID, cs.ConversationID, cs.Topic, cs.Status, cs.StartedAt)
	return mapError(err)
}

func (s *Store) GetSession(ctx context.Context, id string) (*models.CoachingSession, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM coaching_sessions WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.toModel()
}

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]*models.CoachingSession, error) {
	var rows []sessionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+sessionColumns+` FROM coaching_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limitArg(limit))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.CoachingSession, 0, len(rows))
	for i := range rows {
		cs, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func (s *Store) CompleteSession(ctx context.Context, id string, fb *models.Feedback, at time.Time) error {
	payload, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE coaching_sessions
		SET status = $2, feedback = $3, ended_at = $4
		WHERE id = $1 AND status <> $2
	`, id, models.SessionCompleted, payload, at.UTC())
	if err := expectRow(res, err); !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	return storage.ErrConflict
}
