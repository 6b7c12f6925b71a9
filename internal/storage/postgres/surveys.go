// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

func (s *Store) SaveSurvey(ctx context.Context, r *models.SurveyResponse) error {
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = s.now()
	}
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("encode survey answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_responses (user_id, answers, submitted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET answers = EXCLUDED.answers, submitted_at = EXCLUDED.submitted_at
	`, r.UserID, answers, r.SubmittedAt)
	return mapError(err)
}

func (s *Store) GetSurvey(ctx context.Context, userID string) (*models.SurveyResponse, error) {
	var row struct {
		UserID      string    `db:"user_id"`
		Answers     []byte    `db:"answers"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT user_id, answers, submitted_at FROM survey_responses WHERE user_id = $1`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	out := &models.SurveyResponse{UserID: row.UserID, SubmittedAt: row.SubmittedAt}
	if err := json.Unmarshal(row.Answers, &out.Answers); err != nil {
		return nil, fmt.Errorf("decode survey answers: %w", err)
	}
	return out, nil
}
