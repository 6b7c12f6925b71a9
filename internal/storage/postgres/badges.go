// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

type badgeRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Icon        string `db:"icon"`
	Rule        string `db:"rule"`
}

type userBadgeRow struct {
	UserID     string    `db:"user_id"`
	BadgeID    string    `db:"badge_id"`
	AcquiredAt time.Time `db:"acquired_at"`
}

func (s *Store) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	var rows []badgeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, description, icon, rule FROM badges ORDER BY id`); err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.Badge, len(rows))
	for i := range rows {
		b := models.Badge(rows[i])
		out[i] = &b
	}
	return out, nil
}

func (s *Store) UpsertBadge(ctx context.Context, b *models.Badge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO badges (id, name, description, icon, rule)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			rule = EXCLUDED.rule
	`, b.ID, b.Name, b.Description, b.Icon, b.Rule)
	return mapError(err)
}

func (s *Store) UserBadges(ctx context.Context, userID string) ([]*models.UserBadge, error) {
	var rows []userBadgeRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, badge_id, acquired_at FROM user_badges
		WHERE user_id = $1
		ORDER BY acquired_at
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.UserBadge, len(rows))
	for i := range rows {
		ub := models.UserBadge(rows[i])
		out[i] = &ub
	}
	return out, nil
}

// AwardBadge relies on the primary key for idempotency: a conflicting
// insert affects no rows.
func (s *Store) AwardBadge(ctx context.Context, userID, badgeID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_badges (user_id, badge_id, acquired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`, userID, badgeID, at.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return false, storage.ErrNotFound
		}
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
