// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

type profileRow struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Gender              string         `db:"gender"`
	PartnerGender       string         `db:"partner_gender"`
	Interests           pq.StringArray `db:"interests"`
	MBTI                string         `db:"mbti"`
	ConversationStyle   string         `db:"conversation_style"`
	IsTutorialCompleted bool           `db:"is_tutorial_completed"`
	OnboardingCompleted bool           `db:"onboarding_completed"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
	LastActiveAt        *time.Time     `db:"last_active_at"`
}

func (r *profileRow) toModel() *models.UserProfile {
	return &models.UserProfile{
		ID:                  r.ID,
		Name:                r.Name,
		Gender:              r.Gender,
		PartnerGender:       r.PartnerGender,
		Interests:           []string(r.Interests),
		MBTI:                r.MBTI,
		ConversationStyle:   r.ConversationStyle,
		IsTutorialCompleted: r.IsTutorialCompleted,
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		LastActiveAt:        r.LastActiveAt,
	}
}

const profileColumns = `id, name, gender, partner_gender, interests, mbti, conversation_style,
	is_tutorial_completed, onboarding_completed, created_at, updated_at, last_active_at`

func (s *Store) GetUser(ctx context.Context, id string) (*models.UserProfile, error) {
	var row profileRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (s *Store) UpsertUser(ctx context.Context, u *models.UserProfile) error {
	ts := s.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = ts
	}
	u.UpdatedAt = ts
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, gender, partner_gender, interests, mbti, conversation_style,
			is_tutorial_completed, onboarding_completed, created_at, updated_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			gender = EXCLUDED.gender,
			partner_gender = EXCLUDED.partner_gender,
			interests = EXCLUDED.interests,
			mbti = EXCLUDED.mbti,
			conversation_style = EXCLUDED.conversation_style,
			is_tutorial_completed = EXCLUDED.is_tutorial_completed,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = EXCLUDED.updated_at,
			last_active_at = COALESCE(EXCLUDED.last_active_at, profiles.last_active_at)
	`, u.ID, u.Name, u.Gender, u.PartnerGender, pq.Array(nonNil(u.Interests)), u.MBTI, u.ConversationStyle,
		u.IsTutorialCompleted, u.OnboardingCompleted, u.CreatedAt, u.UpdatedAt, u.LastActiveAt)
	return mapError(err)
}

func (s *Store) TouchUser(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, created_at, updated_at, last_active_at)
		VALUES ($1, $2, $2, $2)
		ON CONFLICT (id) DO UPDATE SET last_active_at = EXCLUDED.last_active_at
	`, id, at.UTC())
	return mapError(err)
}

func (s *Store) ListInactiveUsers(ctx context.Context, cutoff time.Time) ([]*models.UserProfile, error) {
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+profileColumns+` FROM profiles
		WHERE last_active_at IS NOT NULL AND last_active_at < $1
		ORDER BY id
	`, cutoff.UTC())
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.UserProfile, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}
