// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

type personaRow struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Age               int            `db:"age"`
	Gender            string         `db:"gender"`
	MBTI              string         `db:"mbti"`
	Job               string         `db:"job"`
	Avatar            string         `db:"avatar"`
	Intro             string         `db:"intro"`
	Interests         pq.StringArray `db:"interests"`
	Tags              pq.StringArray `db:"tags"`
	ConversationStyle string         `db:"conversation_style"`
	SystemPrompt      string         `db:"system_prompt"`
	Difficulty        string         `db:"difficulty"`
	IsTutorial        bool           `db:"is_tutorial"`
	IsCoach           bool           `db:"is_coach"`
	Specialty         string         `db:"specialty"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r *personaRow) toModel() *models.Persona {
	return &models.Persona{
		ID:                r.ID,
		Name:              r.Name,
		Age:               r.Age,
		Gender:            r.Gender,
		MBTI:              r.MBTI,
		Job:               r.Job,
		Avatar:            r.Avatar,
		Intro:             r.Intro,
		Interests:         []string(r.Interests),
		Tags:              []string(r.Tags),
		ConversationStyle: r.ConversationStyle,
		SystemPrompt:      r.SystemPrompt,
		Difficulty:        models.Difficulty(r.Difficulty),
		IsTutorial:        r.IsTutorial,
		IsCoach:           r.IsCoach,
		Specialty:         r.Specialty,
		CreatedAt:         r.CreatedAt,
	}
}

const personaColumns = `id, name, age, gender, mbti, job, avatar, intro, interests, tags,
	conversation_style, system_prompt, difficulty, is_tutorial, is_coach, specialty, created_at`

func (s *Store) ListPersonas(ctx context.Context, filter models.PersonaFilter) ([]*models.Persona, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if filter.Gender != "" {
		add("gender = ?", filter.Gender)
	}
	if filter.MBTI != "" {
		add("mbti = ?", filter.MBTI)
	}
	if filter.Difficulty != "" {
		add("difficulty = ?", string(filter.Difficulty))
	}
	if filter.Coaches != nil {
		add("is_coach = ?", *filter.Coaches)
	}
	if filter.Tutorial != nil {
		add("is_tutorial = ?", *filter.Tutorial)
	}

	query := `SELECT ` + personaColumns + ` FROM personas`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	var rows []personaRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.Persona, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *Store) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	var row personaRow
	err := s.db.GetContext(ctx, &row, `SELECT `+personaColumns+` FROM personas WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (s *Store) CreatePersona(ctx context.Context, p *models.Persona) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personas (`+personaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, p.ID, p.Name, p.Age, p.Gender, p.MBTI, p.Job, p.Avatar, p.Intro,
		pq.Array(nonNil(p.Interests)), pq.Array(nonNil(p.Tags)),
		p.ConversationStyle, p.SystemPrompt, string(p.Difficulty), p.IsTutorial, p.IsCoach, p.Specialty, p.CreatedAt)
	return mapError(err)
}

func (s *Store) UpdatePersona(ctx context.Context, p *models.Persona) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE personas
		SET name = $2, age = $3, gender = $4, mbti = $5, job = $6, avatar = $7, intro = $8,
		    interests = $9, tags = $10, conversation_style = $11, system_prompt = $12,
		    difficulty = $13, is_tutorial = $14, is_coach = $15, specialty = $16
		WHERE id = $1
	`, p.ID, p.Name, p.Age, p.Gender, p.MBTI, p.Job, p.Avatar, p.Intro,
		pq.Array(nonNil(p.Interests)), pq.Array(nonNil(p.Tags)),
		p.ConversationStyle, p.SystemPrompt, string(p.Difficulty), p.IsTutorial, p.IsCoach, p.Specialty)
	return expectRow(res, err)
}

// DeletePersona returns storage.ErrConflict while conversations reference the persona.
func (s *Store) DeletePersona(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM personas WHERE id = $1`, id)
	return expectRow(res, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ storage.PersonaStore = (*Store)(nil)
