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

type conversationRow struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	PersonaID    string     `db:"persona_id"`
	Kind         string     `db:"kind"`
	Status       string     `db:"status"`
	TutorialStep int        `db:"tutorial_step"`
	MessageCount int        `db:"message_count"`
	StartedAt    time.Time  `db:"started_at"`
	EndedAt      *time.Time `db:"ended_at"`
}

func (r *conversationRow) toModel() *models.Conversation {
	return &models.Conversation{
		ID:           r.ID,
		UserID:       r.UserID,
		PersonaID:    r.PersonaID,
		Kind:         models.ConversationKind(r.Kind),
		Status:       models.ConversationStatus(r.Status),
		TutorialStep: r.TutorialStep,
		MessageCount: r.MessageCount,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
}

const conversationColumns = `id, user_id, persona_id, kind, status, tutorial_step, message_count, started_at, ended_at`

func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = s.now()
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.UserID, c.PersonaID, string(c.Kind), string(c.Status), c.TutorialStep, c.MessageCount, c.StartedAt, c.EndedAt)
	return mapError(err)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var row conversationRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return row.toModel(), nil
}

func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	var rows []conversationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, userID, limitArg(limit))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.Conversation, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *Store) UpdateConversationStatus(ctx context.Context, id string, status models.ConversationStatus, at time.Time) error {
	var endedAt *time.Time
	if status == models.StatusEnded {
		t := at.UTC()
		endedAt = &t
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET status = $2, ended_at = $3
		WHERE id = $1 AND status <> $2
	`, id, string(status), endedAt)
	if err := expectRow(res, err); !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	// Nothing updated: either missing or already in that status.
	if _, err := s.GetConversation(ctx, id); err != nil {
		return err
	}
	return storage.ErrConflict
}

func (s *Store) SetTutorialStep(ctx context.Context, id string, step int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET tutorial_step = $2 WHERE id = $1`, id, step)
	return expectRow(res, err)
}

func (s *Store) IncrementMessageCount(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET message_count = message_count + $2 WHERE id = $1`, id, delta)
	return expectRow(res, err)
}

type messageRow struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Sender         string    `db:"sender"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.ConversationID, string(m.Sender), m.Content, m.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return storage.ErrNotFound
	}
	return mapError(err)
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	var rows []messageRow
	// Take the newest rows then restore chronological order.
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, conversation_id, sender, content, created_at FROM (
			SELECT id, conversation_id, sender, content, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id
	`, conversationID, limitArg(limit))
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.Message, len(rows))
	for i, r := range rows {
		out[i] = &models.Message{
			ID:             r.ID,
			ConversationID: r.ConversationID,
			Sender:         models.Sender(r.Sender),
			Content:        r.Content,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out, nil
}

func (s *Store) CountMessages(ctx context.Context, conversationID string, sender models.Sender) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT count(*) FROM messages
		WHERE conversation_id = $1 AND ($2 = '' OR sender = $2)
	`, conversationID, string(sender))
	return n, mapError(err)
}
