// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package notification stores in-app notifications and pushes them to
// connected WebSocket clients.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/websocket"
)

// ErrNotFound is returned when a notification does not exist or belongs
// to another user.
var ErrNotFound = errors.New("notification not found")

// List limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pusher delivers realtime messages to a user's live connections.
// *websocket.Hub implements it.
type Pusher interface {
	SendToUser(userID, messageType string, data interface{}) bool
}

// Service manages notifications.
type Service struct {
	store  storage.NotificationStore
	pusher Pusher
	now    func() time.Time
}

// NewService creates a notification service. pusher may be nil.
func NewService(store storage.NotificationStore, pusher Pusher) *Service {
	return &Service{store: store, pusher: pusher, now: time.Now}
}

// Notify persists a notification and pushes it to the user's sockets.
// Users without a live connection see it on their next List.
func (s *Service) Notify(ctx context.Context, userID string, kind models.NotificationKind, title, body string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if s.pusher != nil {
		pushed := s.pusher.SendToUser(userID, websocket.MessageTypeNotificationCreated, n)
		logging.Ctx(ctx).Debug().
			Str("notification_id", n.ID).
			Str("kind", string(kind)).
			Bool("pushed", pushed).
			Msg("notification created")
	}
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	list, err := s.store.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return list, nil
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	err := s.store.MarkNotificationRead(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification read and returns how many
// changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// SentSince reports whether the user got a notification of kind since t.
func (s *Service) SentSince(ctx context.Context, userID string, kind models.NotificationKind, t time.Time) (bool, error) {
	return s.store.HasNotificationSince(ctx, userID, kind, t)
}
