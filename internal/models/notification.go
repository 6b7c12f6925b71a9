// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// NotificationKind categorises notifications for client-side icons.
type NotificationKind string

// Notification kinds.
const (
	NotifyBadge    NotificationKind = "badge"
	NotifyCoaching NotificationKind = "coaching"
	NotifyReminder NotificationKind = "reminder"
	NotifySystem   NotificationKind = "system"
)

// Notification is an in-app notification.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
