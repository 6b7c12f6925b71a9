// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// Badge is an achievement definition. Rule names the evaluator that awards it.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rule        string `json:"rule"`
}

// UserBadge records that a user earned a badge.
type UserBadge struct {
	UserID     string    `json:"userId"`
	BadgeID    string    `json:"badgeId"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// BadgeStatus is a badge with the caller's acquisition state.
type BadgeStatus struct {
	Badge
	Acquired   bool       `json:"acquired"`
	AcquiredAt *time.Time `json:"acquiredAt,omitempty"`
}

// Built-in badge IDs. The badges package evaluates one rule per ID.
const (
	BadgeFirstConversation = "first-conversation"
	BadgeTenConversations  = "ten-conversations"
	BadgeHundredMessages   = "hundred-messages"
	BadgeFirstCoaching     = "first-coaching"
	BadgeStreak3           = "streak-3"
	BadgeStreak7           = "streak-7"
	BadgeEmpathyMaster     = "empathy-master"
	BadgeCuriosityMaster   = "curiosity-master"
	BadgeTutorialDone      = "tutorial-done"
	BadgeFirstStep         = "first-step"
)
