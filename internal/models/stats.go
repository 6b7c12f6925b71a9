// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// GrowthStats is the gamified per-user progress row (Supabase "user_stats").
type GrowthStats struct {
	UserID             string    `json:"userId"`
	TotalConversations int       `json:"totalConversations"`
	TotalMessages      int       `json:"totalMessages"`
	CoachingSessions   int       `json:"coachingSessions"`
	FeedbackCount      int       `json:"feedbackCount"`
	AvgFriendliness    float64   `json:"avgFriendliness"`
	AvgCuriosity       float64   `json:"avgCuriosity"`
	AvgEmpathy         float64   `json:"avgEmpathy"`
	StreakDays         int       `json:"streakDays"`
	LastActiveDate     string    `json:"lastActiveDate,omitempty"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// WeeklyPoint aggregates feedback scores for one ISO week starting Monday.
// WeekStart is formatted as YYYY-MM-DD.
type WeeklyPoint struct {
	WeekStart     string  `json:"weekStart"`
	Friendliness  float64 `json:"friendliness"`
	Curiosity     float64 `json:"curiosity"`
	Empathy       float64 `json:"empathy"`
	Conversations int     `json:"conversations"`
}

// MergeWeekly combines two points for the same week, weighting each score
// average by its conversation count.
func MergeWeekly(a, b WeeklyPoint) WeeklyPoint {
	n := a.Conversations + b.Conversations
	if n == 0 {
		return a
	}
	wa, wb := float64(a.Conversations), float64(b.Conversations)
	mean := func(x, y float64) float64 { return (x*wa + y*wb) / float64(n) }
	return WeeklyPoint{
		WeekStart:     a.WeekStart,
		Friendliness:  mean(a.Friendliness, b.Friendliness),
		Curiosity:     mean(a.Curiosity, b.Curiosity),
		Empathy:       mean(a.Empathy, b.Empathy),
		Conversations: n,
	}
}
