// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// Difficulty controls how cooperative a persona is in conversation.
type Difficulty string

// Persona difficulty levels.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}

// Persona is an AI chat character. Coaches are personas with IsCoach set
// and a Specialty; the tutorial partner has IsTutorial set.
type Persona struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Age               int        `json:"age"`
	Gender            string     `json:"gender"`
	MBTI              string     `json:"mbti"`
	Job               string     `json:"job,omitempty"`
	Avatar            string     `json:"avatar,omitempty"`
	Intro             string     `json:"intro,omitempty"`
	Interests         []string   `json:"interests"`
	Tags              []string   `json:"tags"`
	ConversationStyle string     `json:"conversationStyle,omitempty"`
	SystemPrompt      string     `json:"systemPrompt,omitempty"`
	Difficulty        Difficulty `json:"difficulty"`
	IsTutorial        bool       `json:"isTutorial"`
	IsCoach           bool       `json:"isCoach"`
	Specialty         string     `json:"specialty,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// PersonaFilter narrows persona listings. Zero values match everything.
type PersonaFilter struct {
	Gender     string
	MBTI       string
	Difficulty Difficulty
	// Coaches selects coach personas when non-nil.
	Coaches *bool
	// Tutorial selects the tutorial persona when non-nil.
	Tutorial *bool
}

// Matches reports whether p passes the filter.
func (f PersonaFilter) Matches(p *Persona) bool {
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	if f.MBTI != "" && p.MBTI != f.MBTI {
		return false
	}
	if f.Difficulty != "" && p.Difficulty != f.Difficulty {
		return false
	}
	if f.Coaches != nil && p.IsCoach != *f.Coaches {
		return false
	}
	if f.Tutorial != nil && p.IsTutorial != *f.Tutorial {
		return false
	}
	return true
}
