// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// QuestionKind is the answer shape of a survey question.
type QuestionKind string

// Survey question kinds.
const (
	QuestionSingle QuestionKind = "single"
	QuestionMulti  QuestionKind = "multi"
	QuestionText   QuestionKind = "text"
)

// SurveyQuestion is one onboarding question. ProfileField names the
// profile attribute the answer is copied into, if any.
type SurveyQuestion struct {
	ID           string       `json:"id"`
	Prompt       string       `json:"prompt"`
	Kind         QuestionKind `json:"kind"`
	Options      []string     `json:"options,omitempty"`
	ProfileField string       `json:"profileField,omitempty"`
	Required     bool         `json:"required"`
}

// SurveyResponse stores the raw answers keyed by question ID. Single and
// text answers are strings, multi answers are string slices.
type SurveyResponse struct {
	UserID      string                 `json:"userId"`
	Answers     map[string]interface{} `json:"answers"`
	SubmittedAt time.Time              `json:"submittedAt"`
}
