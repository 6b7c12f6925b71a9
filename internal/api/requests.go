// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// Request bodies validated with go-playground/validator tags. Field names
// in validation errors come from the json tags.

// UpdateProfileRequest is the body of PUT /users/me. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	Name              *string   `json:"name" validate:"omitempty,min=1,max=20"`
	Gender            *string   `json:"gender" validate:"omitempty,oneof=male female other"`
	PartnerGender     *string   `json:"partnerGender" validate:"omitempty,oneof=male female other any"`
	Interests         *[]string `json:"interests" validate:"omitempty,max=10,dive,min=1,max=30"`
	MBTI              *string   `json:"mbti" validate:"omitempty,mbti"`
	ConversationStyle *string   `json:"conversationStyle" validate:"omitempty,max=100"`
}

// PersonaRequest is the body of persona create and update.
type PersonaRequest struct {
	ID                string   `json:"id" validate:"omitempty,min=1,max=64"`
	Name              string   `json:"name" validate:"required,min=1,max=30"`
	Age               int      `json:"age" validate:"required,gte=18,lte=99"`
	Gender            string   `json:"gender" validate:"required,oneof=male female other"`
	MBTI              string   `json:"mbti" validate:"required,mbti"`
	Job               string   `json:"job" validate:"max=50"`
	Avatar            string   `json:"avatar" validate:"omitempty,url"`
	Intro             string   `json:"intro" validate:"max=500"`
	Interests         []string `json:"interests" validate:"max=10,dive,min=1,max=30"`
	Tags              []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
	ConversationStyle string   `json:"conversationStyle" validate:"max=100"`
	SystemPrompt      string   `json:"systemPrompt" validate:"max=4000"`
	Difficulty        string   `json:"difficulty" validate:"omitempty,oneof=easy normal hard"`
	IsCoach           bool     `json:"isCoach"`
	Specialty         string   `json:"specialty" validate:"required_if=IsCoach true,max=100"`
}

// toPersona copies the request into a persona. Difficulty defaults to normal.
func (p *PersonaRequest) toPersona() *models.Persona {
	d := models.Difficulty(p.Difficulty)
	if d == "" {
		d = models.DifficultyNormal
	}
	return &models.Persona{
		ID:                p.ID,
		Name:              p.Name,
		Age:               p.Age,
		Gender:            p.Gender,
		MBTI:              p.MBTI,
		Job:               p.Job,
		Avatar:            p.Avatar,
		Intro:             p.Intro,
		Interests:         nonNil(p.Interests),
		Tags:              nonNil(p.Tags),
		ConversationStyle: p.ConversationStyle,
		SystemPrompt:      p.SystemPrompt,
		Difficulty:        d,
		IsCoach:           p.IsCoach,
		Specialty:         p.Specialty,
	}
}

// SurveyRequest is the body of POST /onboarding/survey.
type SurveyRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required"`
}

// StartConversationRequest is the body of POST /conversations.
type StartConversationRequest struct {
	PersonaID string `json:"personaId" validate:"omitempty,max=64"`
	Kind      string `json:"kind" validate:"omitempty,oneof=persona tutorial"`
}

// SendMessageRequest is the body of chat and coaching message routes.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CompletionRequest is the body of the raw chat completion proxy.
type CompletionRequest struct {
	Messages []llm.Message `json:"messages" validate:"required,min=1,max=50,dive"`
}

// RealtimeTipRequest is the body of POST /feedback/realtime.
type RealtimeTipRequest struct {
	Message   string `json:"message" validate:"required,max=2000"`
	PersonaID string `json:"personaId" validate:"omitempty,max=64"`
}

// StartSessionRequest is the body of POST /coaching/sessions.
type StartSessionRequest struct {
	CoachID string `json:"coachId" validate:"omitempty,max=64"`
	Topic   string `json:"topic" validate:"max=200"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
