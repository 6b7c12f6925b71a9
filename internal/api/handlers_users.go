// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/tutorial"
)

// loadOrCreateProfile returns the caller's profile, creating one named
// after the token's display name on first access.
func (h *Handler) loadOrCreateProfile(ctx context.Context) (*models.UserProfile, error) {
	claims, _ := auth.ClaimsFromContext(ctx)
	u, err := h.users.GetUser(ctx, claims.UserID())
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	u = &models.UserProfile{
		ID:        claims.UserID(),
		Name:      claims.DisplayName(),
		Interests: []string{},
	}
	if err := h.users.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetProfile handles GET /users/me.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOrCreateProfile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// UpdateProfile handles PUT /users/me. Only fields present in the body
// change.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.loadOrCreateProfile(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
	if req.PartnerGender != nil {
		u.PartnerGender = *req.PartnerGender
		if u.PartnerGender == "any" {
			u.PartnerGender = ""
		}
	}
	if req.Interests != nil {
		u.Interests = dedupe(*req.Interests)
	}
	if req.MBTI != nil {
		// Validated by the mbti tag; ParseMBTI only normalizes case here.
		code, _ := prompt.ParseMBTI(*req.MBTI)
		u.MBTI = code
	}
	if req.ConversationStyle != nil {
		u.ConversationStyle = strings.TrimSpace(*req.ConversationStyle)
	}

	if err := h.users.UpsertUser(r.Context(), u); err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// SurveyQuestions handles GET /onboarding/survey.
func (h *Handler) SurveyQuestions(w http.ResponseWriter, r *http.Request) {
	questions := h.onboarding.Questions()
	NewResponseWriter(w, r).List(questions, len(questions))
}

// SubmitSurvey handles POST /onboarding/survey and returns the updated
// profile.
func (h *Handler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var req SurveyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := h.onboarding.Submit(r.Context(), userID(r), req.Answers)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, u)
}

// TutorialSteps handles GET /tutorial/steps.
func (h *Handler) TutorialSteps(w http.ResponseWriter, r *http.Request) {
	steps := tutorial.Steps()
	NewResponseWriter(w, r).List(steps, len(steps))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
