// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// ListPersonas handles GET /personas?gender=&mbti=&difficulty=. Coaches
// and the tutorial guide are listed elsewhere.
func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	no := false
	filter := models.PersonaFilter{
		Gender:     q.Get("gender"),
		Difficulty: models.Difficulty(q.Get("difficulty")),
		Coaches:    &no,
		Tutorial:   &no,
	}
	if filter.Gender != "" && !models.ValidGender(filter.Gender) {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
			"gender must be one of: male female other", map[string]string{"field": "gender"})
		return
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
			"difficulty must be one of: easy normal hard", map[string]string{"field": "difficulty"})
		return
	}
	if raw := q.Get("mbti"); raw != "" {
		code, err := prompt.ParseMBTI(raw)
		if err != nil {
			NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
				"mbti must be a four-letter MBTI type such as ENFP", map[string]string{"field": "mbti"})
			return
		}
		filter.MBTI = code
	}

	personas, err := h.personas.ListPersonas(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if personas == nil {
		personas = []*models.Persona{}
	}
	NewResponseWriter(w, r).List(personas, len(personas))
}

// RecommendedPersonas handles GET /personas/recommended?limit=.
func (h *Handler) RecommendedPersonas(w http.ResponseWriter, r *http.Request) {
	recs, err := h.onboarding.RecommendedPersonas(r.Context(), userID(r), getIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(recs, len(recs))
}

// GetPersona handles GET /personas/{id}.
func (h *Handler) GetPersona(w http.ResponseWriter, r *http.Request) {
	p, err := h.personas.GetPersona(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = chat.ErrPersonaNotFound
		}
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, p)
}

// CreatePersona handles POST /personas (admin).
func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req PersonaRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p := req.toPersona()
	p.MBTI = strings.ToUpper(p.MBTI)
	if err := h.personas.CreatePersona(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("persona_id", p.ID).Msg("persona created")
	NewResponseWriter(w, r).Created(p)
}

// UpdatePersona handles PUT /personas/{id} (admin). The path ID wins over
// any ID in the body.
func (h *Handler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	var req PersonaRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if req.ID != "" && req.ID != id {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
			"id in body does not match the path", map[string]string{"field": "id"})
		return
	}
	existing, err := h.personas.GetPersona(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = chat.ErrPersonaNotFound
		}
		respondError(w, r, err)
		return
	}

	p := req.toPersona()
	p.ID = id
	p.MBTI = strings.ToUpper(p.MBTI)
	p.IsTutorial = existing.IsTutorial
	p.CreatedAt = existing.CreatedAt
	if err := h.personas.UpdatePersona(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, p)
}

// DeletePersona handles DELETE /personas/{id} (admin). The tutorial guide
// cannot be deleted.
func (h *Handler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == storage.TutorialPersonaID {
		NewResponseWriter(w, r).Conflict("the tutorial persona cannot be deleted")
		return
	}
	if err := h.personas.DeletePersona(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = chat.ErrPersonaNotFound
		}
		respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("persona_id", id).Msg("persona deleted")
	NewResponseWriter(w, r).NoContent()
}
