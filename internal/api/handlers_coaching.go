// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// ListCoaches handles GET /coaching/coaches.
func (h *Handler) ListCoaches(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.coaching.ListCoaches(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if coaches == nil {
		coaches = []*models.Persona{}
	}
	NewResponseWriter(w, r).List(coaches, len(coaches))
}

// StartSession handles POST /coaching/sessions. An empty coachId picks
// the default coach.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	started, err := h.coaching.StartSession(r.Context(), userID(r), req.CoachID, req.Topic)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(started)
}

// ListSessions handles GET /coaching/sessions?limit=.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.coaching.ListSessions(r.Context(), userID(r), getIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*models.CoachingSession{}
	}
	NewResponseWriter(w, r).List(sessions, len(sessions))
}

// GetSession handles GET /coaching/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.coaching.GetSession(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, s)
}

// SessionMessage handles POST /coaching/sessions/{id}/messages. With
// ?stream=true the reply is sent as server-sent events.
func (h *Handler) SessionMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	uid, sessionID := userID(r), chi.URLParam(r, "id")

	if getBoolParam(r, "stream") {
		h.serveStream(w, r, func(ctx context.Context, onDelta chat.DeltaFunc) (interface{}, error) {
			return h.coaching.StreamMessage(ctx, uid, sessionID, req.Content, onDelta)
		})
		return
	}

	reply, err := h.coaching.SendMessage(r.Context(), uid, sessionID, req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, reply)
}

// EndSession handles POST /coaching/sessions/{id}/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.coaching.EndSession(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, s)
}
