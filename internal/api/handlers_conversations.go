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

// QuickRepliesResponse is returned by GET /conversations/{id}/quick-replies.
type QuickRepliesResponse struct {
	Step    int      `json:"step"`
	Replies []string `json:"replies"`
}

// StartConversation handles POST /conversations. An empty kind means a
// persona chat; the tutorial kind ignores personaId.
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	kind := models.ConversationKind(req.Kind)
	if kind == "" {
		kind = models.KindPersona
	}
	if kind == models.KindPersona && req.PersonaID == "" {
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
			"personaId is required", map[string]string{"field": "personaId"})
		return
	}

	c, err := h.chat.StartConversation(r.Context(), userID(r), req.PersonaID, kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(c)
}

// ListConversations handles GET /conversations?limit=.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.ListConversations(r.Context(), userID(r), getIntParam(r, "limit", chat.DefaultListLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	NewResponseWriter(w, r).List(convs, len(convs))
}

// ConversationMessages handles GET /conversations/{id}/messages?limit=.
func (h *Handler) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.History(r.Context(), userID(r), chi.URLParam(r, "id"), getIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	NewResponseWriter(w, r).List(msgs, len(msgs))
}

// SendMessage handles POST /conversations/{id}/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	reply, err := h.chat.SendMessage(r.Context(), userID(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, reply)
}

// StreamMessage handles POST /conversations/{id}/messages/stream. Reply
// text arrives as "delta" events; the final "done" event carries the same
// body SendMessage returns.
func (h *Handler) StreamMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	uid, convID := userID(r), chi.URLParam(r, "id")
	h.serveStream(w, r, func(ctx context.Context, onDelta chat.DeltaFunc) (interface{}, error) {
		return h.chat.StreamMessage(ctx, uid, convID, req.Content, onDelta)
	})
}

// EndConversation handles POST /conversations/{id}/end.
func (h *Handler) EndConversation(w http.ResponseWriter, r *http.Request) {
	res, err := h.chat.EndConversation(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}

// QuickReplies handles GET /conversations/{id}/quick-replies.
func (h *Handler) QuickReplies(w http.ResponseWriter, r *http.Request) {
	step, replies, err := h.chat.QuickReplies(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, QuickRepliesResponse{Step: step, Replies: replies})
}
