// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"net/http"

	"github.com/big-teddy/Qupid-sub001/internal/chat"
)

// TipResponse is returned by POST /feedback/realtime.
type TipResponse struct {
	Tip string `json:"tip"`
}

// Completions handles POST /chat/completions.
func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	var req CompletionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	resp, err := h.chat.Complete(r.Context(), req.Messages)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, resp)
}

// StreamCompletions handles POST /chat/completions/stream.
func (h *Handler) StreamCompletions(w http.ResponseWriter, r *http.Request) {
	var req CompletionRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	h.serveStream(w, r, func(ctx context.Context, onDelta chat.DeltaFunc) (interface{}, error) {
		return h.chat.StreamComplete(ctx, req.Messages, onDelta)
	})
}

// RealtimeTip handles POST /feedback/realtime.
func (h *Handler) RealtimeTip(w http.ResponseWriter, r *http.Request) {
	var req RealtimeTipRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	tip, err := h.chat.RealtimeTip(r.Context(), userID(r), req.PersonaID, req.Message)
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, TipResponse{Tip: tip})
}
