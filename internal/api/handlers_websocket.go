// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	ws "github.com/big-teddy/Qupid-sub001/internal/websocket"
)

// registerTimeout bounds the wait for the hub to accept a new client.
const registerTimeout = 5 * time.Second

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts requests without an Origin header, which
// come from the mobile app, and browser origins on the CORS allow list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", logging.SanitizeValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket handles GET /ws. The connection receives the caller's
// notification, badge and coaching push messages.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.CtxErr(r.Context(), err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn, userID(r))
	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()
	select {
	case h.hub.Register <- client:
		client.Start()
	case <-timer.C:
		logging.Ctx(r.Context()).Warn().Msg("WebSocket hub did not accept client")
		_ = conn.Close()
	}
}
