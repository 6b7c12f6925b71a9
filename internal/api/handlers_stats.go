// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// CountResponse carries a single counter.
type CountResponse struct {
	Count int `json:"count"`
}

// GrowthStats handles GET /stats/growth.
func (h *Handler) GrowthStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.growth.Summary(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, st)
}

// WeeklyStats handles GET /stats/weekly?weeks=.
func (h *Handler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	points, err := h.growth.Weekly(r.Context(), userID(r), getIntParam(r, "weeks", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(points, len(points))
}

// Badges handles GET /badges. Every badge is listed with the caller's
// acquisition state.
func (h *Handler) Badges(w http.ResponseWriter, r *http.Request) {
	list, err := h.badges.List(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []models.BadgeStatus{}
	}
	NewResponseWriter(w, r).List(list, len(list))
}

// Notifications handles GET /notifications?unread=&limit=.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), userID(r), getBoolParam(r, "unread"), getIntParam(r, "limit", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	NewResponseWriter(w, r).List(list, len(list))
}

// UnreadCount handles GET /notifications/unread-count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.UnreadCount(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, CountResponse{Count: n})
}

// MarkNotificationRead handles POST /notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// MarkAllNotificationsRead handles POST /notifications/read-all and
// returns how many notifications changed.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	WriteSuccess(w, r, CountResponse{Count: n})
}
