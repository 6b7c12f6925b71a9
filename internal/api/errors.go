// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/big-teddy/Qupid-sub001/internal/analysis"
	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/authz"
	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/coaching"
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/notification"
	"github.com/big-teddy/Qupid-sub001/internal/onboarding"
	"github.com/big-teddy/Qupid-sub001/internal/ratelimit"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/validation"
)

// ErrInvalidBody is returned for request bodies that are not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// respondError maps a service error to the envelope. Unknown errors are
// logged and reported as 500 without leaking their text.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		rw.ValidationError(verr)
		return
	}

	switch {
	case errors.Is(err, ErrInvalidBody):
		rw.BadRequest(err.Error())

	case errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, chat.ErrPersonaNotFound),
		errors.Is(err, coaching.ErrSessionNotFound),
		errors.Is(err, coaching.ErrCoachNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		rw.NotFound(rootMessage(err))

	case errors.Is(err, chat.ErrConversationEnded),
		errors.Is(err, coaching.ErrSessionEnded),
		errors.Is(err, storage.ErrConflict):
		rw.Conflict(rootMessage(err))

	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrInvalidKind),
		errors.Is(err, chat.ErrCoachingConversation),
		errors.Is(err, analysis.ErrEmptyMessage),
		errors.Is(err, onboarding.ErrInvalidAnswer),
		errors.Is(err, llm.ErrNoMessages):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), nil)

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrNoSubject):
		rw.Unauthorized(rootMessage(err))

	case errors.Is(err, authz.ErrForbidden), errors.Is(err, authz.ErrNoClaims):
		rw.Forbidden(rootMessage(err))

	case errors.Is(err, ratelimit.ErrLimited):
		rw.TooManyRequests(err.Error())

	case errors.Is(err, llm.ErrProviderUnavailable):
		logging.CtxErr(r.Context(), err).Msg("LLM provider unavailable")
		rw.ServiceUnavailable("AI service is temporarily unavailable")

	case errors.Is(err, llm.ErrCompletionFailed), errors.Is(err, llm.ErrEmptyCompletion):
		rw.ExternalServiceError("llm", err)

	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("request canceled")

	default:
		logging.CtxErr(r.Context(), err).Str("path", logging.SanitizeValue(r.URL.Path)).Msg("request failed")
		rw.InternalError("An internal error occurred")
	}
}

// rootMessage returns the innermost error text so wrapping context such as
// "load session:" stays out of client messages.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
