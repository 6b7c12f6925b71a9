// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package authz

import (
	"errors"
	"net/http"

	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Authorization errors passed to the ErrorHandler.
var (
	ErrNoClaims  = errors.New("no authentication context")
	ErrForbidden = errors.New("insufficient permissions")
)

// ErrorHandler writes an authorization failure. err is ErrNoClaims,
// ErrForbidden or an enforcement error.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware enforces object/action permissions for the caller's role.
type Middleware struct {
	enforcer *Enforcer
	onError  ErrorHandler
}

// NewMiddleware creates the middleware.
func NewMiddleware(enforcer *Enforcer, onError ErrorHandler) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			if errors.Is(err, ErrForbidden) || errors.Is(err, ErrNoClaims) {
				http.Error(w, "Forbidden: "+err.Error(), http.StatusForbidden)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
	return &Middleware{enforcer: enforcer, onError: onError}
}

// Require allows the request when the caller's role may perform action on
// object.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				m.onError(w, r, ErrNoClaims)
				return
			}

			role := claims.EffectiveRole()
			allowed, err := m.enforcer.Enforce(role, object, action)
			if err != nil {
				logging.CtxErr(r.Context(), err).Msg("authorization error")
				m.onError(w, r, err)
				return
			}
			if !allowed {
				logging.Ctx(r.Context()).Info().
					Str("role", role).
					Str("object", object).
					Str("action", action).
					Msg("access denied")
				m.onError(w, r, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethod maps the HTTP method to an action on object.
func (m *Middleware) RequireMethod(object string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.Require(object, methodToAction(r.Method))(next).ServeHTTP(w, r)
		})
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
