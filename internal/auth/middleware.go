// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Auth modes.
const (
	ModeSupabase = "supabase"
	ModeNone     = "none"
)

// ErrorHandler writes an authentication failure response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates requests.
type Middleware struct {
	verifier  *Verifier
	mode      string
	devUserID string
	onError   ErrorHandler
}

// NewMiddleware builds the middleware from security settings. In
// supabase mode a JWT secret is required.
func NewMiddleware(cfg config.SecurityConfig, onError ErrorHandler) (*Middleware, error) {
	m := &Middleware{
		mode:      cfg.AuthMode,
		devUserID: cfg.DevUserID,
		onError:   onError,
	}
	if m.mode == "" {
		m.mode = ModeSupabase
	}
	if m.onError == nil {
		m.onError = writeUnauthorized
	}
	if m.mode == ModeNone {
		if m.devUserID == "" {
			m.devUserID = "dev-user"
		}
		logging.Warn().Str("dev_user_id", m.devUserID).Msg("authentication disabled, all requests run as the development user")
		return m, nil
	}

	v, err := NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	m.verifier = v
	return m, nil
}

// Verifier returns the token verifier, nil in mode none.
func (m *Middleware) Verifier() *Verifier {
	return m.verifier
}

// Authenticate requires a bearer token in the Authorization header.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return m.authenticate(next, false)
}

// AuthenticateQuery also accepts the token in the "token" query parameter,
// since browsers cannot set headers on WebSocket upgrades.
func (m *Middleware) AuthenticateQuery(next http.Handler) http.Handler {
	return m.authenticate(next, true)
}

func (m *Middleware) authenticate(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == ModeNone {
			claims := m.devClaims()
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
			return
		}

		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" && allowQuery {
			token = r.URL.Query().Get("token")
		}
		claims, err := m.verifier.Verify(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().
				Err(err).
				Str("token", logging.SanitizeToken(token)).
				Msg("authentication failed")
			m.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func (m *Middleware) devClaims() *Claims {
	c := NewClaims(m.devUserID, "", RoleAdmin, time.Hour)
	return c
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="qupid"`)
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // response already committed
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
