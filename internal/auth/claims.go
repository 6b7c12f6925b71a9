// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Roles understood by the authorization layer.
const (
	RoleAuthenticated = "authenticated"
	RoleAdmin         = "admin"
)

// Claims is the subset of a Supabase access token the API relies on.
type Claims struct {
	Email        string                 `json:"email,omitempty"`
	Role         string                 `json:"role,omitempty"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject, which Supabase sets to the auth user ID.
func (c *Claims) UserID() string {
	return c.Subject
}

// EffectiveRole prefers app_metadata.role, which only the service role can
// write, over the top-level role claim. Empty roles fall back to
// RoleAuthenticated.
func (c *Claims) EffectiveRole() string {
	if c.AppMetadata != nil {
		if r, ok := c.AppMetadata["role"].(string); ok && strings.TrimSpace(r) != "" {
			return strings.TrimSpace(r)
		}
	}
	if strings.TrimSpace(c.Role) != "" {
		return strings.TrimSpace(c.Role)
	}
	return RoleAuthenticated
}

// IsAdmin reports whether the caller has the admin role.
func (c *Claims) IsAdmin() bool {
	return c.EffectiveRole() == RoleAdmin
}

// DisplayName returns user_metadata.name or the email local part.
func (c *Claims) DisplayName() string {
	if c.UserMetadata != nil {
		for _, key := range []string{"name", "full_name", "nickname"} {
			if v, ok := c.UserMetadata[key].(string); ok && v != "" {
				return v
			}
		}
	}
	if at := strings.IndexByte(c.Email, '@'); at > 0 {
		return c.Email[:at]
	}
	return ""
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ContextWithClaims stores claims and the user ID in ctx.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, c)
	return logging.ContextWithUserID(ctx, c.UserID())
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}

// UserIDFromContext returns the authenticated user ID or "".
func UserIDFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.UserID()
	}
	return ""
}
