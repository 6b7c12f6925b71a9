// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/big-teddy/Qupid-sub001/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Long: `Mint an HS256 access token shaped like a Supabase session token.

The token is signed with --secret, or SUPABASE_JWT_SECRET from the
configuration. Use it against local and staging deployments; production
clients get their tokens from Supabase.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				secret = cfg.Security.JWTSecret
			}
			switch role {
			case auth.RoleAuthenticated, auth.RoleAdmin:
			default:
				return fmt.Errorf("--role must be %s or %s", auth.RoleAuthenticated, auth.RoleAdmin)
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			if userID == "" {
				userID = uuid.NewString()
			}

			v, err := auth.NewVerifier(secret)
			if err != nil {
				return err
			}
			token, err := v.Sign(auth.NewClaims(userID, email, role, ttl))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject user ID (random UUID when empty)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", auth.RoleAuthenticated, "application role (authenticated or admin)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to the configured JWT secret)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
