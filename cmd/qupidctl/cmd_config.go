// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/scheduler"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	check := &cobra.Command{
		Use:   "check",
		Short: "Load and validate configuration, then print a summary",
		Long: `Load configuration exactly as the server would and report the result.

Secrets are masked in the summary. The exit status is non-zero when the
configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Scheduler.Enabled {
				if err := scheduler.ValidateSpec(cfg.Scheduler.ReminderCron); err != nil {
					return fmt.Errorf("REMINDER_CRON %q: %w", cfg.Scheduler.ReminderCron, err)
				}
			}
			return printSummary(cmd, cfg)
		},
	}
	cmd.AddCommand(check)
	return cmd
}

func printSummary(cmd *cobra.Command, cfg *config.Config) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"server.addr", cfg.Server.Addr()},
		{"server.environment", cfg.Server.Environment},
		{"logging.level", cfg.Logging.Level},
		{"database.driver", cfg.Database.Driver},
		{"database.dsn", masked(cfg.Database.DSN)},
		{"llm.provider", cfg.LLM.Provider},
		{"llm.fallback", orNone(cfg.LLM.Fallback)},
		{"llm.openai.api_key", masked(cfg.LLM.OpenAI.APIKey)},
		{"llm.gemini.api_key", masked(cfg.LLM.Gemini.APIKey)},
		{"security.auth_mode", cfg.Security.AuthMode},
		{"security.jwt_secret", masked(cfg.Security.JWTSecret)},
		{"chat_limit.backend", cfg.ChatLimit.Backend},
		{"chat_limit", fmt.Sprintf("%d per %s", cfg.ChatLimit.Requests, cfg.ChatLimit.Window)},
		{"events.backend", cfg.Events.Backend},
		{"scheduler.reminder_cron", schedule(cfg.Scheduler)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
	return nil
}

func masked(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return logging.SanitizeToken(secret)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func schedule(cfg config.SchedulerConfig) string {
	if !cfg.Enabled {
		return "(disabled)"
	}
	return cfg.ReminderCron
}
