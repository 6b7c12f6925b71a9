// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Command qupidctl is the operator CLI for the Qupid API: schema
// migrations, catalog seeding, configuration checks and development
// tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Commands are built per call so
// tests get fresh flag state.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "qupidctl",
		Short: "Operate a Qupid API deployment",
		Long: `qupidctl manages a Qupid API deployment.

Configuration is read the same way the server reads it: defaults, then
config.yaml (or CONFIG_PATH), then environment variables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Init(logging.Config{
				Level:  logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newPersonasCmd(),
		newConfigCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig is swapped in tests.
var loadConfig = config.Load
