// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/storage/postgres"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default personas and badges",
		Long: `Insert the built-in personas, coaches and badges that are missing.

Rows that already exist are left as they are, so admin edits survive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd.Context(), func(db *sqlx.DB) error {
				store := postgres.New(db)
				res, err := storage.Seed(cmd.Context(), store, store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d personas and %d badges\n", res.Personas, res.Badges)
				return nil
			})
		},
	}
}

func newPersonasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Inspect the persona catalog",
	}

	var gender, difficulty string
	var coaches bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List personas",
		Long: `List personas from the configured database.

With DATABASE_DRIVER=memory the built-in catalog is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := models.PersonaFilter{
				Gender:     gender,
				Difficulty: models.Difficulty(difficulty),
				Coaches:    &coaches,
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				var out []*models.Persona
				for _, p := range storage.DefaultPersonas() {
					if filter.Matches(p) {
						out = append(out, p)
					}
				}
				return printPersonas(cmd, out)
			}
			return withPostgres(cmd.Context(), func(db *sqlx.DB) error {
				personas, err := postgres.New(db).ListPersonas(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printPersonas(cmd, personas)
			})
		},
	}
	list.Flags().StringVar(&gender, "gender", "", "only personas of this gender (male, female)")
	list.Flags().StringVar(&difficulty, "difficulty", "", "only personas of this difficulty (easy, normal, hard)")
	list.Flags().BoolVar(&coaches, "coaches", false, "list coaches instead of practice personas")

	cmd.AddCommand(list)
	return cmd
}

func printPersonas(cmd *cobra.Command, personas []*models.Persona) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tGENDER\tMBTI\tDIFFICULTY\tTAGS")
	for _, p := range personas {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Age, p.Gender, p.MBTI, p.Difficulty, strings.Join(p.Tags, ","))
	}
	return tw.Flush()
}
