// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package storage_test

import (
	"context"
	"testing"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/storage/memory"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	stores := storage.NewStores(memory.New())

	res, err := storage.Seed(ctx, stores.Personas, stores.Badges)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Personas != len(storage.DefaultPersonas()) {
		t.Errorf("seeded %d personas, want %d", res.Personas, len(storage.DefaultPersonas()))
	}

	edited, _ := stores.Personas.GetPersona(ctx, storage.DefaultCoachID)
	edited.Intro = "edited by admin"
	if err := stores.Personas.UpdatePersona(ctx, edited); err != nil {
		t.Fatal(err)
	}

	res, err = storage.Seed(ctx, stores.Personas, stores.Badges)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if res.Personas != 0 {
		t.Errorf("second seed inserted %d personas", res.Personas)
	}
	again, _ := stores.Personas.GetPersona(ctx, storage.DefaultCoachID)
	if again.Intro != "edited by admin" {
		t.Error("seed overwrote an existing persona")
	}

	tutorial := true
	guides, _ := stores.Personas.ListPersonas(ctx, models.PersonaFilter{Tutorial: &tutorial})
	if len(guides) != 1 || guides[0].ID != storage.TutorialPersonaID {
		t.Errorf("tutorial personas = %v", guides)
	}

	badges, _ := stores.Badges.ListBadges(ctx)
	if len(badges) != 10 {
		t.Errorf("badges = %d, want 10", len(badges))
	}
}

func TestDefaultPersonasAreValid(t *testing.T) {
	seen := map[string]bool{}
	coaches := 0
	for _, p := range storage.DefaultPersonas() {
		if seen[p.ID] {
			t.Errorf("duplicate persona id %s", p.ID)
		}
		seen[p.ID] = true
		if !p.Difficulty.Valid() {
			t.Errorf("%s: invalid difficulty %q", p.ID, p.Difficulty)
		}
		if len(p.MBTI) != 4 {
			t.Errorf("%s: bad MBTI %q", p.ID, p.MBTI)
		}
		if p.IsCoach {
			coaches++
		}
	}
	if coaches == 0 {
		t.Error("expected at least one coach")
	}
}
