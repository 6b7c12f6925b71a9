// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/storage/postgres"
	"github.com/big-teddy/Qupid-sub001/internal/testinfra"
)

func TestPostgresStoreIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	pg, err := testinfra.NewPostgresContainer(ctx, testinfra.WithLogger(testinfra.NewContainerLogger(t)))
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	db, err := postgres.Open(ctx, config.DatabaseConfig{DSN: pg.DSN, MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Applying twice is a no-op.
	if err := postgres.Migrate(ctx, db.DB); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	version, dirty, err := postgres.MigrationVersion(ctx, db.DB)
	if err != nil || dirty || version < 1 {
		t.Fatalf("version = %d dirty=%v err=%v", version, dirty, err)
	}

	store := postgres.New(db)
	res, err := storage.Seed(ctx, store, store)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if res.Personas != len(storage.DefaultPersonas()) || res.Badges != len(storage.DefaultBadges()) {
		t.Errorf("seed result %+v", res)
	}
	// Personas are insert-only; badges are upserted every time.
	again, err := storage.Seed(ctx, store, store)
	if err != nil || again.Personas != 0 {
		t.Errorf("reseed should insert no personas: %+v, %v", again, err)
	}

	t.Run("personas", func(t *testing.T) {
		females, err := store.ListPersonas(ctx, models.PersonaFilter{Gender: models.GenderFemale})
		if err != nil {
			t.Fatal(err)
		}
		for _, p := range females {
			if p.Gender != models.GenderFemale {
				t.Errorf("filter leaked %s (%s)", p.ID, p.Gender)
			}
		}
		if _, err := store.GetPersona(ctx, "persona-missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("missing persona: got %v", err)
		}
	})

	t.Run("conversation lifecycle", func(t *testing.T) {
		userID := uuid.NewString()
		if err := store.UpsertUser(ctx, &models.UserProfile{ID: userID, Name: "민수", Interests: []string{"영화"}}); err != nil {
			t.Fatal(err)
		}

		personas, err := store.ListPersonas(ctx, models.PersonaFilter{})
		if err != nil || len(personas) == 0 {
			t.Fatalf("list personas: %v", err)
		}
		conv := &models.Conversation{UserID: userID, PersonaID: personas[0].ID, Kind: models.KindPersona}
		if err := store.CreateConversation(ctx, conv); err != nil {
			t.Fatal(err)
		}

		for _, m := range []*models.Message{
			{ConversationID: conv.ID, Sender: models.SenderUser, Content: "안녕하세요"},
			{ConversationID: conv.ID, Sender: models.SenderAI, Content: "반가워요!"},
		} {
			if err := store.AppendMessage(ctx, m); err != nil {
				t.Fatal(err)
			}
		}
		if err := store.IncrementMessageCount(ctx, conv.ID, 2); err != nil {
			t.Fatal(err)
		}

		msgs, err := store.ListMessages(ctx, conv.ID, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(msgs) != 2 || msgs[0].Sender != models.SenderUser {
			t.Fatalf("messages out of order: %+v", msgs)
		}
		n, err := store.CountMessages(ctx, conv.ID, models.SenderUser)
		if err != nil || n != 1 {
			t.Errorf("user messages = %d, %v", n, err)
		}

		if err := store.UpdateConversationStatus(ctx, conv.ID, models.StatusEnded, time.Now()); err != nil {
			t.Fatal(err)
		}
		got, err := store.GetConversation(ctx, conv.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.StatusEnded || got.EndedAt == nil || got.MessageCount != 2 {
			t.Errorf("conversation after end: %+v", got)
		}
	})

	t.Run("badges and notifications", func(t *testing.T) {
		userID := uuid.NewString()
		badgeID := storage.DefaultBadges()[0].ID

		first, err := store.AwardBadge(ctx, userID, badgeID, time.Now())
		if err != nil || !first {
			t.Fatalf("first award: %v, %v", first, err)
		}
		second, err := store.AwardBadge(ctx, userID, badgeID, time.Now())
		if err != nil || second {
			t.Errorf("second award should be a no-op: %v, %v", second, err)
		}

		for i := 0; i < 3; i++ {
			if err := store.CreateNotification(ctx, &models.Notification{
				UserID: userID,
				Kind:   models.NotifyReminder,
				Title:  "연습할 시간이에요",
			}); err != nil {
				t.Fatal(err)
			}
		}
		unread, err := store.UnreadCount(ctx, userID)
		if err != nil || unread != 3 {
			t.Fatalf("unread = %d, %v", unread, err)
		}
		marked, err := store.MarkAllNotificationsRead(ctx, userID)
		if err != nil || marked != 3 {
			t.Errorf("marked = %d, %v", marked, err)
		}
	})

	t.Run("stats updates from two replicas", func(t *testing.T) {
		other, err := postgres.Open(ctx, config.DatabaseConfig{DSN: pg.DSN, MaxOpenConns: 4, MaxIdleConns: 2})
		if err != nil {
			t.Fatalf("open second pool: %v", err)
		}
		defer other.Close()
		replicas := []*postgres.Store{store, postgres.New(other)}

		userID := uuid.NewString()
		inc := func(st *models.GrowthStats) *models.WeeklyPoint {
			st.TotalMessages += 2
			return nil
		}
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r := replicas[i%2]
				if _, _, err := r.ApplyStats(ctx, userID, fmt.Sprintf("message.sent:m%d", i), inc); err != nil {
					t.Errorf("apply %d: %v", i, err)
				}
				// Every event is delivered twice, once to each replica.
				if _, _, err := replicas[(i+1)%2].ApplyStats(ctx, userID, fmt.Sprintf("message.sent:m%d", i), inc); err != nil {
					t.Errorf("reapply %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		st, err := store.GetStats(ctx, userID)
		if err != nil {
			t.Fatal(err)
		}
		if st.TotalMessages != 40 {
			t.Errorf("TotalMessages = %d, want 40", st.TotalMessages)
		}
	})

	if err := postgres.MigrateDown(ctx, db.DB, 1); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
}
