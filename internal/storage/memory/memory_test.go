// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

func TestPersonas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	p := &models.Persona{ID: "p1", Name: "서연", Gender: models.GenderFemale, Interests: []string{"카페"}}
	if err := s.CreatePersona(ctx, p); err != nil {
		t.Fatalf("CreatePersona: %v", err)
	}
	if err := s.CreatePersona(ctx, p); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate create = %v, want ErrConflict", err)
	}

	got, err := s.GetPersona(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPersona: %v", err)
	}
	got.Interests[0] = "mutated"
	again, _ := s.GetPersona(ctx, "p1")
	if again.Interests[0] != "카페" {
		t.Error("store leaked internal slice to caller")
	}

	coach := true
	_ = s.CreatePersona(ctx, &models.Persona{ID: "c1", IsCoach: true})
	coaches, _ := s.ListPersonas(ctx, models.PersonaFilter{Coaches: &coach})
	if len(coaches) != 1 || coaches[0].ID != "c1" {
		t.Errorf("coach filter returned %v", coaches)
	}

	if err := s.UpdatePersona(ctx, &models.Persona{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdatePersona missing = %v", err)
	}
	if err := s.DeletePersona(ctx, "p1"); err != nil {
		t.Fatalf("DeletePersona: %v", err)
	}
	if _, err := s.GetPersona(ctx, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetPersona after delete = %v", err)
	}
}

func TestUsersTouchAndInactive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := s.TouchUser(ctx, "u1", base); err != nil {
		t.Fatalf("TouchUser: %v", err)
	}
	_ = s.TouchUser(ctx, "u2", base.Add(72*time.Hour))
	_ = s.UpsertUser(ctx, &models.UserProfile{ID: "u3", Name: "never active"})

	u, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.LastActiveAt == nil || !u.LastActiveAt.Equal(base) {
		t.Errorf("LastActiveAt = %v", u.LastActiveAt)
	}

	_ = s.UpsertUser(ctx, &models.UserProfile{ID: "u1", Name: "민준"})
	u, _ = s.GetUser(ctx, "u1")
	if u.Name != "민준" || u.LastActiveAt == nil {
		t.Errorf("upsert should keep activity, got %+v", u)
	}

	inactive, _ := s.ListInactiveUsers(ctx, base.Add(48*time.Hour))
	if len(inactive) != 1 || inactive[0].ID != "u1" {
		t.Errorf("inactive = %v", inactive)
	}
}

func TestConversationLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	c := &models.Conversation{UserID: "u1", PersonaID: "p1", Kind: models.KindPersona}
	if err := s.CreateConversation(ctx, c); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.Status != models.StatusActive {
		t.Fatalf("defaults not applied: %+v", c)
	}

	for i, content := range []string{"안녕", "반가워", "뭐해?"} {
		sender := models.SenderUser
		if i == 1 {
			sender = models.SenderAI
		}
		if err := s.AppendMessage(ctx, &models.Message{ConversationID: c.ID, Sender: sender, Content: content}); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}
	if err := s.AppendMessage(ctx, &models.Message{ConversationID: "nope"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("append to missing conversation = %v", err)
	}

	last, _ := s.ListMessages(ctx, c.ID, 2)
	var contents []string
	for _, m := range last {
		contents = append(contents, m.Content)
	}
	if diff := cmp.Diff([]string{"반가워", "뭐해?"}, contents); diff != "" {
		t.Errorf("ListMessages mismatch (-want +got):\n%s", diff)
	}

	if n, _ := s.CountMessages(ctx, c.ID, models.SenderUser); n != 2 {
		t.Errorf("user messages = %d, want 2", n)
	}
	if n, _ := s.CountMessages(ctx, c.ID, ""); n != 3 {
		t.Errorf("all messages = %d, want 3", n)
	}

	_ = s.IncrementMessageCount(ctx, c.ID, 2)
	_ = s.SetTutorialStep(ctx, c.ID, 3)
	end := time.Now()
	if err := s.UpdateConversationStatus(ctx, c.ID, models.StatusEnded, end); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := s.UpdateConversationStatus(ctx, c.ID, models.StatusEnded, end); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("second end = %v, want ErrConflict", err)
	}

	got, _ := s.GetConversation(ctx, c.ID)
	if got.MessageCount != 2 || got.TutorialStep != 3 || got.EndedAt == nil {
		t.Errorf("unexpected conversation %+v", got)
	}
}

func TestCoachingComplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	cs := &models.CoachingSession{UserID: "u1", CoachID: "coach"}
	_ = s.CreateSession(ctx, cs)

	fb := &models.Feedback{Friendliness: 70, Curiosity: 60, Empathy: 80, Overall: 70, Strengths: []string{"질문"}}
	if err := s.CompleteSession(ctx, cs.ID, fb, time.Now()); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	fb.Strengths[0] = "mutated"
	if err := s.CompleteSession(ctx, cs.ID, fb, time.Now()); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("second complete = %v", err)
	}

	got, _ := s.GetSession(ctx, cs.ID)
	if got.Status != models.SessionCompleted || got.Feedback == nil || got.Feedback.Strengths[0] != "질문" {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestWeeklyMergeAndOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	_ = s.AddWeekly(ctx, "u1", models.WeeklyPoint{WeekStart: "2026-03-09", Empathy: 60, Conversations: 1})
	_ = s.AddWeekly(ctx, "u1", models.WeeklyPoint{WeekStart: "2026-03-02", Empathy: 50, Conversations: 1})
	_ = s.AddWeekly(ctx, "u1", models.WeeklyPoint{WeekStart: "2026-03-09", Empathy: 80, Conversations: 1})

	points, _ := s.Weekly(ctx, "u1", 10)
	if len(points) != 2 {
		t.Fatalf("points = %v", points)
	}
	if points[0].WeekStart != "2026-03-02" {
		t.Errorf("points not oldest first: %v", points)
	}
	if points[1].Empathy != 70 || points[1].Conversations != 2 {
		t.Errorf("merged point = %+v", points[1])
	}

	latest, _ := s.Weekly(ctx, "u1", 1)
	if len(latest) != 1 || latest[0].WeekStart != "2026-03-09" {
		t.Errorf("Weekly(1) = %v", latest)
	}
}

func TestApplyStatsKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	inc := func(st *models.GrowthStats) *models.WeeklyPoint {
		st.TotalConversations++
		return &models.WeeklyPoint{WeekStart: "2026-03-02", Empathy: 80, Conversations: 1}
	}
	st, applied, err := s.ApplyStats(ctx, "u1", "conversation.ended:c1", inc)
	if err != nil || !applied || st.TotalConversations != 1 || st.UserID != "u1" {
		t.Fatalf("first apply: %+v %v %v", st, applied, err)
	}
	st, applied, err = s.ApplyStats(ctx, "u1", "conversation.ended:c1", inc)
	if err != nil || applied || st.TotalConversations != 1 {
		t.Errorf("repeated key applied: %+v %v %v", st, applied, err)
	}
	// Keys are scoped per user.
	if _, applied, _ := s.ApplyStats(ctx, "u2", "conversation.ended:c1", inc); !applied {
		t.Error("key from another user blocked the update")
	}
	// Empty keys are never deduplicated.
	_, _, _ = s.ApplyStats(ctx, "u1", "", inc)
	_, _, _ = s.ApplyStats(ctx, "u1", "", inc)

	got, _ := s.GetStats(ctx, "u1")
	if got.TotalConversations != 3 {
		t.Errorf("TotalConversations = %d, want 3", got.TotalConversations)
	}
	points, _ := s.Weekly(ctx, "u1", 1)
	if len(points) != 1 || points[0].Conversations != 3 {
		t.Errorf("weekly = %+v", points)
	}
}

func TestNotifications(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = s.CreateNotification(ctx, &models.Notification{
			UserID: "u1", Kind: models.NotifyBadge, Title: "t", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	other := &models.Notification{UserID: "u2", Kind: models.NotifyReminder}
	_ = s.CreateNotification(ctx, other)

	list, _ := s.ListNotifications(ctx, "u1", false, 0)
	if len(list) != 3 || !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected newest first, got %v", list)
	}

	if err := s.MarkNotificationRead(ctx, "u1", other.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-user mark read = %v, want ErrNotFound", err)
	}
	if err := s.MarkNotificationRead(ctx, "u1", list[0].ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if n, _ := s.UnreadCount(ctx, "u1"); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}
	unread, _ := s.ListNotifications(ctx, "u1", true, 1)
	if len(unread) != 1 || unread[0].Read {
		t.Errorf("unread list = %v", unread)
	}
	if n, _ := s.MarkAllNotificationsRead(ctx, "u1"); n != 2 {
		t.Errorf("MarkAll = %d, want 2", n)
	}

	has, _ := s.HasNotificationSince(ctx, "u1", models.NotifyBadge, base.Add(90*time.Second))
	if !has {
		t.Error("expected a badge notification after the cutoff")
	}
	has, _ = s.HasNotificationSince(ctx, "u1", models.NotifyReminder, base)
	if has {
		t.Error("no reminder was sent to u1")
	}
}

func TestAwardBadgeIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	_ = s.UpsertBadge(ctx, &models.Badge{ID: models.BadgeFirstStep, Name: "첫 걸음"})

	if _, err := s.AwardBadge(ctx, "u1", "unknown", time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown badge = %v", err)
	}
	first, err := s.AwardBadge(ctx, "u1", models.BadgeFirstStep, time.Now())
	if err != nil || !first {
		t.Fatalf("first award = %v, %v", first, err)
	}
	second, err := s.AwardBadge(ctx, "u1", models.BadgeFirstStep, time.Now())
	if err != nil || second {
		t.Errorf("second award = %v, %v; want false, nil", second, err)
	}
	owned, _ := s.UserBadges(ctx, "u1")
	if len(owned) != 1 {
		t.Errorf("UserBadges = %v", owned)
	}
}

func TestSurvey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	if _, err := s.GetSurvey(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSurvey empty = %v", err)
	}
	r := &models.SurveyResponse{UserID: "u1", Answers: map[string]interface{}{"mbti": "ENFP", "interests": []string{"영화"}}}
	if err := s.SaveSurvey(ctx, r); err != nil {
		t.Fatalf("SaveSurvey: %v", err)
	}
	got, _ := s.GetSurvey(ctx, "u1")
	if diff := cmp.Diff(r.Answers, got.Answers); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}
