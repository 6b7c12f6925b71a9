// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/growth"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// DefaultInactivityThreshold is how long a user must be idle before a
// reminder is sent.
const DefaultInactivityThreshold = 48 * time.Hour

// Notifier is the subset of notification.Service the reminder job needs.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind models.NotificationKind, title, body string) (*models.Notification, error)
	SentSince(ctx context.Context, userID string, kind models.NotificationKind, t time.Time) (bool, error)
}

// ReminderJob nudges users who have not practiced recently. Each user
// gets at most one reminder per calendar day in loc.
type ReminderJob struct {
	users     storage.UserStore
	notifier  Notifier
	threshold time.Duration
	loc       *time.Location
	now       func() time.Time
}

// NewReminderJob creates the job. A non-positive threshold uses the default.
func NewReminderJob(users storage.UserStore, notifier Notifier, threshold time.Duration) *ReminderJob {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	return &ReminderJob{
		users:     users,
		notifier:  notifier,
		threshold: threshold,
		loc:       growth.KST,
		now:       time.Now,
	}
}

// Name implements Job.
func (j *ReminderJob) Name() string { return "inactivity-reminder" }

// Run implements Job.
func (j *ReminderJob) Run(ctx context.Context) error {
	_, err := j.Send(ctx)
	return err
}

// Send delivers reminders and returns how many were sent. Failures for
// one user do not stop the others; they are joined into the result.
func (j *ReminderJob) Send(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	users, err := j.users.ListInactiveUsers(ctx, now.Add(-j.threshold))
	if err != nil {
		return 0, fmt.Errorf("list inactive users: %w", err)
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, j.loc)

	sent := 0
	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		already, err := j.notifier.SentSince(ctx, u.ID, models.NotifyReminder, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("check reminder for %s: %w", u.ID, err))
			continue
		}
		if already {
			continue
		}
		title, body := reminderText(u, now)
		if _, err := j.notifier.Notify(ctx, u.ID, models.NotifyReminder, title, body); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", u.ID, err))
			continue
		}
		sent++
	}

	logging.Ctx(ctx).Info().
		Int("inactive", len(users)).
		Int("sent", sent).
		Int("failed", len(errs)).
		Msg("inactivity reminders processed")
	return sent, errors.Join(errs...)
}

func reminderText(u *models.UserProfile, now time.Time) (string, string) {
	days := 0
	if u.LastActiveAt != nil {
		days = int(now.Sub(*u.LastActiveAt).Hours() / 24)
	}
	title := "대화 연습할 시간이에요"
	if days >= 2 {
		return title, fmt.Sprintf("%s님, %d일 동안 대화가 없었어요. 오늘 한 번 연습해볼까요?", u.DisplayName(), days)
	}
	return title, fmt.Sprintf("%s님, 오늘도 가볍게 대화 연습 어때요?", u.DisplayName())
}
