// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package scheduler runs periodic background jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Parser accepts six-field specs (seconds first) and descriptors such as
// "@daily".
var Parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler wraps a cron instance as a supervised service.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration
	ctx     context.Context
	jobs    []string
}

// New creates a scheduler evaluating specs in loc. Jobs are recovered
// from panics and skipped while a previous run is still going.
func New(loc *time.Location) *Scheduler {
	logger := logging.WithComponent("scheduler")
	adapter := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		logger:  logger,
		timeout: 10 * time.Minute,
		ctx:     context.Background(),
	}
}

// Add schedules job on spec.
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s on %q: %w", job.Name(), spec, err)
	}
	s.jobs = append(s.jobs, job.Name())
	return nil
}

// Jobs returns the names of scheduled jobs.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.jobs...)
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logging.CtxErr(ctx, err).Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("scheduled job failed")
		return
	}
	logging.Ctx(ctx).Info().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("scheduled job finished")
}

// Serve starts the cron loop and blocks until ctx is canceled, then waits
// for running jobs to finish.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info().Strs("jobs", s.jobs).Msg("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture.
func (s *Scheduler) String() string {
	return "scheduler"
}

// ValidateSpec reports whether spec parses.
func ValidateSpec(spec string) error {
	_, err := Parser.Parse(spec)
	return err
}

// FromConfig builds a scheduler with the configured jobs.
func FromConfig(cfg config.SchedulerConfig, reminders *ReminderJob) (*Scheduler, error) {
	s := New(reminders.loc)
	if err := s.Add(cfg.ReminderCron, reminders); err != nil {
		return nil, err
	}
	return s, nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
