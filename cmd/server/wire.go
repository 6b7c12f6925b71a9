// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thejerf/suture/v4"

	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/ratelimit"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/storage/memory"
	"github.com/big-teddy/Qupid-sub001/internal/storage/postgres"
)

// openStores opens the configured backend, migrating and seeding it when
// asked to.
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*storage.Stores, error) {
	var backend storage.Backend
	switch cfg.Driver {
	case "memory", "":
		backend = memory.New()
		logging.Warn().Msg("Using in-memory storage, data is lost on restart")
	case "postgres":
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db.DB); err != nil {
				_ = db.Close()
				return nil, err
			}
			logging.Info().Msg("Database migrations applied")
		}
		backend = postgres.New(db)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if cfg.SeedDefaults {
		if _, err := storage.Seed(ctx, backend, backend); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("seed defaults: %w", err)
		}
	}
	return storage.NewStores(backend), nil
}

// chatLimit is the per-user limiter on LLM backed routes plus whatever it
// needs kept alive.
type chatLimit struct {
	ratelimit.Limiter
	// sweeper is set for the memory backend.
	sweeper suture.Service
	close   func()
}

func newChatLimiter(ctx context.Context, cfg config.ChatLimitConfig) (*chatLimit, error) {
	if cfg.Requests <= 0 {
		logging.Warn().Msg("Per-user chat limit disabled")
		return &chatLimit{close: func() {}}, nil
	}

	switch cfg.Backend {
	case "memory", "":
		m := ratelimit.NewMemory(cfg.Requests, cfg.Window, ratelimit.WithSweepInterval(cfg.SweepInterval))
		return &chatLimit{Limiter: m, sweeper: m, close: func() {}}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		logging.Info().Str("addr", cfg.RedisAddr).Msg("Chat limit backed by Redis")
		return &chatLimit{
			Limiter: ratelimit.NewRedis(client, cfg.KeyPrefix, cfg.Requests, cfg.Window),
			close: func() {
				if err := client.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing Redis client")
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown chat limit backend %q", cfg.Backend)
	}
}
