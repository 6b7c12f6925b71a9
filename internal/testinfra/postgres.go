// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage matches the major version Supabase runs.
	DefaultPostgresImage = "postgres:15-alpine"

	// DefaultPostgresPort is the container's Postgres port.
	DefaultPostgresPort = "5432/tcp"

	postgresUser     = "qupid"
	postgresPassword = "qupid"
	postgresDB       = "qupid"
)

// PostgresContainer is a disposable Postgres server.
type PostgresContainer struct {
	testcontainers.Container
	// DSN connects as the owner of an empty database.
	DSN string
}

// ContainerOption configures a container started by this package.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	image        string
	startTimeout time.Duration
	logger       *ContainerLogger
}

// WithImage overrides the Docker image.
func WithImage(image string) ContainerOption {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithStartTimeout sets how long to wait for the container to become ready.
func WithStartTimeout(timeout time.Duration) ContainerOption {
	return func(c *containerConfig) {
		c.startTimeout = timeout
	}
}

// WithLogger routes container lifecycle logs to l.
func WithLogger(l *ContainerLogger) ContainerOption {
	return func(c *containerConfig) {
		c.logger = l
	}
}

func newContainerConfig(image string, opts []ContainerOption) *containerConfig {
	cfg := &containerConfig{image: image, startTimeout: 60 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func startContainer(ctx context.Context, cfg *containerConfig, req testcontainers.ContainerRequest) (testcontainers.Container, error) {
	gcr := testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	}
	if cfg.logger != nil {
		gcr.Logger = cfg.logger
	}
	return testcontainers.GenericContainer(ctx, gcr)
}

// containerHost resolves the host that mapped ports are published on.
func containerHost(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	return host, nil
}

// NewPostgresContainer starts Postgres and waits until it accepts
// connections.
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//	db, err := postgres.Open(ctx, config.DatabaseConfig{DSN: pg.DSN})
func NewPostgresContainer(ctx context.Context, opts ...ContainerOption) (*PostgresContainer, error) {
	cfg := newContainerConfig(DefaultPostgresImage, opts)

	container, err := startContainer(ctx, cfg, testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
			"TZ":                "UTC",
		},
		// The entrypoint restarts the server once after init scripts, so the
		// ready line appears twice.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort),
		).WithStartupTimeout(cfg.startTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := containerHost(ctx, container)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			postgresUser, postgresPassword, host, port.Port(), postgresDB),
	}, nil
}
