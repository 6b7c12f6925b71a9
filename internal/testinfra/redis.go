// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRedisImage is the Redis image used for chat limit tests.
	DefaultRedisImage = "redis:7-alpine"

	// DefaultRedisPort is the container's Redis port.
	DefaultRedisPort = "6379/tcp"
)

// RedisContainer is a disposable Redis server.
type RedisContainer struct {
	testcontainers.Container
	// Addr is host:port for redis.Options.
	Addr string
}

// NewRedisContainer starts Redis and waits until it accepts connections.
func NewRedisContainer(ctx context.Context, opts ...ContainerOption) (*RedisContainer, error) {
	cfg := newContainerConfig(DefaultRedisImage, opts)

	container, err := startContainer(ctx, cfg, testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultRedisPort},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort(DefaultRedisPort),
		).WithStartupTimeout(cfg.startTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("create redis container: %w", err)
	}

	host, err := containerHost(ctx, container)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	port, err := container.MappedPort(ctx, DefaultRedisPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	return &RedisContainer{Container: container, Addr: net.JoinHostPort(host, port.Port())}, nil
}
