// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package testinfra starts throwaway Postgres and Redis containers for
// integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// Tests call SkipIfNoDocker first so machines without Docker skip instead
// of failing. First runs pull images; later runs use the local cache.
package testinfra
