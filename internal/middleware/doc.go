// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package middleware holds chi-compatible HTTP middleware shared by the API
// router: request IDs with access logging, Prometheus instrumentation and
// gzip compression.
//
// Every wrapper that replaces the http.ResponseWriter forwards http.Flusher,
// because the chat stream endpoints write Server-Sent Events through the
// whole chain.
package middleware
