// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

/*
Package main is the entry point for the Qupid API server.

Qupid lets users practice dating conversations with AI personas, get
scored feedback when a conversation ends, and talk through problems with
AI coaches. The server exposes a JSON API under /api/v1, server-sent
event streams for chat replies and a WebSocket push channel.

# Application Architecture

	root ("qupid")
	├── data-layer       persona cache, chat limiter sweeper
	├── messaging-layer  websocket hub, event router, scheduler
	└── api-layer        HTTP server

Component initialization order:

 1. Configuration: koanf with defaults, config.yaml and environment
 2. Logging: zerolog, JSON or console
 3. Storage: in-memory or Postgres (Supabase), optional migrations and seed
 4. LLM: OpenAI or Gemini behind a circuit breaker, optional fallback
 5. Events: watermill over an in-process channel or NATS
 6. Services: chat, coaching, onboarding, growth, badges, notifications
 7. Authentication and authorization: Supabase JWT, Casbin
 8. Supervisor tree, then the HTTP server

# Configuration

Priority: environment variables > config file > defaults.

	PORT=4000
	LOG_LEVEL=info
	LOG_FORMAT=json

	AUTH_MODE=supabase            # supabase or none
	SUPABASE_JWT_SECRET=<secret>

	DATABASE_DRIVER=postgres      # memory or postgres
	SUPABASE_DB_URL=postgres://...

	LLM_PROVIDER=openai           # openai or gemini
	LLM_FALLBACK_PROVIDER=gemini
	OPENAI_API_KEY=<key>
	GEMINI_API_KEY=<key>

	CHAT_LIMIT_BACKEND=redis      # memory or redis
	REDIS_ADDR=localhost:6379

	EVENTS_BACKEND=nats           # gochannel or nats
	NATS_URL=nats://127.0.0.1:4222

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, open streams are force-closed after the shutdown
timeout, and the event bus is closed last.
*/
package main
