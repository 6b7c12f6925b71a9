// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

/*
Package supervisor runs Qupid's long-lived services under a suture v4 tree.

	root ("qupid")
	├── data-layer
	│   ├── persona-cache        expired entry sweeper
	│   └── chat-limiter         fixed-window sweeper (memory backend only)
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── event-router         watermill handlers for side effects
	│   └── scheduler            cron jobs (when enabled)
	└── api-layer
	    └── http-server

Each layer restarts independently: a crashing event handler never takes
the HTTP listener down with it. Failures back off according to TreeConfig
and every restart is logged through sutureslog into zerolog.
*/
package supervisor
