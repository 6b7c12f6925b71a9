// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

/*
Package websocket pushes real-time notifications to connected app clients.

The hub keys clients by authenticated user ID so a notification for one
user reaches every device that user has open, and nobody else:

	┌──────────┐
	│   Hub    │ ← SendToUser / Broadcast
	└────┬─────┘
	     │
	┌────┴──────────────┐
	│ user A            │ user B
	│ Client1  Client2  │ Client3
	└───────────────────┘

Each client has two goroutines:
  - readPump: reads from the socket, answers application pings
  - writePump: writes queued messages and protocol pings

Send buffers are bounded. When a client's buffer is full the hub drops
the client instead of blocking delivery to everyone else; the app
reconnects and refetches unread notifications over REST.

Message types:

  - notification.created: a new notification row for the user
  - badge.awarded: a badge was earned
  - coaching.completed: coaching feedback is ready
  - ping / pong: application-level keepalive

The hub runs under the supervisor tree via Serve, which returns when the
context is canceled after closing every client.
*/
package websocket
