// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

/*
Package models defines the domain types shared by the Qupid API.

JSON tags use camelCase so payloads match what the web and mobile clients
already receive from Supabase. Enumerations are typed strings with a Valid
method so handlers and stores can reject unknown values early.
*/
package models
