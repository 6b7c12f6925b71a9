// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package sse

import (
	"errors"
	"io"

	"github.com/goccy/go-json"
)

// DecodeStats reports how many events were decoded or skipped.
type DecodeStats struct {
	Decoded int
	Skipped int
}

// DecodeChunks reads events from r, unmarshals each data payload into T and
// passes it to fn. Payloads that are not valid JSON are skipped and counted.
// An error from fn stops decoding and is returned as is.
func DecodeChunks[T any](r io.Reader, fn func(T) error) (DecodeStats, error) {
	var stats DecodeStats
	reader := NewReader(r)
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		var chunk T
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			stats.Skipped++
			continue
		}
		stats.Decoded++
		if err := fn(chunk); err != nil {
			return stats, err
		}
	}
}
