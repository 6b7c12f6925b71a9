// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package sse

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// ErrStreamingUnsupported is returned when the response cannot be flushed.
var ErrStreamingUnsupported = errors.New("sse: response writer does not support flushing")

// Writer writes events to an HTTP response and flushes after each one.
// It is safe for concurrent use, so a keepalive goroutine may share it.
type Writer struct {
	mu sync.Mutex
	w  http.ResponseWriter
	f  http.Flusher
}

// NewWriter sets the event-stream headers and writes the 200 status.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &Writer{w: w, f: f}, nil
}

// Event writes a named event whose data is v encoded as JSON.
func (sw *Writer) Event(name string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: encode %s event: %w", name, err)
	}
	return sw.write("event: " + name + "\n" + dataLines(string(payload)) + "\n")
}

// Data writes an unnamed event. Embedded newlines become separate data lines.
func (sw *Writer) Data(s string) error {
	return sw.write(dataLines(s) + "\n")
}

// Comment writes a comment line, used as a keepalive.
func (sw *Writer) Comment(s string) error {
	return sw.write(": " + strings.ReplaceAll(s, "\n", " ") + "\n\n")
}

// Done writes the "[DONE]" terminator.
func (sw *Writer) Done() error {
	return sw.Data(DoneSentinel)
}

func (sw *Writer) write(s string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if _, err := sw.w.Write([]byte(s)); err != nil {
		return err
	}
	sw.f.Flush()
	return nil
}

func dataLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
