// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package sse reads and writes Server-Sent Events.
//
// Reader is used on upstream LLM streams and is deliberately lenient: it
// never panics on malformed input, ignores fields it does not know and
// treats a "[DONE]" data payload as the end of the stream. Writer is used
// by the chat stream endpoints.
package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxLineSize bounds a single line. Upstream chunks are small; a
// longer line means a broken or hostile stream.
const DefaultMaxLineSize = 1024 * 1024

// DoneSentinel is the data payload OpenAI-compatible APIs send last.
const DoneSentinel = "[DONE]"

// ErrLineTooLong is returned when a line exceeds the reader's size cap.
var ErrLineTooLong = errors.New("sse: line exceeds maximum size")

// Event is one dispatched event.
type Event struct {
	ID    string
	Event string
	Data  string
	// Retry is the reconnection delay requested by the server, if any.
	Retry time.Duration
}

// Reader parses an event stream line by line.
type Reader struct {
	sc      *bufio.Scanner
	lastID  string
	retry   time.Duration
	started bool
	done    bool
}

// NewReader returns a Reader with DefaultMaxLineSize.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxLineSize)
}

// NewReaderSize returns a Reader that rejects lines longer than maxLine.
func NewReaderSize(r io.Reader, maxLine int) *Reader {
	sc := bufio.NewScanner(r)
	initial := 64 * 1024
	if maxLine < initial {
		initial = maxLine
	}
	sc.Buffer(make([]byte, 0, initial), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next event with non-empty data. It returns io.EOF at
// the end of input or after a "[DONE]" event. Pending data at EOF without
// a trailing blank line is still dispatched.
func (r *Reader) Next() (*Event, error) {
	if r.done {
		return nil, io.EOF
	}

	var (
		data      strings.Builder
		hasData   bool
		eventName string
	)

	dispatch := func() (*Event, bool) {
		if !hasData {
			eventName = ""
			return nil, false
		}
		ev := &Event{ID: r.lastID, Event: eventName, Data: data.String(), Retry: r.retry}
		return ev, true
	}

	for r.sc.Scan() {
		line := r.sc.Bytes()
		if !r.started {
			line = bytes.TrimPrefix(line, []byte("\xef\xbb\xbf"))
			r.started = true
		}

		if len(line) == 0 {
			if ev, ok := dispatch(); ok {
				return r.finish(ev)
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			eventName = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		case "retry":
			if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
				r.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := r.sc.Err(); err != nil {
		r.done = true
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, ErrLineTooLong
		}
		return nil, err
	}

	r.done = true
	if ev, ok := dispatch(); ok && ev.Data != DoneSentinel {
		return ev, nil
	}
	return nil, io.EOF
}

func (r *Reader) finish(ev *Event) (*Event, error) {
	if strings.TrimSpace(ev.Data) == DoneSentinel {
		r.done = true
		return nil, io.EOF
	}
	return ev, nil
}

// splitField splits "name: value", dropping one leading space from value.
// A line without a colon is a field name with an empty value.
func splitField(line []byte) (string, string) {
	i := bytes.IndexByte(line, ':')
	if i < 0 {
		return string(line), ""
	}
	value := line[i+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return string(line[:i]), string(value)
}
