// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected caller disabled by default")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("persona_id", "p-1").Msg("persona loaded")

	out := buf.String()
	for _, want := range []string{`"message":"persona loaded"`, `"level":"info"`, `"persona_id":"p-1"`, `"service":"qupid-api"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %s, got: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	if !ValidLevel("Debug") {
		t.Error("expected Debug to be valid")
	}
	if ValidLevel("verbose") {
		t.Error("expected verbose to be invalid")
	}
}

func TestCtxAddsIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "corr1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithUserID(ctx, "user-9")

	Ctx(ctx).Info().Msg("chat turn")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr1234"`, `"request_id":"req-1"`, `"user_id":"user-9"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestCtxWithoutIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	CtxErr(context.Background(), errors.New("boom")).Msg("failed")

	out := buf.String()
	if strings.Contains(out, "correlation_id") {
		t.Errorf("did not expect correlation_id in %s", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected error field in %s", out)
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("expected 8 chars, got %d", len(a))
	}
	if a == b {
		t.Error("expected unique correlation IDs")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	logger := slog.New(h).WithGroup("supervisor").With("service", "http")

	logger.Warn("service restarted", "attempt", 2, "err", errors.New("crash"))

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"supervisor.service":"http"`,
		`"supervisor.attempt":2`,
		`"supervisor.err":"crash"`,
		`"message":"service restarted"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	got := SanitizeValue("hello\nforged line\x00")
	if got != "hello forged line" {
		t.Errorf("unexpected sanitized value %q", got)
	}

	long := strings.Repeat("가", 300)
	if n := len([]rune(SanitizeValue(long))); n != maxLoggedValue+3 {
		t.Errorf("expected truncation to %d runes, got %d", maxLoggedValue+3, n)
	}
}

func TestSanitizeToken(t *testing.T) {
	t.Parallel()

	if got := SanitizeToken(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := SanitizeToken("short"); got != "[REDACTED]" {
		t.Errorf("expected redaction, got %q", got)
	}
	if got := SanitizeToken("sk-abcdefghijkl"); got != "sk-abc...[REDACTED]" {
		t.Errorf("unexpected %q", got)
	}
}
