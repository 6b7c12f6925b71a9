// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/llm/llmtest"
	"github.com/big-teddy/Qupid-sub001/internal/models"
)

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `결과입니다: {"a":{"b":2}} 감사합니다 {"c":3}`, `{"a":{"b":2}}`},
		{"brace in string", `{"summary":"웃는 얼굴 :} 좋아요","a":1}`, `{"summary":"웃는 얼굴 :} 좋아요","a":1}`},
		{"escaped quote", `{"s":"say \"}\" ok"}`, `{"s":"say \"}\" ok"}`},
		{"unbalanced", `{"a":1`, ""},
		{"none", "no json here", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONObject(tt.in); got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFeedback(t *testing.T) {
	t.Parallel()
	out := "```json\n" + `{"friendliness": 82, "curiosity": "71", "empathy": 90.6,
"summary": " 따뜻한 대화였어요 ", "strengths": ["질문을 잘함", " "], "improvements": null}` + "\n```"

	got, err := ParseFeedback(out)
	if err != nil {
		t.Fatal(err)
	}
	want := models.Feedback{
		Friendliness: 82,
		Curiosity:    71,
		Empathy:      91,
		Overall:      81,
		Summary:      "따뜻한 대화였어요",
		Strengths:    []string{"질문을 잘함"},
		Improvements: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFeedback mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFeedbackClamps(t *testing.T) {
	t.Parallel()
	got, err := ParseFeedback(`{"friendliness": 140, "curiosity": -5, "empathy": null}`)
	if err != nil {
		t.Fatal(err)
	}
	if got.Friendliness != 100 || got.Curiosity != 0 || got.Empathy != NeutralScore {
		t.Errorf("unexpected scores %+v", got)
	}
	if got.Overall != 50 {
		t.Errorf("Overall = %d, want 50", got.Overall)
	}
	if got.Summary == "" {
		t.Error("expected default summary")
	}
}

func TestParseFeedbackErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "좋은 대화였어요", `{"summary":"no scores"}`, `{"friendliness": "many"}`} {
		if _, err := ParseFeedback(in); err == nil {
			t.Errorf("ParseFeedback(%q) expected error", in)
		}
	}
	if _, err := ParseFeedback("nothing"); !errors.Is(err, ErrNoFeedback) {
		t.Errorf("expected ErrNoFeedback, got %v", err)
	}
}

func conversation() []models.Message {
	return []models.Message{
		{Sender: models.SenderAI, Content: "안녕하세요!"},
		{Sender: models.SenderUser, Content: "안녕하세요, 주말 잘 보내셨어요?"},
		{Sender: models.SenderAI, Content: "네, 전시회 다녀왔어요."},
		{Sender: models.SenderUser, Content: "우와 어떤 전시였어요?"},
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()
	provider := llmtest.New("fake").Reply(`{"friendliness":80,"curiosity":90,"empathy":70,"summary":"좋아요"}`)
	a := New(provider, nil)

	fb, fallback := a.Analyze(context.Background(), conversation(), "서연")
	if fallback {
		t.Fatal("unexpected fallback")
	}
	if fb.Overall != 80 || fb.Summary != "좋아요" {
		t.Errorf("unexpected feedback %+v", fb)
	}

	req := provider.Requests()[0]
	if !req.JSONMode {
		t.Error("feedback request should use JSON mode")
	}
	if !strings.Contains(req.Messages[0].Content, "서연: 네, 전시회 다녀왔어요.") {
		t.Errorf("transcript missing from prompt: %s", req.Messages[0].Content)
	}
}

func TestAnalyzeFallbacks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		provider *llmtest.Provider
		msgs     []models.Message
		calls    int
	}{
		{"no user messages", llmtest.New("fake"), []models.Message{{Sender: models.SenderAI, Content: "안녕"}}, 0},
		{"provider error", llmtest.New("fake").Fail(llm.ErrProviderUnavailable), conversation(), 1},
		{"garbage output", llmtest.New("fake").Reply("점수를 매길 수 없어요"), conversation(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, fallback := New(tt.provider, nil).Analyze(context.Background(), tt.msgs, "서연")
			if !fallback {
				t.Error("expected fallback")
			}
			if fb.Friendliness != NeutralScore || fb.Curiosity != NeutralScore || fb.Empathy != NeutralScore || fb.Overall != NeutralScore {
				t.Errorf("expected neutral scores, got %+v", fb)
			}
			if fb.Summary == "" {
				t.Error("fallback needs an explanatory summary")
			}
			if tt.provider.Calls() != tt.calls {
				t.Errorf("provider calls = %d, want %d", tt.provider.Calls(), tt.calls)
			}
		})
	}
}

func TestRealtimeTip(t *testing.T) {
	t.Parallel()
	provider := llmtest.New("fake").Reply("\n- \"상대의 대답에 이어서 질문해보세요\"\n두 번째 줄")
	a := New(provider, nil)
	persona := &models.Persona{Name: "서연", MBTI: "ENFP"}

	tip, err := a.RealtimeTip(context.Background(), "뭐 좋아해요?", persona)
	if err != nil {
		t.Fatal(err)
	}
	if tip != "상대의 대답에 이어서 질문해보세요" {
		t.Errorf("tip = %q", tip)
	}
	if !strings.Contains(provider.LastSystemPrompt()+provider.Requests()[0].Messages[0].Content, "서연") {
		t.Error("prompt should mention the persona")
	}

	if _, err := a.RealtimeTip(context.Background(), "  ", persona); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}

	failing := New(llmtest.New("fake").Fail(llm.ErrProviderUnavailable), nil)
	if _, err := failing.RealtimeTip(context.Background(), "hi", persona); !errors.Is(err, llm.ErrProviderUnavailable) {
		t.Errorf("expected provider error, got %v", err)
	}
}
