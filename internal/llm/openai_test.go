// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI(OpenAIConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/v1/",
		Model:       "gpt-4o-mini",
		Temperature: 0.8,
		MaxTokens:   400,
	})
}

func userRequest(text string) Request {
	return Request{Messages: []Message{
		{Role: RoleSystem, Content: "너는 지민이야."},
		{Role: RoleUser, Content: text},
	}}
}

func TestOpenAI_Complete(t *testing.T) {
	t.Parallel()

	var got openAIRequest
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		_, _ = io.WriteString(w, `{"model":"gpt-4o-mini-2024","choices":[{"message":{"content":"안녕! 반가워"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":5}}`)
	})

	req := userRequest("안녕")
	req.JSONMode = true
	resp, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "안녕! 반가워" || resp.Provider != "openai" || resp.Model != "gpt-4o-mini-2024" {
		t.Errorf("response = %+v", resp)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 5 || resp.FinishReason != "stop" {
		t.Errorf("usage = %+v", resp)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 400 || got.Temperature != 0.8 {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format")
	}
	if got.Stream {
		t.Error("Complete must not request a stream")
	}
}

func TestOpenAI_CompleteErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx becomes APIError", func(t *testing.T) {
		t.Parallel()
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
		})
		_, err := client.Complete(context.Background(), userRequest("hi"))
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusTooManyRequests || !strings.Contains(apiErr.Body, "rate limited") {
			t.Errorf("apiErr = %+v", apiErr)
		}
		if !apiErr.Temporary() {
			t.Error("429 should be temporary")
		}
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  "}}]}`)
		})
		if _, err := client.Complete(context.Background(), userRequest("hi")); !errors.Is(err, ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})

	t.Run("no messages", func(t *testing.T) {
		t.Parallel()
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("server should not be called")
		})
		if _, err := client.Complete(context.Background(), Request{}); !errors.Is(err, ErrNoMessages) {
			t.Errorf("expected ErrNoMessages, got %v", err)
		}
	})
}

func TestOpenAI_Stream(t *testing.T) {
	t.Parallel()

	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream || req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
			t.Errorf("stream flags not set: %+v", req)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": openai keepalive\n\n")
		_, _ = io.WriteString(w, "data: {\"model\":\"gpt-4o-mini\",\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"오늘 \"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {broken json\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"뭐 했어?\"},\"finish_reason\":\"stop\"}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":30,\"completion_tokens\":4}}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	var deltas []string
	resp, err := client.Stream(context.Background(), userRequest("hi"), func(c Chunk) error {
		deltas = append(deltas, c.Delta)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if strings.Join(deltas, "|") != "오늘 |뭐 했어?" {
		t.Errorf("deltas = %q", deltas)
	}
	if resp.Content != "오늘 뭐 했어?" || resp.FinishReason != "stop" {
		t.Errorf("response = %+v", resp)
	}
	if resp.PromptTokens != 30 || resp.CompletionTokens != 4 {
		t.Errorf("usage = %+v", resp)
	}
}

func TestOpenAI_StreamCallbackAbort(t *testing.T) {
	t.Parallel()

	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n")
	})

	gone := errors.New("client disconnected")
	_, err := client.Stream(context.Background(), userRequest("hi"), func(Chunk) error { return gone })

	var cbErr *CallbackError
	if !errors.As(err, &cbErr) || !errors.Is(err, gone) {
		t.Fatalf("expected CallbackError wrapping %v, got %v", gone, err)
	}
	if IsProviderFault(err) {
		t.Error("consumer abort must not count as a provider fault")
	}
}

func TestOpenAI_StreamErrorChunk(t *testing.T) {
	t.Parallel()

	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	})
	_, err := client.Stream(context.Background(), userRequest("hi"), func(Chunk) error { return nil })
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Body != "overloaded" {
		t.Fatalf("expected APIError overloaded, got %v", err)
	}
}

func TestIsProviderFault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"bad request", &APIError{StatusCode: 400}, false},
		{"server error", &APIError{StatusCode: 503}, true},
		{"rate limited", &APIError{StatusCode: 429}, true},
		{"empty", ErrEmptyCompletion, true},
		{"callback", &CallbackError{Err: io.ErrClosedPipe}, false},
	}
	for _, tt := range tests {
		if got := IsProviderFault(tt.err); got != tt.want {
			t.Errorf("%s: IsProviderFault = %v, want %v", tt.name, got, tt.want)
		}
	}
}
