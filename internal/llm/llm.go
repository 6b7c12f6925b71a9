// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package llm talks to chat completion providers.
//
// OpenAI and Gemini implement Provider. Breaker puts a circuit breaker in
// front of any Provider and Fallback chains two of them; New assembles the
// chain from configuration:
//
//	Fallback(Breaker(OpenAI), Breaker(Gemini))
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a prompt message.
type Role string

// Prompt roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prompt message.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

// Request is a provider-neutral completion request. Zero values fall back
// to the provider's configured defaults.
type Request struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for a single JSON object.
	JSONMode bool
}

// Response is a finished completion.
type Response struct {
	Content          string `json:"content"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	FinishReason     string `json:"finishReason,omitempty"`
}

// Chunk is one streamed text delta.
type Chunk struct {
	Delta string
}

// StreamFunc receives deltas in order. Returning an error aborts the stream.
type StreamFunc func(Chunk) error

// Provider is a chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	// Stream calls fn for each delta and returns the assembled response.
	Stream(ctx context.Context, req Request, fn StreamFunc) (*Response, error)
}

var (
	// ErrProviderUnavailable means the circuit is open or no provider is configured.
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	// ErrEmptyCompletion means the provider answered with no text.
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
	// ErrNoMessages rejects requests without any prompt messages.
	ErrNoMessages = errors.New("llm request has no messages")
	// ErrCompletionFailed is wrapped around errors from a provider call so
	// callers can tell upstream failures from local ones.
	ErrCompletionFailed = errors.New("llm completion failed")
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed. Other 4xx answers
// are caused by the request itself.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 408 || e.StatusCode == 429
}

// CallbackError wraps an error returned by a StreamFunc. It marks a stream
// that was stopped by the consumer, not by the provider.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string { return "stream consumer: " + e.Err.Error() }

func (e *CallbackError) Unwrap() error { return e.Err }

// callback wraps fn so its errors come back as *CallbackError.
func callback(fn StreamFunc, c Chunk) error {
	if err := fn(c); err != nil {
		return &CallbackError{Err: err}
	}
	return nil
}

// IsProviderFault reports whether err should count against a provider's
// health. Consumer aborts, cancellations and request errors do not.
func IsProviderFault(err error) bool {
	if err == nil {
		return false
	}
	var cbErr *CallbackError
	if errors.As(err, &cbErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNoMessages) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func validateRequest(req *Request) error {
	if len(req.Messages) == 0 {
		return ErrNoMessages
	}
	return nil
}
