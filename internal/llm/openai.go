// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/metrics"
	"github.com/big-teddy/Qupid-sub001/internal/sse"
)

const maxErrorBody = 4096

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// OpenAI calls {BaseURL}/chat/completions.
type OpenAI struct {
	cfg     OpenAIConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewOpenAI returns an OpenAI client. A zero RequestsPerSecond disables pacing.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	client := cfg.HTTPClient
	if client == nil {
		// No client-level timeout: streams are bounded by the request context.
		client = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAI{
		cfg:     cfg,
		client:  client,
		limiter: newLimiter(cfg.RequestsPerSecond),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *streamOptions  `json:"stream_options,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *openAIUsage     `json:"usage"`
	Error *openAIErrorBody `json:"error"`
}

type openAIChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *openAIUsage     `json:"usage"`
	Error *openAIErrorBody `json:"error"`
}

func (o *OpenAI) buildRequest(req Request, stream bool) openAIRequest {
	body := openAIRequest{
		Model:       firstNonEmpty(req.Model, o.cfg.Model),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if body.Temperature == 0 {
		body.Temperature = o.cfg.Temperature
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = o.cfg.MaxTokens
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if stream {
		body.Stream = true
		body.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return body
}

func (o *OpenAI) do(ctx context.Context, body openAIRequest) (*http.Response, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	if body.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Provider: o.Name(), StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return resp, nil
}

// Complete implements Provider.
func (o *OpenAI) Complete(ctx context.Context, req Request) (out *Response, err error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordLLMRequest(o.Name(), "complete", time.Since(start), err) }()

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	resp, err := o.do(ctx, o.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if decoded.Error != nil {
		return nil, &APIError{Provider: o.Name(), StatusCode: resp.StatusCode, Body: decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}

	out = &Response{
		Content:      decoded.Choices[0].Message.Content,
		Model:        decoded.Model,
		Provider:     o.Name(),
		FinishReason: decoded.Choices[0].FinishReason,
	}
	if decoded.Usage != nil {
		out.PromptTokens = decoded.Usage.PromptTokens
		out.CompletionTokens = decoded.Usage.CompletionTokens
	}
	metrics.RecordLLMTokens(o.Name(), out.PromptTokens, out.CompletionTokens)
	return out, nil
}

// Stream implements Provider. Malformed chunks are skipped.
func (o *OpenAI) Stream(ctx context.Context, req Request, fn StreamFunc) (out *Response, err error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordLLMRequest(o.Name(), "stream", time.Since(start), err) }()

	body := o.buildRequest(req, true)
	resp, err := o.do(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out = &Response{Model: body.Model, Provider: o.Name()}
	var text strings.Builder

	stats, err := sse.DecodeChunks(resp.Body, func(c openAIChunk) error {
		if c.Error != nil {
			return &APIError{Provider: o.Name(), StatusCode: http.StatusBadGateway, Body: c.Error.Message}
		}
		if c.Model != "" {
			out.Model = c.Model
		}
		if c.Usage != nil {
			out.PromptTokens = c.Usage.PromptTokens
			out.CompletionTokens = c.Usage.CompletionTokens
		}
		for _, choice := range c.Choices {
			if choice.FinishReason != nil {
				out.FinishReason = *choice.FinishReason
			}
			if choice.Delta.Content == "" {
				continue
			}
			text.WriteString(choice.Delta.Content)
			if err := callback(fn, Chunk{Delta: choice.Delta.Content}); err != nil {
				return err
			}
		}
		return nil
	})
	if stats.Skipped > 0 {
		logging.Ctx(ctx).Debug().Int("skipped", stats.Skipped).Msg("skipped malformed openai stream chunks")
	}
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	out.Content = text.String()
	if strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	metrics.RecordLLMTokens(o.Name(), out.PromptTokens, out.CompletionTokens)
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
