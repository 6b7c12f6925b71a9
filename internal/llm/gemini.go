// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/big-teddy/Qupid-sub001/internal/metrics"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerSecond float64
	// BaseURL overrides the Gemini API endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	cfg     GeminiConfig
	client  *genai.Client
	limiter *rate.Limiter
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{cfg: cfg, client: client, limiter: newLimiter(cfg.RequestsPerSecond)}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// toGeminiContents moves system messages into a single system instruction
// and maps the assistant role to Gemini's "model" role.
func toGeminiContents(msgs []Message) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	instruction := &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(strings.Join(system, "\n\n"))}}
	return instruction, contents
}

func (g *Gemini) buildConfig(req Request) (string, *genai.Content, []*genai.Content, *genai.GenerateContentConfig) {
	system, contents := toGeminiContents(req.Messages)

	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.cfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.cfg.MaxTokens
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(temperature)),
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}
	if req.JSONMode {
		gc.ResponseMIMEType = "application/json"
	}
	return firstNonEmpty(req.Model, g.cfg.Model), system, contents, gc
}

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, req Request) (out *Response, err error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordLLMRequest(g.Name(), "complete", time.Since(start), err) }()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	model, _, contents, gc := g.buildConfig(req)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out = &Response{Content: resp.Text(), Model: model, Provider: g.Name()}
	applyGeminiMeta(out, resp)
	if strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	metrics.RecordLLMTokens(g.Name(), out.PromptTokens, out.CompletionTokens)
	return out, nil
}

// Stream implements Provider.
func (g *Gemini) Stream(ctx context.Context, req Request, fn StreamFunc) (out *Response, err error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordLLMRequest(g.Name(), "stream", time.Since(start), err) }()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	model, _, contents, gc := g.buildConfig(req)
	out = &Response{Model: model, Provider: g.Name()}
	var text strings.Builder

	for resp, streamErr := range g.client.Models.GenerateContentStream(ctx, model, contents, gc) {
		if streamErr != nil {
			return nil, fmt.Errorf("gemini stream: %w", streamErr)
		}
		applyGeminiMeta(out, resp)
		delta := resp.Text()
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if err := callback(fn, Chunk{Delta: delta}); err != nil {
			return nil, err
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	out.Content = text.String()
	if strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyCompletion
	}
	metrics.RecordLLMTokens(g.Name(), out.PromptTokens, out.CompletionTokens)
	return out, nil
}

func applyGeminiMeta(out *Response, resp *genai.GenerateContentResponse) {
	if resp == nil {
		return
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		out.FinishReason = strings.ToLower(string(resp.Candidates[0].FinishReason))
	}
}
