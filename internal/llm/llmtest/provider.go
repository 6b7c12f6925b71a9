// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/big-teddy/Qupid-sub001/internal/llm"
)

// ErrNoScript is returned when a call arrives with no scripted step left
// and no Handler set.
var ErrNoScript = errors.New("llmtest: no scripted response")

// Step is one scripted answer. Chunks, when set, are streamed in order;
// otherwise Content is streamed as one chunk. With FailAfter > 0 the
// stream emits that many chunks and then returns Err.
type Step struct {
	Content   string
	Chunks    []string
	Err       error
	FailAfter int
}

// Provider replays Steps in order, then falls back to Handler.
type Provider struct {
	// Handler answers calls once the script is exhausted.
	Handler func(req llm.Request) (string, error)

	mu       sync.Mutex
	name     string
	steps    []Step
	requests []llm.Request
}

// New returns a provider named name.
func New(name string, steps ...Step) *Provider {
	return &Provider{name: name, steps: steps}
}

// Reply appends a successful step.
func (p *Provider) Reply(content string) *Provider {
	return p.Script(Step{Content: content})
}

// Fail appends a failing step.
func (p *Provider) Fail(err error) *Provider {
	return p.Script(Step{Err: err})
}

// Script appends steps.
func (p *Provider) Script(steps ...Step) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, steps...)
	return p
}

// Requests returns a copy of every request received.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// Calls returns the number of requests received.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// LastSystemPrompt returns the system message of the most recent request.
func (p *Provider) LastSystemPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return ""
	}
	for _, m := range p.requests[len(p.requests)-1].Messages {
		if m.Role == llm.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Name implements llm.Provider.
func (p *Provider) Name() string { return p.name }

func (p *Provider) next(req llm.Request) Step {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	if len(p.steps) > 0 {
		s := p.steps[0]
		p.steps = p.steps[1:]
		p.mu.Unlock()
		return s
	}
	handler := p.Handler
	p.mu.Unlock()

	if handler == nil {
		return Step{Err: ErrNoScript}
	}
	content, err := handler(req)
	return Step{Content: content, Err: err}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := p.next(req)
	if s.Err != nil && s.FailAfter == 0 {
		return nil, s.Err
	}
	content := s.Content
	if content == "" {
		content = strings.Join(s.Chunks, "")
	}
	if content == "" {
		return nil, llm.ErrEmptyCompletion
	}
	return &llm.Response{Content: content, Model: "scripted", Provider: p.name, FinishReason: "stop"}, nil
}

// Stream implements llm.Provider.
func (p *Provider) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := p.next(req)
	if s.Err != nil && s.FailAfter == 0 {
		return nil, s.Err
	}

	chunks := s.Chunks
	if len(chunks) == 0 && s.Content != "" {
		chunks = []string{s.Content}
	}
	var text strings.Builder
	for i, c := range chunks {
		if s.FailAfter > 0 && i == s.FailAfter {
			return nil, s.Err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text.WriteString(c)
		if err := fn(llm.Chunk{Delta: c}); err != nil {
			return nil, &llm.CallbackError{Err: err}
		}
	}
	if s.FailAfter > 0 {
		return nil, s.Err
	}
	if text.Len() == 0 {
		return nil, llm.ErrEmptyCompletion
	}
	return &llm.Response{Content: text.String(), Model: "scripted", Provider: p.name, FinishReason: "stop"}, nil
}

var _ llm.Provider = (*Provider)(nil)
