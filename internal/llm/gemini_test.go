// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package llm

import "testing"

func TestToGeminiContents(t *testing.T) {
	t.Parallel()

	system, contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "안녕"},
		{Role: RoleAssistant, Content: "반가워"},
		{Role: RoleSystem, Content: "stay short"},
		{Role: RoleUser, Content: "뭐해?"},
	})

	if system == nil || len(system.Parts) != 1 || system.Parts[0].Text != "persona\n\nstay short" {
		t.Fatalf("system instruction = %+v", system)
	}
	wantRoles := []string{"user", "model", "user"}
	if len(contents) != len(wantRoles) {
		t.Fatalf("got %d contents, want %d", len(contents), len(wantRoles))
	}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Errorf("contents[%d].Role = %q, want %q", i, c.Role, wantRoles[i])
		}
	}
	if contents[1].Parts[0].Text != "반가워" {
		t.Errorf("assistant text = %q", contents[1].Parts[0].Text)
	}
}

func TestToGeminiContents_NoSystem(t *testing.T) {
	t.Parallel()

	system, contents := toGeminiContents([]Message{{Role: RoleUser, Content: "hi"}})
	if system != nil {
		t.Errorf("expected nil system instruction")
	}
	if len(contents) != 1 {
		t.Errorf("contents = %d", len(contents))
	}
}

func TestGeminiBuildConfig(t *testing.T) {
	t.Parallel()

	g := &Gemini{cfg: GeminiConfig{Model: "gemini-2.0-flash", Temperature: 0.7, MaxTokens: 300}}
	model, _, _, gc := g.buildConfig(Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		JSONMode: true,
	})
	if model != "gemini-2.0-flash" {
		t.Errorf("model = %q", model)
	}
	if gc.Temperature == nil || *gc.Temperature != float32(0.7) {
		t.Errorf("temperature = %v", gc.Temperature)
	}
	if gc.MaxOutputTokens != 300 || gc.ResponseMIMEType != "application/json" {
		t.Errorf("config = %+v", gc)
	}
}
