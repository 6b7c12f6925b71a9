// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package analysis scores conversations with the LLM and produces short
// realtime coaching tips. Chat and coaching share one Analyzer.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
)

// NeutralScore is used for every score when analysis is unavailable.
const NeutralScore = 50

const (
	fallbackEmptySummary  = "대화가 충분하지 않아 기본 점수를 드렸어요. 조금 더 이야기를 나눠보세요!"
	fallbackFailedSummary = "지금은 대화를 분석할 수 없어 기본 점수를 드렸어요. 잠시 후 다시 시도해주세요."
	defaultSummary        = "대화를 분석했어요."

	feedbackTemperature = 0.2
	feedbackMaxTokens   = 600
	tipTemperature      = 0.7
	tipMaxTokens        = 120
	maxTipRunes         = 120
)

var (
	// ErrNoFeedback means the model output held no usable JSON object.
	ErrNoFeedback = errors.New("no feedback object in model output")
	// ErrEmptyMessage rejects realtime tips for blank messages.
	ErrEmptyMessage = errors.New("message is empty")
)

// Analyzer produces feedback and tips.
type Analyzer struct {
	provider llm.Provider
	prompts  *prompt.Builder
}

// New creates an Analyzer.
func New(provider llm.Provider, prompts *prompt.Builder) *Analyzer {
	if prompts == nil {
		prompts = prompt.NewBuilder()
	}
	return &Analyzer{provider: provider, prompts: prompts}
}

// Analyze scores the user's side of msgs. It never fails: when there is
// nothing to score or the model output is unusable it returns neutral
// feedback and fallback=true.
func (a *Analyzer) Analyze(ctx context.Context, msgs []models.Message, personaName string) (fb models.Feedback, fallback bool) {
	if !hasUserMessage(msgs) {
		return Neutral(fallbackEmptySummary), true
	}
	transcript := a.prompts.RenderTranscript(msgs, personaName)

	resp, err := a.provider.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: a.prompts.FeedbackPrompt(transcript)}},
		Temperature: feedbackTemperature,
		MaxTokens:   feedbackMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		logging.CtxErr(ctx, err).Msg("feedback analysis failed, using neutral scores")
		return Neutral(fallbackFailedSummary), true
	}

	fb, err = ParseFeedback(resp.Content)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("output", logging.SanitizeValue(resp.Content)).
			Msg("unparseable feedback, using neutral scores")
		return Neutral(fallbackFailedSummary), true
	}
	return fb, false
}

func hasUserMessage(msgs []models.Message) bool {
	for _, m := range msgs {
		if m.Sender == models.SenderUser && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}

// Neutral returns the fallback feedback.
func Neutral(summary string) models.Feedback {
	return models.Feedback{
		Friendliness: NeutralScore,
		Curiosity:    NeutralScore,
		Empathy:      NeutralScore,
		Overall:      NeutralScore,
		Summary:      summary,
		Strengths:    []string{},
		Improvements: []string{},
	}
}

// score accepts a JSON number or a numeric string.
type score struct {
	value float64
	set   bool
}

func (s *score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	raw := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("score %s: %w", b, err)
	}
	s.value, s.set = v, true
	return nil
}

type rawFeedback struct {
	Friendliness score    `json:"friendliness"`
	Curiosity    score    `json:"curiosity"`
	Empathy      score    `json:"empathy"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// ParseFeedback extracts feedback from model output. Code fences and text
// around the first JSON object are ignored, scores are clamped to 0..100
// and Overall is the rounded mean of the three scores.
func ParseFeedback(output string) (models.Feedback, error) {
	obj := ExtractJSONObject(output)
	if obj == "" {
		return models.Feedback{}, ErrNoFeedback
	}
	var raw rawFeedback
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return models.Feedback{}, fmt.Errorf("decode feedback: %w", err)
	}
	if !raw.Friendliness.set && !raw.Curiosity.set && !raw.Empathy.set {
		return models.Feedback{}, ErrNoFeedback
	}

	fb := models.Feedback{
		Friendliness: clamp(raw.Friendliness),
		Curiosity:    clamp(raw.Curiosity),
		Empathy:      clamp(raw.Empathy),
		Summary:      strings.TrimSpace(raw.Summary),
		Strengths:    nonEmpty(raw.Strengths),
		Improvements: nonEmpty(raw.Improvements),
	}
	fb.Overall = int(math.Round(float64(fb.Friendliness+fb.Curiosity+fb.Empathy) / 3))
	if fb.Summary == "" {
		fb.Summary = defaultSummary
	}
	return fb, nil
}

// clamp rounds s into 0..100. Missing scores are neutral.
func clamp(s score) int {
	if !s.set || math.IsNaN(s.value) {
		return NeutralScore
	}
	v := math.Round(s.value)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ExtractJSONObject returns the first balanced {...} in s, skipping
// braces inside string literals. It returns "" when there is none.
func ExtractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// RealtimeTip returns a one-line tip for the user's latest message to p.
func (a *Analyzer) RealtimeTip(ctx context.Context, message string, p *models.Persona) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	resp, err := a.provider.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: a.prompts.RealtimeTipPrompt(message, p)}},
		Temperature: tipTemperature,
		MaxTokens:   tipMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("realtime tip: %w: %w", llm.ErrCompletionFailed, err)
	}
	tip := cleanTip(resp.Content)
	if tip == "" {
		return "", llm.ErrEmptyCompletion
	}
	return tip, nil
}

// cleanTip keeps the first non-blank line without list markers or quotes.
func cleanTip(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•· ")
		line = strings.Trim(line, `"'“”`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTipRunes {
			line = string(r[:maxTipRunes])
		}
		return line
	}
	return ""
}
