// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package badges

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// Facts is what rules are evaluated against.
type Facts struct {
	Stats               models.GrowthStats
	TutorialCompleted   bool
	OnboardingCompleted bool
}

// Rule reports whether a user satisfies a badge.
type Rule func(f Facts) bool

// Flag rules.
const (
	RuleOnboardingCompleted = "onboarding_completed"
	RuleTutorialCompleted   = "tutorial_completed"
)

var metrics = map[string]func(models.GrowthStats) float64{
	"conversations":    func(s models.GrowthStats) float64 { return float64(s.TotalConversations) },
	"messages":         func(s models.GrowthStats) float64 { return float64(s.TotalMessages) },
	"coaching":         func(s models.GrowthStats) float64 { return float64(s.CoachingSessions) },
	"feedback":         func(s models.GrowthStats) float64 { return float64(s.FeedbackCount) },
	"streak":           func(s models.GrowthStats) float64 { return float64(s.StreakDays) },
	"avg_friendliness": func(s models.GrowthStats) float64 { return s.AvgFriendliness },
	"avg_curiosity":    func(s models.GrowthStats) float64 { return s.AvgCuriosity },
	"avg_empathy":      func(s models.GrowthStats) float64 { return s.AvgEmpathy },
}

// ParseRule compiles a badge rule. A rule is either a flag
// ("tutorial_completed", "onboarding_completed") or a threshold of the
// form "<metric>>=<number>", e.g. "streak>=7".
func ParseRule(rule string) (Rule, error) {
	rule = strings.TrimSpace(rule)
	switch rule {
	case RuleOnboardingCompleted:
		return func(f Facts) bool { return f.OnboardingCompleted }, nil
	case RuleTutorialCompleted:
		return func(f Facts) bool { return f.TutorialCompleted }, nil
	}

	name, value, ok := strings.Cut(rule, ">=")
	if !ok {
		return nil, fmt.Errorf("unsupported badge rule %q", rule)
	}
	metric, ok := metrics[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown metric in badge rule %q", rule)
	}
	threshold, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid threshold in badge rule %q: %w", rule, err)
	}
	return func(f Facts) bool { return metric(f.Stats) >= threshold }, nil
}
