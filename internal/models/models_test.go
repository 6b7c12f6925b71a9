// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import (
	"math"
	"testing"
)

func TestPersonaFilterMatches(t *testing.T) {
	t.Parallel()
	yes, no := true, false
	p := &Persona{Gender: GenderFemale, MBTI: "ENFP", Difficulty: DifficultyEasy, IsCoach: false}

	tests := []struct {
		name   string
		filter PersonaFilter
		want   bool
	}{
		{"empty filter", PersonaFilter{}, true},
		{"gender match", PersonaFilter{Gender: GenderFemale}, true},
		{"gender mismatch", PersonaFilter{Gender: GenderMale}, false},
		{"mbti mismatch", PersonaFilter{MBTI: "INTJ"}, false},
		{"difficulty match", PersonaFilter{Difficulty: DifficultyEasy}, true},
		{"coaches only", PersonaFilter{Coaches: &yes}, false},
		{"exclude coaches", PersonaFilter{Coaches: &no}, true},
		{"tutorial only", PersonaFilter{Tutorial: &yes}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(p); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeWeekly(t *testing.T) {
	t.Parallel()
	a := WeeklyPoint{WeekStart: "2026-03-02", Friendliness: 60, Curiosity: 40, Empathy: 80, Conversations: 3}
	b := WeeklyPoint{WeekStart: "2026-03-02", Friendliness: 100, Curiosity: 80, Empathy: 40, Conversations: 1}

	got := MergeWeekly(a, b)
	if got.Conversations != 4 {
		t.Errorf("Conversations = %d, want 4", got.Conversations)
	}
	if math.Abs(got.Friendliness-70) > 1e-9 || math.Abs(got.Curiosity-50) > 1e-9 || math.Abs(got.Empathy-70) > 1e-9 {
		t.Errorf("unexpected merged averages %+v", got)
	}

	if z := MergeWeekly(WeeklyPoint{WeekStart: "x"}, WeeklyPoint{}); z.WeekStart != "x" {
		t.Errorf("zero merge should return the first point, got %+v", z)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	var nilUser *UserProfile
	if nilUser.DisplayName() != "사용자" {
		t.Error("nil profile should use the generic name")
	}
	if (&UserProfile{Name: "민준"}).DisplayName() != "민준" {
		t.Error("expected profile name")
	}
}

func TestConversationKindValid(t *testing.T) {
	t.Parallel()
	for _, k := range []ConversationKind{KindPersona, KindCoaching, KindTutorial} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if ConversationKind("group").Valid() {
		t.Error("unknown kind accepted")
	}
}
