// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

import "time"

// Gender values used for profiles, personas and partner preference.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// ValidGender reports whether g is a known gender value.
func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// UserProfile is the per-user profile row (Supabase "profiles").
type UserProfile struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Gender              string     `json:"gender,omitempty"`
	PartnerGender       string     `json:"partnerGender,omitempty"`
	Interests           []string   `json:"interests"`
	MBTI                string     `json:"mbti,omitempty"`
	ConversationStyle   string     `json:"conversationStyle,omitempty"`
	IsTutorialCompleted bool       `json:"isTutorialCompleted"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	LastActiveAt        *time.Time `json:"lastActiveAt,omitempty"`
}

// DisplayName returns the name to address the user with in prompts.
func (u *UserProfile) DisplayName() string {
	if u == nil || u.Name == "" {
		return "사용자"
	}
	return u.Name
}
