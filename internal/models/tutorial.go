// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package models

// TutorialStep is one step of the scripted tutorial conversation.
type TutorialStep struct {
	Index            int      `json:"index"`
	Title            string   `json:"title"`
	Instruction      string   `json:"instruction"`
	QuickReplies     []string `json:"quickReplies"`
	ExpectedKeywords []string `json:"expectedKeywords,omitempty"`
}
