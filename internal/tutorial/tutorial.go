// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package tutorial holds the scripted practice conversation new users go
// through with the tutorial guide persona.
package tutorial

import (
	"strings"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

var script = []models.TutorialStep{
	{
		Index:            0,
		Title:            "인사하기",
		Instruction:      "가볍게 인사하면서 대화를 시작해보세요.",
		QuickReplies:     []string{"안녕하세요! 반가워요 😊", "안녕하세요, 처음 뵙겠습니다!", "하이~ 오늘 하루 어땠어요?"},
		ExpectedKeywords: []string{"안녕", "반가", "하이", "처음"},
	},
	{
		Index:            1,
		Title:            "질문하기",
		Instruction:      "상대에게 관심을 보이며 질문을 해보세요.",
		QuickReplies:     []string{"주말에는 보통 뭐 하세요?", "요즘 빠져 있는 취미가 있어요?", "어떤 음식 좋아하세요?"},
		ExpectedKeywords: []string{"?", "뭐", "어떤", "어떻게", "언제", "왜"},
	},
	{
		Index:            2,
		Title:            "공감하기",
		Instruction:      "상대의 이야기에 공감하는 말을 건네보세요.",
		QuickReplies:     []string{"와, 정말 재밌었겠어요!", "그 마음 완전 이해돼요.", "저도 그런 적 있어요!"},
		ExpectedKeywords: []string{"저도", "이해", "공감", "그렇", "재밌", "좋", "대박"},
	},
	{
		Index:            3,
		Title:            "내 이야기 나누기",
		Instruction:      "나에 대한 이야기도 조금 나눠보세요.",
		QuickReplies:     []string{"저는 주말에 카페 가는 걸 좋아해요.", "요즘 러닝을 시작했어요.", "저는 영화 보는 게 취미예요."},
		ExpectedKeywords: []string{"저는", "제가", "나는", "저도", "요즘"},
	},
	{
		Index:            4,
		Title:            "다음 화제 제안하기",
		Instruction:      "대화가 이어지도록 새로운 화제를 제안해보세요.",
		QuickReplies:     []string{"혹시 여행 좋아하세요?", "다음에 같이 맛집 얘기해봐요!", "최근에 본 영화 있어요?"},
		ExpectedKeywords: nil,
	},
	{
		Index:            5,
		Title:            "마무리하기",
		Instruction:      "기분 좋게 대화를 마무리해보세요.",
		QuickReplies:     []string{"오늘 대화 즐거웠어요!", "다음에 또 이야기해요 😊", "좋은 하루 보내세요!"},
		ExpectedKeywords: []string{"즐거", "다음에", "또", "좋은 하루", "고마", "감사"},
	},
}

// Len is the number of steps in the script.
func Len() int { return len(script) }

// Steps returns a copy of the script.
func Steps() []models.TutorialStep {
	out := make([]models.TutorialStep, len(script))
	for i, s := range script {
		out[i] = cloneStep(s)
	}
	return out
}

// Step returns the step at index.
func Step(index int) (models.TutorialStep, bool) {
	if index < 0 || index >= len(script) {
		return models.TutorialStep{}, false
	}
	return cloneStep(script[index]), true
}

// QuickReplies returns the suggested replies for step. Out of range
// steps, including a completed tutorial, have none.
func QuickReplies(step int) []string {
	s, ok := Step(step)
	if !ok {
		return []string{}
	}
	return s.QuickReplies
}

// Advance applies one user message to the current step. The step moves
// forward by one when the message contains an expected keyword, or
// unconditionally for steps without keywords. completed is true once the
// final step is passed.
func Advance(step int, message string) (next int, completed bool) {
	if step >= len(script) {
		return len(script), true
	}
	if step < 0 {
		step = 0
	}
	if !matches(script[step].ExpectedKeywords, message) {
		return step, false
	}
	next = step + 1
	return next, next >= len(script)
}

func matches(keywords []string, message string) bool {
	if len(keywords) == 0 {
		return true
	}
	message = strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(message, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func cloneStep(s models.TutorialStep) models.TutorialStep {
	s.QuickReplies = append([]string(nil), s.QuickReplies...)
	s.ExpectedKeywords = append([]string(nil), s.ExpectedKeywords...)
	return s
}
