// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// Well-known persona IDs referenced by services.
const (
	TutorialPersonaID = "tutorial-guide"
	DefaultCoachID    = "coach-hana"
)

// SeedResult reports what Seed inserted.
type SeedResult struct {
	Personas int
	Badges   int
}

// Seed inserts the default personas and badges that do not exist yet.
// Existing rows are left untouched so admin edits survive restarts.
func Seed(ctx context.Context, personas PersonaStore, badges BadgeStore) (SeedResult, error) {
	var res SeedResult

	for _, p := range DefaultPersonas() {
		_, err := personas.GetPersona(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return res, fmt.Errorf("lookup persona %s: %w", p.ID, err)
		}
		if err := personas.CreatePersona(ctx, p); err != nil {
			return res, fmt.Errorf("seed persona %s: %w", p.ID, err)
		}
		res.Personas++
	}

	for _, b := range DefaultBadges() {
		if err := badges.UpsertBadge(ctx, b); err != nil {
			return res, fmt.Errorf("seed badge %s: %w", b.ID, err)
		}
		res.Badges++
	}

	logging.Info().Int("personas", res.Personas).Int("badges", res.Badges).Msg("Seeded default data")
	return res, nil
}

// DefaultBadges returns the built-in badge catalog.
func DefaultBadges() []*models.Badge {
	return []*models.Badge{
		{ID: models.BadgeFirstStep, Name: "첫 걸음", Description: "온보딩 설문을 완료했어요", Icon: "👣", Rule: "onboarding_completed"},
		{ID: models.BadgeTutorialDone, Name: "연습 완료", Description: "튜토리얼 대화를 끝까지 마쳤어요", Icon: "🎓", Rule: "tutorial_completed"},
		{ID: models.BadgeFirstConversation, Name: "첫 대화", Description: "첫 번째 대화를 시작했어요", Icon: "💬", Rule: "conversations>=1"},
		{ID: models.BadgeTenConversations, Name: "대화 애호가", Description: "대화 10회를 달성했어요", Icon: "🔥", Rule: "conversations>=10"},
		{ID: models.BadgeHundredMessages, Name: "수다쟁이", Description: "메시지 100개를 보냈어요", Icon: "📨", Rule: "messages>=100"},
		{ID: models.BadgeFirstCoaching, Name: "코칭 입문", Description: "첫 코칭 세션을 완료했어요", Icon: "🧭", Rule: "coaching>=1"},
		{ID: models.BadgeStreak3, Name: "3일 연속", Description: "3일 연속으로 대화했어요", Icon: "📅", Rule: "streak>=3"},
		{ID: models.BadgeStreak7, Name: "일주일 연속", Description: "7일 연속으로 대화했어요", Icon: "🏆", Rule: "streak>=7"},
		{ID: models.BadgeEmpathyMaster, Name: "공감 마스터", Description: "공감 점수 평균 80점 이상", Icon: "💗", Rule: "avg_empathy>=80"},
		{ID: models.BadgeCuriosityMaster, Name: "호기심 대장", Description: "호기심 점수 평균 80점 이상", Icon: "🔍", Rule: "avg_curiosity>=80"},
	}
}

// DefaultPersonas returns the built-in personas: regular chat partners,
// the tutorial guide and the coaches.
func DefaultPersonas() []*models.Persona {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Persona{
		{
			ID: "persona-seoyeon", Name: "서연", Age: 27, Gender: models.GenderFemale, MBTI: "ENFP",
			Job: "브랜드 마케터", Intro: "새로운 카페 찾기가 취미인 마케터예요.",
			Interests: []string{"카페", "여행", "전시회", "사진"}, Tags: []string{"밝음", "수다"},
			ConversationStyle: "리액션이 크고 질문을 자주 던진다",
			Difficulty:        models.DifficultyEasy, CreatedAt: created,
		},
		{
			ID: "persona-jihoon", Name: "지훈", Age: 29, Gender: models.GenderMale, MBTI: "ISTJ",
			Job: "백엔드 개발자", Intro: "주말엔 등산, 평일엔 코딩하는 개발자입니다.",
			Interests: []string{"등산", "코딩", "요리", "다큐멘터리"}, Tags: []string{"차분함", "성실"},
			ConversationStyle: "짧고 정확하게 말하며 먼저 질문을 잘 하지 않는다",
			Difficulty:        models.DifficultyHard, CreatedAt: created,
		},
		{
			ID: "persona-minji", Name: "민지", Age: 25, Gender: models.GenderFemale, MBTI: "INFJ",
			Job: "대학원생", Intro: "책과 고양이를 좋아하는 심리학 대학원생이에요.",
			Interests: []string{"독서", "고양이", "심리학", "영화"}, Tags: []string{"따뜻함", "신중"},
			ConversationStyle: "상대의 감정에 관심이 많고 깊은 대화를 좋아한다",
			Difficulty:        models.DifficultyNormal, CreatedAt: created,
		},
		{
			ID: "persona-hyunwoo", Name: "현우", Age: 28, Gender: models.GenderMale, MBTI: "ESFP",
			Job: "헬스 트레이너", Intro: "운동이랑 맛집 탐방이면 자신 있어요!",
			Interests: []string{"운동", "맛집", "음악", "캠핑"}, Tags: []string{"활발", "유머"},
			ConversationStyle: "농담을 섞어 분위기를 띄운다",
			Difficulty:        models.DifficultyEasy, CreatedAt: created,
		},
		{
			ID: "persona-yuna", Name: "유나", Age: 30, Gender: models.GenderFemale, MBTI: "INTJ",
			Job: "전략 컨설턴트", Intro: "논리적인 대화를 좋아하는 컨설턴트입니다.",
			Interests: []string{"경제", "와인", "테니스", "재즈"}, Tags: []string{"지적", "도도"},
			ConversationStyle: "근거 없는 말에는 반문하고 흥미가 생겨야 마음을 연다",
			Difficulty:        models.DifficultyHard, CreatedAt: created,
		},
		{
			ID: "persona-dohyun", Name: "도현", Age: 26, Gender: models.GenderMale, MBTI: "ENFJ",
			Job: "초등학교 교사", Intro: "아이들과 지내는 게 행복한 선생님이에요.",
			Interests: []string{"보드게임", "여행", "봉사", "영화"}, Tags: []string{"다정", "배려"},
			ConversationStyle: "상대의 이야기를 끝까지 듣고 칭찬을 아끼지 않는다",
			Difficulty:        models.DifficultyNormal, CreatedAt: created,
		},
		{
			ID: TutorialPersonaID, Name: "큐피", Age: 24, Gender: models.GenderOther, MBTI: "ESFJ",
			Intro:     "첫 대화 연습을 도와주는 친절한 가이드예요.",
			Interests: []string{"대화", "칭찬"}, Tags: []string{"튜토리얼"},
			SystemPrompt: "당신은 대화 연습을 처음 하는 사용자를 돕는 친절한 가이드입니다. " +
				"사용자가 어떤 말을 해도 긍정적으로 반응하고, 현재 튜토리얼 단계의 목표를 자연스럽게 유도하세요.",
			Difficulty: models.DifficultyEasy, IsTutorial: true, CreatedAt: created,
		},
		{
			ID: DefaultCoachID, Name: "하나 코치", Age: 34, Gender: models.GenderFemale, MBTI: "ENFJ",
			Job: "연애 코치", Intro: "첫 만남 대화를 편하게 만드는 법을 알려드려요.",
			Interests: []string{"커뮤니케이션", "심리학"}, Tags: []string{"코치"},
			Specialty: "첫 만남 대화",
			SystemPrompt: "당신은 따뜻하지만 솔직한 연애 대화 코치입니다. " +
				"사용자의 메시지를 구체적으로 칭찬하고, 개선할 점은 예시 문장과 함께 제안하세요.",
			Difficulty: models.DifficultyNormal, IsCoach: true, CreatedAt: created,
		},
		{
			ID: "coach-junho", Name: "준호 코치", Age: 38, Gender: models.GenderMale, MBTI: "INTP",
			Job: "커뮤니케이션 강사", Intro: "대화가 끊기지 않는 질문법을 분석해 드립니다.",
			Interests: []string{"질문법", "화법"}, Tags: []string{"코치"},
			Specialty: "질문과 대화 이어가기",
			SystemPrompt: "당신은 분석적인 대화 코치입니다. 사용자의 질문이 열린 질문인지, " +
				"대화를 이어갈 여지가 있는지 짚어주고 더 나은 질문을 제안하세요.",
			Difficulty: models.DifficultyNormal, IsCoach: true, CreatedAt: created,
		},
		{
			ID: "coach-sora", Name: "소라 코치", Age: 31, Gender: models.GenderFemale, MBTI: "ISFJ",
			Job: "상담 심리사", Intro: "공감하는 말하기를 함께 연습해요.",
			Interests: []string{"공감", "감정 표현"}, Tags: []string{"코치"},
			Specialty: "공감 표현",
			SystemPrompt: "당신은 공감 대화를 가르치는 상담 심리사 코치입니다. " +
				"상대의 감정을 읽고 반영하는 표현을 중심으로 피드백하세요.",
			Difficulty: models.DifficultyEasy, IsCoach: true, CreatedAt: created,
		},
	}
}
