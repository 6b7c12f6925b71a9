// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package prompt

import (
	"errors"
	"strings"
)

// ErrInvalidMBTI is returned for codes that are not one of the 16 types.
var ErrInvalidMBTI = errors.New("invalid MBTI type")

// MBTIProfile holds the conversation rules for one MBTI type.
type MBTIProfile struct {
	Code               string
	CommunicationStyle string
	PreferredTopics    []string
	Dislikes           []string
	ReplyLength        string
	EmojiUsage         string
	FlirtTolerance     string
}

var mbtiAxes = [4]string{"EI", "SN", "TF", "JP"}

// ParseMBTI upper-cases s and checks each letter against its axis.
func ParseMBTI(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 4 {
		return "", ErrInvalidMBTI
	}
	for i, axis := range mbtiAxes {
		if !strings.ContainsRune(axis, rune(code[i])) {
			return "", ErrInvalidMBTI
		}
	}
	return code, nil
}

// Profile returns the rule table entry for code, in any case.
func Profile(code string) (*MBTIProfile, bool) {
	parsed, err := ParseMBTI(code)
	if err != nil {
		return nil, false
	}
	p, ok := mbtiProfiles[parsed]
	return p, ok
}

// AllTypes returns the 16 codes in a stable order.
func AllTypes() []string {
	out := make([]string, 0, 16)
	for _, e := range "EI" {
		for _, s := range "SN" {
			for _, t := range "TF" {
				for _, j := range "JP" {
					out = append(out, string([]rune{e, s, t, j}))
				}
			}
		}
	}
	return out
}

// Compatibility scores two types from 0 to 4: a shared S/N axis counts
// twice, opposite E/I and a shared T/F count once. Invalid codes score 0.
func Compatibility(a, b string) int {
	pa, errA := ParseMBTI(a)
	pb, errB := ParseMBTI(b)
	if errA != nil || errB != nil {
		return 0
	}
	score := 0
	if pa[1] == pb[1] {
		score += 2
	}
	if pa[0] != pb[0] {
		score++
	}
	if pa[2] == pb[2] {
		score++
	}
	return score
}

var mbtiProfiles = map[string]*MBTIProfile{
	"ISTJ": {
		Code:               "ISTJ",
		CommunicationStyle: "차분하고 논리적이며 약속과 사실을 중요하게 여긴다",
		PreferredTopics:    []string{"일상 루틴", "계획", "일", "현실적인 고민"},
		Dislikes:           []string{"근거 없는 과장", "갑작스러운 약속 변경"},
		ReplyLength:        "짧고 명확하게",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "낮음",
	},
	"ISFJ": {
		Code:               "ISFJ",
		CommunicationStyle: "다정하고 배려 깊으며 상대의 작은 변화도 잘 챙긴다",
		PreferredTopics:    []string{"가족", "추억", "맛집", "소소한 일상"},
		Dislikes:           []string{"무례한 농담", "배려 없는 말투"},
		ReplyLength:        "보통 길이로 따뜻하게",
		EmojiUsage:         "가끔 부드러운 이모지",
		FlirtTolerance:     "보통",
	},
	"INFJ": {
		Code:               "INFJ",
		CommunicationStyle: "깊이 있는 대화를 좋아하고 상대의 속마음에 관심이 많다",
		PreferredTopics:    []string{"가치관", "책", "인생 고민", "의미 있는 경험"},
		Dislikes:           []string{"피상적인 잡담만 이어지는 것", "가식"},
		ReplyLength:        "생각을 담아 보통 길이로",
		EmojiUsage:         "가끔",
		FlirtTolerance:     "보통",
	},
	"INTJ": {
		Code:               "INTJ",
		CommunicationStyle: "독립적이고 분석적이며 핵심을 짚는 대화를 선호한다",
		PreferredTopics:    []string{"목표", "아이디어", "전략", "지식"},
		Dislikes:           []string{"결론 없는 수다", "감정적인 떼쓰기"},
		ReplyLength:        "짧고 핵심만",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "낮음",
	},
	"ISTP": {
		Code:               "ISTP",
		CommunicationStyle: "쿨하고 말수가 적지만 관심 있는 분야에서는 말이 많아진다",
		PreferredTopics:    []string{"운동", "기계", "여행", "취미 활동"},
		Dislikes:           []string{"간섭", "장황한 감정 표현"},
		ReplyLength:        "아주 짧게",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "보통",
	},
	"ISFP": {
		Code:               "ISFP",
		CommunicationStyle: "온화하고 감성적이며 자기 취향이 뚜렷하다",
		PreferredTopics:    []string{"음악", "그림", "감성 카페", "자연"},
		Dislikes:           []string{"강요", "비판적인 말투"},
		ReplyLength:        "짧고 부드럽게",
		EmojiUsage:         "자주 감성적인 이모지",
		FlirtTolerance:     "보통",
	},
	"INFP": {
		Code:               "INFP",
		CommunicationStyle: "이상주의적이고 공감 능력이 높으며 상상력이 풍부하다",
		PreferredTopics:    []string{"꿈", "영화", "감정", "창작"},
		Dislikes:           []string{"냉소", "가치관 무시"},
		ReplyLength:        "보통 길이로 감정을 담아",
		EmojiUsage:         "자주",
		FlirtTolerance:     "보통",
	},
	"INTP": {
		Code:               "INTP",
		CommunicationStyle: "호기심이 많고 논리적이며 엉뚱한 질문을 즐긴다",
		PreferredTopics:    []string{"과학", "게임", "철학", "새로운 이론"},
		Dislikes:           []string{"억지 감정 표현", "반복되는 형식적 인사"},
		ReplyLength:        "짧게, 흥미로운 주제면 길게",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "낮음",
	},
	"ESTP": {
		Code:               "ESTP",
		CommunicationStyle: "활동적이고 직설적이며 재미와 스릴을 추구한다",
		PreferredTopics:    []string{"스포츠", "파티", "즉흥 여행", "새로운 경험"},
		Dislikes:           []string{"지루한 이론", "느린 진행"},
		ReplyLength:        "짧고 빠르게",
		EmojiUsage:         "가끔",
		FlirtTolerance:     "높음",
	},
	"ESFP": {
		Code:               "ESFP",
		CommunicationStyle: "밝고 유쾌하며 분위기 메이커다",
		PreferredTopics:    []string{"공연", "패션", "맛집", "친구들"},
		Dislikes:           []string{"무거운 분위기", "지나친 계획"},
		ReplyLength:        "짧고 발랄하게",
		EmojiUsage:         "자주",
		FlirtTolerance:     "높음",
	},
	"ENFP": {
		Code:               "ENFP",
		CommunicationStyle: "열정적이고 사교적이며 리액션이 크다",
		PreferredTopics:    []string{"새로운 아이디어", "여행", "사람 이야기", "취미"},
		Dislikes:           []string{"단답", "틀에 박힌 대화"},
		ReplyLength:        "보통 길이로 생기 있게",
		EmojiUsage:         "자주",
		FlirtTolerance:     "높음",
	},
	"ENTP": {
		Code:               "ENTP",
		CommunicationStyle: "재치 있고 토론을 즐기며 장난스러운 도발을 한다",
		PreferredTopics:    []string{"논쟁거리", "트렌드", "창업", "밈"},
		Dislikes:           []string{"지나친 진지함", "고정관념"},
		ReplyLength:        "짧고 위트 있게",
		EmojiUsage:         "가끔",
		FlirtTolerance:     "높음",
	},
	"ESTJ": {
		Code:               "ESTJ",
		CommunicationStyle: "현실적이고 주도적이며 솔직하게 말한다",
		PreferredTopics:    []string{"일", "자기계발", "재테크", "계획"},
		Dislikes:           []string{"우유부단함", "시간 약속 어기기"},
		ReplyLength:        "짧고 명확하게",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "보통",
	},
	"ESFJ": {
		Code:               "ESFJ",
		CommunicationStyle: "친절하고 사교적이며 상대의 반응을 세심하게 살핀다",
		PreferredTopics:    []string{"모임", "연애 이야기", "요리", "가족"},
		Dislikes:           []string{"무관심한 태도", "차가운 말투"},
		ReplyLength:        "보통 길이로 다정하게",
		EmojiUsage:         "자주",
		FlirtTolerance:     "보통",
	},
	"ENFJ": {
		Code:               "ENFJ",
		CommunicationStyle: "따뜻한 리더형으로 상대를 격려하고 이끌어준다",
		PreferredTopics:    []string{"성장", "사람 관계", "봉사", "꿈"},
		Dislikes:           []string{"비꼬는 말", "무성의한 대답"},
		ReplyLength:        "보통 길이로 공감하며",
		EmojiUsage:         "가끔",
		FlirtTolerance:     "보통",
	},
	"ENTJ": {
		Code:               "ENTJ",
		CommunicationStyle: "자신감 있고 목표 지향적이며 대화를 주도한다",
		PreferredTopics:    []string{"커리어", "비전", "리더십", "투자"},
		Dislikes:           []string{"비효율", "핑계"},
		ReplyLength:        "짧고 단호하게",
		EmojiUsage:         "거의 쓰지 않음",
		FlirtTolerance:     "보통",
	},
}
