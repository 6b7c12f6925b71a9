// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

func testPersona() *models.Persona {
	return &models.Persona{
		ID:           "p1",
		Name:         "지민",
		Age:          27,
		Gender:       models.GenderFemale,
		MBTI:         "ENFP",
		Job:          "UX 디자이너",
		Interests:    []string{"여행", "카페", "사진"},
		SystemPrompt: "너는 밝고 호기심 많은 성격이다.",
		Difficulty:   models.DifficultyNormal,
	}
}

func TestParseMBTI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"enfp", "ENFP", false},
		{" IsTj ", "ISTJ", false},
		{"EXFP", "", true},
		{"ENF", "", true},
		{"ENFPS", "", true},
		{"unknown", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMBTI(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMBTI(%q) err = %v", tt.in, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidMBTI) {
			t.Errorf("ParseMBTI(%q) err = %v, want ErrInvalidMBTI", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMBTI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProfileTableCoversAllTypes(t *testing.T) {
	t.Parallel()

	types := AllTypes()
	if len(types) != 16 {
		t.Fatalf("AllTypes() = %d types", len(types))
	}
	for _, code := range types {
		p, ok := Profile(code)
		if !ok {
			t.Errorf("missing profile for %s", code)
			continue
		}
		if p.Code != code || p.CommunicationStyle == "" || len(p.PreferredTopics) == 0 ||
			len(p.Dislikes) == 0 || p.ReplyLength == "" || p.EmojiUsage == "" || p.FlirtTolerance == "" {
			t.Errorf("incomplete profile for %s: %+v", code, p)
		}
	}
	if _, ok := Profile("xxxx"); ok {
		t.Error("expected no profile for invalid code")
	}
}

func TestCompatibility(t *testing.T) {
	t.Parallel()

	if got := Compatibility("ENFP", "INFJ"); got != 4 {
		t.Errorf("ENFP/INFJ = %d, want 4", got)
	}
	if got := Compatibility("ENFP", "ESTJ"); got != 0 {
		t.Errorf("ENFP/ESTJ = %d, want 0", got)
	}
	if got := Compatibility("ENFP", "bogus"); got != 0 {
		t.Errorf("invalid code scored %d", got)
	}
	if Compatibility("istp", "ESFP") != Compatibility("ESFP", "ISTP") {
		t.Error("compatibility must be symmetric")
	}
}

func TestPersonaSystemPrompt_SectionOrder(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	user := &models.UserProfile{Name: "현우", Interests: []string{"사진", "등산"}, MBTI: "istj"}
	step := &models.TutorialStep{Index: 1, Title: "질문하기", Instruction: "상대에게 질문을 해보세요"}

	got := b.PersonaSystemPrompt(testPersona(), user, Options{MessageCount: 5, TutorialStep: step})

	markers := []string{
		"너는 지민이다. 27살 여성, 직업은 UX 디자이너.",
		"너는 밝고 호기심 많은 성격이다.",
		"## 성격 (ENFP)",
		"## 대화 상대",
		"## 난이도: 보통",
		"## 튜토리얼 2단계: 질문하기",
		"## 대화 단계: 전개",
		"## 출력 규칙",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(got, m)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", m, got)
		}
		if idx <= last {
			t.Errorf("section %q out of order", m)
		}
		last = idx
	}
	if !strings.Contains(got, "공통 관심사: 사진") {
		t.Errorf("expected shared interest in prompt")
	}
	if !strings.Contains(got, "상대 MBTI: ISTJ") {
		t.Errorf("expected upper-cased user MBTI")
	}
}

func TestPersonaSystemPrompt_Deterministic(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	p := testPersona()
	a := b.PersonaSystemPrompt(p, nil, Options{})
	c := b.PersonaSystemPrompt(p, nil, Options{})
	if a != c {
		t.Error("prompt builder must be deterministic")
	}
	if strings.Contains(a, "## 대화 상대") || strings.Contains(a, "튜토리얼") {
		t.Error("optional sections should be omitted")
	}
	if !strings.Contains(a, "## 대화 단계: 시작") {
		t.Error("expected opening stage")
	}
}

func TestStage(t *testing.T) {
	t.Parallel()

	for count, want := range map[int]string{0: StageOpening, 3: StageOpening, 4: StageDeveloping, 11: StageDeveloping, 12: StageDeepening} {
		if got := Stage(count); got != want {
			t.Errorf("Stage(%d) = %s, want %s", count, got, want)
		}
	}
}

func TestCoachSystemPrompt(t *testing.T) {
	t.Parallel()

	coach := &models.Persona{Name: "김코치", IsCoach: true, Specialty: "첫 만남 대화"}
	got := NewBuilder().CoachSystemPrompt(coach, &models.UserProfile{Name: "현우"}, "  소개팅 첫 메시지 ")

	for _, want := range []string{"연애 대화 코치 김코치", "첫 만남 대화", "## 코칭 대상", "## 오늘의 주제\n소개팅 첫 메시지", "## 코칭 규칙"} {
		if !strings.Contains(got, want) {
			t.Errorf("coach prompt missing %q", want)
		}
	}
}

func TestFeedbackPrompt(t *testing.T) {
	t.Parallel()

	got := NewBuilder().FeedbackPrompt("User: 안녕\n지민: 반가워")
	for _, want := range []string{`"friendliness"`, `"curiosity"`, `"empathy"`, `"strengths"`, "User: 안녕"} {
		if !strings.Contains(got, want) {
			t.Errorf("feedback prompt missing %q", want)
		}
	}
}

func TestRealtimeTipPrompt(t *testing.T) {
	t.Parallel()

	got := NewBuilder().RealtimeTipPrompt(" 주말에 뭐해? ", testPersona())
	if !strings.Contains(got, "지민(ENFP") || !strings.Contains(got, "사용자 메시지: 주말에 뭐해?") {
		t.Errorf("unexpected tip prompt: %s", got)
	}
}

func TestRenderTranscript(t *testing.T) {
	t.Parallel()

	msgs := []models.Message{
		{Sender: models.SenderSystem, Content: "ignored"},
		{Sender: models.SenderUser, Content: "안녕\n하세요"},
		{Sender: models.SenderAI, Content: "반가워요"},
		{Sender: models.SenderUser, Content: "주말에 뭐해요?"},
	}

	full := RenderTranscript(msgs, "지민", 0)
	want := "User: 안녕 하세요\n지민: 반가워요\nUser: 주말에 뭐해요?"
	if diff := cmp.Diff(want, full); diff != "" {
		t.Errorf("transcript (-want +got):\n%s", diff)
	}

	// "지민: 반가워요" is 8 runes, "User: 주말에 뭐해요?" is 14; 8+1+14 = 23.
	truncated := RenderTranscript(msgs, "지민", 23)
	if truncated != "지민: 반가워요\nUser: 주말에 뭐해요?" {
		t.Errorf("truncated = %q", truncated)
	}

	tiny := RenderTranscript(msgs, "지민", 3)
	if tiny != "User: 주말에 뭐해요?" {
		t.Errorf("newest line must survive, got %q", tiny)
	}
}

func TestSharedInterests(t *testing.T) {
	t.Parallel()

	got := SharedInterests([]string{"Travel", "카페", "독서"}, []string{"travel ", "독서"})
	if diff := cmp.Diff([]string{"Travel", "독서"}, got); diff != "" {
		t.Errorf("shared (-want +got):\n%s", diff)
	}
}
