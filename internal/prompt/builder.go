// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package prompt builds LLM prompts from personas, user profiles, the MBTI
// rule table and the tutorial script. Every function is pure: the same
// inputs always produce the same prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/big-teddy/Qupid-sub001/internal/models"
)

// DefaultTranscriptBudget caps rendered transcripts, in characters.
const DefaultTranscriptBudget = 6000

// Conversation stages by message count.
const (
	StageOpening    = "opening"
	StageDeveloping = "developing"
	StageDeepening  = "deepening"
)

// Options carries per-turn context for persona prompts.
type Options struct {
	// MessageCount is the number of messages already in the conversation.
	MessageCount int
	// TutorialStep is set for tutorial conversations.
	TutorialStep *models.TutorialStep
}

// Builder composes system prompts.
type Builder struct {
	TranscriptBudget int
}

// NewBuilder returns a Builder with default limits.
func NewBuilder() *Builder {
	return &Builder{TranscriptBudget: DefaultTranscriptBudget}
}

// Stage maps a message count to a conversation stage.
func Stage(messageCount int) string {
	switch {
	case messageCount < 4:
		return StageOpening
	case messageCount < 12:
		return StageDeveloping
	default:
		return StageDeepening
	}
}

// PersonaSystemPrompt composes, in order: identity, the persona's own
// prompt, MBTI rules, user context, difficulty, tutorial instruction,
// stage hint and output constraints. Empty sections are omitted.
func (b *Builder) PersonaSystemPrompt(p *models.Persona, u *models.UserProfile, opts Options) string {
	sections := []string{
		identitySection(p),
		strings.TrimSpace(p.SystemPrompt),
		mbtiSection(p.MBTI),
		userSection(p, u),
		difficultySection(p.Difficulty),
		tutorialSection(opts.TutorialStep),
		stageSection(opts.MessageCount),
		outputConstraints,
	}
	return joinSections(sections)
}

func identitySection(p *models.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "너는 %s이다. %d살", p.Name, p.Age)
	if g := genderLabel(p.Gender); g != "" {
		b.WriteString(" " + g)
	}
	if p.Job != "" {
		fmt.Fprintf(&b, ", 직업은 %s", p.Job)
	}
	b.WriteString(".")
	if p.Intro != "" {
		b.WriteString(" ")
		b.WriteString(p.Intro)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "\n관심사: %s", strings.Join(p.Interests, ", "))
	}
	if p.ConversationStyle != "" {
		fmt.Fprintf(&b, "\n대화 스타일: %s", p.ConversationStyle)
	}
	return b.String()
}

func mbtiSection(code string) string {
	profile, ok := Profile(code)
	if !ok {
		return ""
	}
	lines := []string{
		fmt.Sprintf("## 성격 (%s)", profile.Code),
		"- 소통 방식: " + profile.CommunicationStyle,
		"- 좋아하는 주제: " + strings.Join(profile.PreferredTopics, ", "),
		"- 싫어하는 것: " + strings.Join(profile.Dislikes, ", "),
		"- 답장 길이: " + profile.ReplyLength,
		"- 이모지: " + profile.EmojiUsage,
		"- 플러팅 수용도: " + profile.FlirtTolerance,
	}
	return strings.Join(lines, "\n")
}

func userSection(p *models.Persona, u *models.UserProfile) string {
	if u == nil {
		return ""
	}
	lines := []string{"## 대화 상대", "- 이름: " + u.DisplayName()}
	if shared := SharedInterests(p.Interests, u.Interests); len(shared) > 0 {
		lines = append(lines, "- 공통 관심사: "+strings.Join(shared, ", ")+" (자연스럽게 화제로 꺼내도 좋다)")
	}
	if u.MBTI != "" {
		lines = append(lines, "- 상대 MBTI: "+strings.ToUpper(u.MBTI))
	}
	return strings.Join(lines, "\n")
}

// SharedInterests returns the interests present in both lists, in the
// order of the first list, compared case-insensitively.
func SharedInterests(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[strings.ToLower(strings.TrimSpace(s))]; ok {
			out = append(out, s)
		}
	}
	return out
}

func difficultySection(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return "## 난이도: 쉬움\n- 상대에게 호감을 가지고 적극적으로 반응한다.\n- 질문을 먼저 던져 대화를 이끌어준다."
	case models.DifficultyHard:
		return "## 난이도: 어려움\n- 처음에는 조금 경계하고 단답 위주로 반응한다.\n- 상대가 진심 어린 관심과 공감을 보일 때만 조금씩 마음을 연다."
	case models.DifficultyNormal:
		return "## 난이도: 보통\n- 평범한 첫 만남처럼 반응한다.\n- 상대가 질문하면 성의 있게 답하고 가끔 되묻는다."
	default:
		return ""
	}
}

func tutorialSection(step *models.TutorialStep) string {
	if step == nil {
		return ""
	}
	return fmt.Sprintf("## 튜토리얼 %d단계: %s\n- 사용자가 연습할 목표: %s\n- 사용자가 목표를 시도하기 쉽도록 짧고 친절하게 반응한다.",
		step.Index+1, step.Title, step.Instruction)
}

func stageSection(count int) string {
	switch Stage(count) {
	case StageOpening:
		return "## 대화 단계: 시작\n- 가벼운 인사와 자기소개 위주로 대화한다."
	case StageDeveloping:
		return "## 대화 단계: 전개\n- 서로의 취미와 일상에 대해 구체적으로 이야기한다."
	default:
		return "## 대화 단계: 심화\n- 가치관이나 기억에 남는 경험처럼 조금 더 깊은 이야기를 나눈다."
	}
}

const outputConstraints = `## 출력 규칙
- 실제 메신저처럼 1~3문장으로 짧게 답한다.
- 항상 캐릭터를 유지하고 반말/존댓말은 상대에 맞춘다.
- 자신이 AI이거나 코치라는 사실을 절대 밝히지 않는다.
- 목록, 마크다운, 괄호 속 행동 묘사를 쓰지 않는다.`

// CoachSystemPrompt builds the prompt for an AI coach session.
func (b *Builder) CoachSystemPrompt(coach *models.Persona, u *models.UserProfile, topic string) string {
	var intro strings.Builder
	fmt.Fprintf(&intro, "너는 연애 대화 코치 %s이다.", coach.Name)
	if coach.Specialty != "" {
		fmt.Fprintf(&intro, " 전문 분야는 %s이다.", coach.Specialty)
	}
	if coach.Intro != "" {
		intro.WriteString(" ")
		intro.WriteString(coach.Intro)
	}

	var userCtx string
	if u != nil {
		lines := []string{"## 코칭 대상", "- 이름: " + u.DisplayName()}
		if len(u.Interests) > 0 {
			lines = append(lines, "- 관심사: "+strings.Join(u.Interests, ", "))
		}
		if u.MBTI != "" {
			lines = append(lines, "- MBTI: "+strings.ToUpper(u.MBTI))
		}
		userCtx = strings.Join(lines, "\n")
	}

	topicLine := ""
	if t := strings.TrimSpace(topic); t != "" {
		topicLine = "## 오늘의 주제\n" + t
	}

	return joinSections([]string{
		intro.String(),
		strings.TrimSpace(coach.SystemPrompt),
		userCtx,
		topicLine,
		coachRules,
	})
}

const coachRules = `## 코칭 규칙
- 사용자의 고민을 먼저 충분히 듣고 공감한 뒤 구체적인 대화 예시를 제시한다.
- 한 번에 하나의 조언만 2~4문장으로 전달한다.
- 비난하지 말고 잘한 점을 먼저 짚어준다.
- 대화 예시는 실제로 보낼 수 있는 메시지 형태로 쓴다.`

// FeedbackPrompt asks for a strict JSON evaluation of transcript.
func (b *Builder) FeedbackPrompt(transcript string) string {
	return `너는 연애 대화 분석가다. 아래 대화에서 "User"의 대화 능력을 평가하라.

평가 항목 (각 0~100 정수):
- friendliness: 친근함, 말투의 따뜻함
- curiosity: 상대에 대한 호기심, 질문의 질
- empathy: 공감과 배려

반드시 아래 형식의 JSON 객체 하나만 출력하라. 다른 텍스트나 코드 블록을 붙이지 마라.
{"friendliness": 0, "curiosity": 0, "empathy": 0, "summary": "한 문장 총평", "strengths": ["잘한 점"], "improvements": ["개선할 점"]}

## 대화
` + transcript
}

// RealtimeTipPrompt asks for a one-line tip on the user's last message.
func (b *Builder) RealtimeTipPrompt(lastUserMessage string, p *models.Persona) string {
	target := "상대"
	if p != nil {
		target = p.Name
		if profile, ok := Profile(p.MBTI); ok {
			target = fmt.Sprintf("%s(%s, %s)", p.Name, profile.Code, profile.CommunicationStyle)
		}
	}
	return fmt.Sprintf(`너는 연애 대화 코치다. 사용자가 %s에게 방금 보낸 메시지를 보고 다음 메시지를 더 잘 쓰기 위한 팁을 한 줄(50자 이내)로 제시하라. 팁만 출력하라.

사용자 메시지: %s`, target, strings.TrimSpace(lastUserMessage))
}

// RenderTranscript renders messages as "User:" and "<personaName>:" lines.
// When the result exceeds budget characters the oldest lines are dropped;
// the newest line is always kept.
func (b *Builder) RenderTranscript(msgs []models.Message, personaName string) string {
	return RenderTranscript(msgs, personaName, b.TranscriptBudget)
}

// RenderTranscript is the standalone form of Builder.RenderTranscript.
// System messages are skipped. A budget <= 0 disables truncation.
func RenderTranscript(msgs []models.Message, personaName string, budget int) string {
	if personaName == "" {
		personaName = "AI"
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		content := strings.Join(strings.Fields(m.Content), " ")
		switch m.Sender {
		case models.SenderUser:
			lines = append(lines, "User: "+content)
		case models.SenderAI:
			lines = append(lines, personaName+": "+content)
		}
	}

	if budget <= 0 {
		return strings.Join(lines, "\n")
	}
	total := 0
	start := len(lines)
	for start > 0 {
		n := len([]rune(lines[start-1])) + 1
		if total+n > budget+1 && start < len(lines) {
			break
		}
		total += n
		start--
	}
	return strings.Join(lines[start:], "\n")
}

func genderLabel(g string) string {
	switch g {
	case models.GenderMale:
		return "남성"
	case models.GenderFemale:
		return "여성"
	default:
		return ""
	}
}

func joinSections(sections []string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
