// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package onboarding serves the first-run survey, applies the answers to
// the user's profile and recommends personas from them.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/events"
	"github.com/big-teddy/Qupid-sub001/internal/logging"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// ErrInvalidAnswer is wrapped by every validation failure in Submit.
var ErrInvalidAnswer = errors.New("invalid survey answer")

// Question IDs.
const (
	QuestionGender        = "gender"
	QuestionPartnerGender = "partner_gender"
	QuestionInterests     = "interests"
	QuestionMBTI          = "mbti"
	QuestionGoal          = "goal"
	QuestionExperience    = "experience"
)

// Special option values.
const (
	AnyGender   = "any"
	UnknownMBTI = "unknown"
)

// MaxInterests bounds the interests multi-select.
const MaxInterests = 5

// DefaultRecommendations is how many personas RecommendedPersonas returns
// when no limit is given.
const DefaultRecommendations = 3

var interestOptions = []string{
	"카페", "여행", "전시회", "사진", "등산", "요리", "영화", "독서",
	"고양이", "운동", "맛집", "음악", "캠핑", "와인", "테니스", "보드게임",
}

func questions() []models.SurveyQuestion {
	return []models.SurveyQuestion{
		{
			ID: QuestionGender, Prompt: "성별을 알려주세요", Kind: models.QuestionSingle,
			Options:      []string{models.GenderMale, models.GenderFemale, models.GenderOther},
			ProfileField: "gender", Required: true,
		},
		{
			ID: QuestionPartnerGender, Prompt: "어떤 상대와 대화를 연습하고 싶나요?", Kind: models.QuestionSingle,
			Options:      []string{models.GenderMale, models.GenderFemale, AnyGender},
			ProfileField: "partnerGender", Required: true,
		},
		{
			ID: QuestionInterests, Prompt: "관심사를 골라주세요 (최대 5개)", Kind: models.QuestionMulti,
			Options:      append([]string(nil), interestOptions...),
			ProfileField: "interests", Required: true,
		},
		{
			ID: QuestionMBTI, Prompt: "MBTI를 알고 있나요?", Kind: models.QuestionSingle,
			Options:      append(prompt.AllTypes(), UnknownMBTI),
			ProfileField: "mbti",
		},
		{
			ID: QuestionGoal, Prompt: "대화 연습의 목표는 무엇인가요?", Kind: models.QuestionSingle,
			Options:      []string{"첫 만남 대화", "썸 이어가기", "연인과의 소통", "자신감 키우기"},
			ProfileField: "conversationStyle", Required: true,
		},
		{
			ID: QuestionExperience, Prompt: "연애 경험을 알려주세요", Kind: models.QuestionSingle,
			Options: []string{"없음", "1-2회", "3회 이상"},
		},
	}
}

// Service handles onboarding.
type Service struct {
	users     storage.UserStore
	surveys   storage.SurveyStore
	personas  storage.PersonaStore
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates an onboarding service. publisher may be nil.
func NewService(users storage.UserStore, surveys storage.SurveyStore, personas storage.PersonaStore, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{users: users, surveys: surveys, personas: personas, publisher: publisher, now: time.Now}
}

// Questions returns the survey.
func (s *Service) Questions() []models.SurveyQuestion {
	return questions()
}

// Submit validates answers, stores them and applies them to the profile.
// Resubmitting replaces the previous response.
func (s *Service) Submit(ctx context.Context, userID string, answers map[string]interface{}) (*models.UserProfile, error) {
	clean, err := validate(answers)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	resp := &models.SurveyResponse{UserID: userID, Answers: clean, SubmittedAt: now}
	if err := s.surveys.SaveSurvey(ctx, resp); err != nil {
		return nil, fmt.Errorf("save survey: %w", err)
	}

	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		u = &models.UserProfile{ID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	apply(u, clean)
	u.OnboardingCompleted = true
	if err := s.users.UpsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	logging.Ctx(ctx).Info().Int("answers", len(clean)).Msg("onboarding survey submitted")
	events.PublishBestEffort(ctx, s.publisher, events.TopicOnboardingCompleted, events.OnboardingCompleted{
		UserID:      userID,
		SubmittedAt: now,
	})
	return u, nil
}

// validate checks answers against the survey and normalizes them:
// single answers become strings and multi answers []string. Unknown
// question IDs are dropped.
func validate(answers map[string]interface{}) (map[string]interface{}, error) {
	clean := make(map[string]interface{}, len(answers))
	for _, q := range questions() {
		raw, present := answers[q.ID]
		if !present || raw == nil {
			if q.Required {
				return nil, fmt.Errorf("%w: %s is required", ErrInvalidAnswer, q.ID)
			}
			continue
		}
		switch q.Kind {
		case models.QuestionSingle, models.QuestionText:
			v, ok := raw.(string)
			v = strings.TrimSpace(v)
			if !ok || (q.Required && v == "") {
				return nil, fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidAnswer, q.ID)
			}
			if v == "" {
				continue
			}
			if q.ID == QuestionMBTI && v != UnknownMBTI {
				code, err := prompt.ParseMBTI(v)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAnswer, q.ID, err)
				}
				v = code
			}
			if q.Kind == models.QuestionSingle && !contains(q.Options, v) {
				return nil, fmt.Errorf("%w: %s has unknown option %q", ErrInvalidAnswer, q.ID, v)
			}
			clean[q.ID] = v
		case models.QuestionMulti:
			vs, ok := toStrings(raw)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidAnswer, q.ID)
			}
			if q.Required && len(vs) == 0 {
				return nil, fmt.Errorf("%w: %s needs at least one choice", ErrInvalidAnswer, q.ID)
			}
			if len(vs) > MaxInterests {
				return nil, fmt.Errorf("%w: %s allows at most %d choices", ErrInvalidAnswer, q.ID, MaxInterests)
			}
			for _, v := range vs {
				if !contains(q.Options, v) {
					return nil, fmt.Errorf("%w: %s has unknown option %q", ErrInvalidAnswer, q.ID, v)
				}
			}
			clean[q.ID] = vs
		}
	}
	return clean, nil
}

// toStrings accepts []string or the []interface{} a JSON decoder yields,
// dropping duplicates and blanks.
func toStrings(raw interface{}) ([]string, bool) {
	var in []string
	switch v := raw.(type) {
	case []string:
		in = v
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			in = append(in, s)
		}
	default:
		return nil, false
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func apply(u *models.UserProfile, answers map[string]interface{}) {
	if v, ok := answers[QuestionGender].(string); ok {
		u.Gender = v
	}
	if v, ok := answers[QuestionPartnerGender].(string); ok {
		if v == AnyGender {
			v = ""
		}
		u.PartnerGender = v
	}
	if v, ok := answers[QuestionInterests].([]string); ok {
		u.Interests = v
	}
	if v, ok := answers[QuestionMBTI].(string); ok {
		if v == UnknownMBTI {
			v = ""
		}
		u.MBTI = v
	}
	if v, ok := answers[QuestionGoal].(string); ok {
		u.ConversationStyle = v
	}
}

// Recommendation is a persona with the reasons it was picked.
type Recommendation struct {
	Persona         *models.Persona `json:"persona"`
	SharedInterests []string        `json:"sharedInterests"`
	Compatibility   int             `json:"compatibility"`
}

// RecommendedPersonas ranks regular personas for the user: partner gender
// filters, shared interests rank first, then MBTI compatibility.
func (s *Service) RecommendedPersonas(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		u = &models.UserProfile{ID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	no := false
	filter := models.PersonaFilter{Coaches: &no, Tutorial: &no}
	if u.PartnerGender == models.GenderMale || u.PartnerGender == models.GenderFemale {
		filter.Gender = u.PartnerGender
	}
	personas, err := s.personas.ListPersonas(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}

	recs := make([]Recommendation, 0, len(personas))
	for _, p := range personas {
		shared := prompt.SharedInterests(u.Interests, p.Interests)
		if shared == nil {
			shared = []string{}
		}
		recs = append(recs, Recommendation{
			Persona:         p,
			SharedInterests: shared,
			Compatibility:   prompt.Compatibility(u.MBTI, p.MBTI),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if len(a.SharedInterests) != len(b.SharedInterests) {
			return len(a.SharedInterests) > len(b.SharedInterests)
		}
		if a.Compatibility != b.Compatibility {
			return a.Compatibility > b.Compatibility
		}
		return a.Persona.ID < b.Persona.ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
