// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/big-teddy/Qupid-sub001/internal/analysis"
	"github.com/big-teddy/Qupid-sub001/internal/auth"
	"github.com/big-teddy/Qupid-sub001/internal/authz"
	"github.com/big-teddy/Qupid-sub001/internal/badges"
	"github.com/big-teddy/Qupid-sub001/internal/chat"
	"github.com/big-teddy/Qupid-sub001/internal/coaching"
	"github.com/big-teddy/Qupid-sub001/internal/config"
	"github.com/big-teddy/Qupid-sub001/internal/growth"
	"github.com/big-teddy/Qupid-sub001/internal/llm"
	"github.com/big-teddy/Qupid-sub001/internal/llm/llmtest"
	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/notification"
	"github.com/big-teddy/Qupid-sub001/internal/onboarding"
	"github.com/big-teddy/Qupid-sub001/internal/prompt"
	"github.com/big-teddy/Qupid-sub001/internal/ratelimit"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
	"github.com/big-teddy/Qupid-sub001/internal/storage/memory"
)

const testSecret = "test_secret_with_at_least_32_characters_for_testing"

const feedbackJSON = `{"friendliness":80,"curiosity":70,"empathy":90,"summary":"좋은 대화"}`

type testServer struct {
	handler  http.Handler
	store    *memory.Store
	provider *llmtest.Provider
	verifier *auth.Verifier
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func newTestServer(t *testing.T, chatLimiter ratelimit.Limiter) *testServer {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	if _, err := storage.Seed(ctx, store, store); err != nil {
		t.Fatal(err)
	}
	stores := storage.NewStores(store)

	provider := llmtest.New("fake")
	provider.Handler = func(req llm.Request) (string, error) {
		if req.JSONMode {
			return feedbackJSON, nil
		}
		return "반가워요! 오늘 하루 어땠어요?", nil
	}

	cfg := &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          auth.ModeSupabase,
			JWTSecret:         testSecret,
			CORSOrigins:       []string{"https://app.qupid.test"},
			RateLimitDisabled: true,
		},
		Server: config.ServerConfig{StreamTimeout: 5 * time.Second},
	}

	analyzer := analysis.New(provider, prompt.NewBuilder())
	chatSvc := chat.NewService(stores, provider, analyzer, nil)
	handler := NewHandler(Deps{
		Config:        cfg,
		Users:         store,
		Personas:      store,
		Chat:          chatSvc,
		Coaching:      coaching.NewService(stores, chatSvc, analyzer, nil),
		Onboarding:    onboarding.NewService(store, store, store, nil),
		Growth:        growth.NewService(store),
		Badges:        badges.NewService(store, store, store, nil),
		Notifications: notification.NewService(store, nil),
		ReadyChecks: map[string]ReadyCheck{
			"storage": store.Ping,
		},
		Version: "test",
	})

	authMW, err := auth.NewMiddleware(cfg.Security, ErrorHandler)
	if err != nil {
		t.Fatal(err)
	}
	enforcer, err := authz.NewEnforcer(config.AuthzConfig{})
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(handler, authMW, authz.NewMiddleware(enforcer, ErrorHandler), chatLimiter)

	return &testServer{
		handler:  router.Setup(),
		store:    store,
		provider: provider,
		verifier: authMW.Verifier(),
	}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.verifier.Sign(auth.NewClaims(userID, userID+"@example.com", role, time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	env := decode(t, rec, nil)
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var health HealthStatus
	env := decode(t, rec, &health)
	if !env.Success || health.Status != "healthy" || health.Version != "test" {
		t.Errorf("unexpected health %+v", health)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestHealthReadyFailingCheck(t *testing.T) {
	t.Parallel()
	h := NewHandler(Deps{ReadyChecks: map[string]ReadyCheck{
		"storage": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestAuthenticationRequired(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	expectErrorCode(t, rec, http.StatusUnauthorized, ErrCodeUnauthorized)
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil)
	expectErrorCode(t, rec, http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestProfileCreatedOnFirstAccess(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodGet, "/api/v1/users/me", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var u models.UserProfile
	decode(t, rec, &u)
	if u.ID != "u1" || u.Name != "u1" {
		t.Errorf("unexpected profile %+v", u)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/users/me", tok, map[string]interface{}{
		"mbti":          "enfp",
		"partnerGender": "any",
		"interests":     []string{"카페", "카페", "여행"},
	})
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &u)
	if u.MBTI != "ENFP" || u.PartnerGender != "" || len(u.Interests) != 2 {
		t.Errorf("unexpected updated profile %+v", u)
	}

	stored, err := s.store.GetUser(context.Background(), "u1")
	if err != nil || stored.MBTI != "ENFP" {
		t.Errorf("profile not persisted: %+v, %v", stored, err)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	tests := []struct {
		name string
		body interface{}
		code string
	}{
		{"bad gender", map[string]string{"gender": "robot"}, ErrCodeValidationFailed},
		{"bad mbti", map[string]string{"mbti": "ABCD"}, ErrCodeValidationFailed},
		{"unknown field", map[string]string{"nickname": "x"}, ErrCodeBadRequest},
		{"malformed json", `{"name":`, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, "/api/v1/users/me", tok, tt.body)
			expectErrorCode(t, rec, http.StatusBadRequest, tt.code)
		})
	}
}

func TestListPersonasFilters(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodGet, "/api/v1/personas", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var all []models.Persona
	env := decode(t, rec, &all)
	if len(all) == 0 || env.Meta == nil || env.Meta.Count == nil || *env.Meta.Count != len(all) {
		t.Fatalf("unexpected listing: %d personas, meta %+v", len(all), env.Meta)
	}
	for _, p := range all {
		if p.IsCoach || p.IsTutorial {
			t.Errorf("persona %s should not be listed", p.ID)
		}
	}

	rec = s.do(t, http.MethodGet, "/api/v1/personas?gender=female&mbti=enfp", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var filtered []models.Persona
	decode(t, rec, &filtered)
	if len(filtered) != 1 || filtered[0].ID != "persona-seoyeon" {
		t.Errorf("unexpected filtered personas %+v", filtered)
	}

	for _, q := range []string{"gender=robot", "mbti=XXXX", "difficulty=insane"} {
		rec = s.do(t, http.MethodGet, "/api/v1/personas?"+q, tok, nil)
		expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/personas/nobody", tok, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestPersonaWritesRequireAdmin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	user := s.token(t, "u1", auth.RoleAuthenticated)
	admin := s.token(t, "root", auth.RoleAdmin)

	body := map[string]interface{}{
		"id": "persona-test", "name": "테스트", "age": 27, "gender": "female", "mbti": "infp",
		"interests": []string{"독서"},
	}

	rec := s.do(t, http.MethodPost, "/api/v1/personas", user, body)
	expectErrorCode(t, rec, http.StatusForbidden, ErrCodeForbidden)

	rec = s.do(t, http.MethodPost, "/api/v1/personas", admin, body)
	expectStatus(t, rec, http.StatusCreated)
	var p models.Persona
	decode(t, rec, &p)
	if p.MBTI != "INFP" || p.Difficulty != models.DifficultyNormal {
		t.Errorf("unexpected created persona %+v", p)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/personas", admin, body)
	expectErrorCode(t, rec, http.StatusConflict, ErrCodeConflict)

	body["name"] = "바뀐 이름"
	rec = s.do(t, http.MethodPut, "/api/v1/personas/persona-test", admin, body)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPut, "/api/v1/personas/persona-seoyeon", admin, body)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	rec = s.do(t, http.MethodDelete, "/api/v1/personas/"+storage.TutorialPersonaID, admin, nil)
	expectErrorCode(t, rec, http.StatusConflict, ErrCodeConflict)

	rec = s.do(t, http.MethodDelete, "/api/v1/personas/persona-test", admin, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodDelete, "/api/v1/personas/persona-test", admin, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func startConversation(t *testing.T, s *testServer, tok string) models.Conversation {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/conversations", tok, StartConversationRequest{PersonaID: "persona-seoyeon"})
	expectStatus(t, rec, http.StatusCreated)
	var c models.Conversation
	decode(t, rec, &c)
	return c
}

func TestConversationLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	c := startConversation(t, s, tok)
	base := "/api/v1/conversations/" + c.ID

	for _, msg := range []string{"안녕하세요!", "주말에 뭐 하세요?"} {
		rec := s.do(t, http.MethodPost, base+"/messages", tok, SendMessageRequest{Content: msg})
		expectStatus(t, rec, http.StatusOK)
		var reply chat.Reply
		decode(t, rec, &reply)
		if reply.UserMessage == nil || reply.AIMessage == nil || reply.UserMessage.Content != msg {
			t.Fatalf("unexpected reply %+v", reply)
		}
	}

	rec := s.do(t, http.MethodGet, base+"/messages", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var history []models.Message
	decode(t, rec, &history)
	if len(history) != 4 {
		t.Errorf("history has %d messages, want 4", len(history))
	}

	rec = s.do(t, http.MethodGet, "/api/v1/conversations", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var convs []models.Conversation
	decode(t, rec, &convs)
	if len(convs) != 1 || convs[0].ID != c.ID {
		t.Errorf("unexpected conversations %+v", convs)
	}

	rec = s.do(t, http.MethodPost, base+"/end", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var end chat.EndResult
	decode(t, rec, &end)
	if end.Feedback == nil || end.Feedback.Empathy != 90 || end.Fallback {
		t.Errorf("unexpected end result %+v", end)
	}

	rec = s.do(t, http.MethodPost, base+"/messages", tok, SendMessageRequest{Content: "또 만나요"})
	expectErrorCode(t, rec, http.StatusConflict, ErrCodeConflict)
}

func TestConversationOwnership(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	owner := s.token(t, "u1", auth.RoleAuthenticated)
	other := s.token(t, "u2", auth.RoleAuthenticated)
	c := startConversation(t, s, owner)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/messages"},
		{http.MethodPost, "/end"},
		{http.MethodGet, "/quick-replies"},
	} {
		rec := s.do(t, tc.method, "/api/v1/conversations/"+c.ID+tc.path, other, nil)
		expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
	}
}

func TestStartConversationValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodPost, "/api/v1/conversations", tok, StartConversationRequest{})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	rec = s.do(t, http.MethodPost, "/api/v1/conversations", tok, StartConversationRequest{PersonaID: "nobody"})
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/conversations", tok, StartConversationRequest{Kind: "tutorial"})
	expectStatus(t, rec, http.StatusCreated)
	var c models.Conversation
	decode(t, rec, &c)

	rec = s.do(t, http.MethodGet, "/api/v1/conversations/"+c.ID+"/quick-replies", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var qr QuickRepliesResponse
	decode(t, rec, &qr)
	if qr.Step != 0 || len(qr.Replies) == 0 {
		t.Errorf("unexpected quick replies %+v", qr)
	}
}

func TestStreamMessage(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	c := startConversation(t, s, tok)
	s.provider.Script(llmtest.Step{Chunks: []string{"안녕", "하세요", "!"}})

	rec := s.do(t, http.MethodPost, "/api/v1/conversations/"+c.ID+"/messages/stream", tok, SendMessageRequest{Content: "반가워요"})
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if got := strings.Count(body, "event: delta"); got != 3 {
		t.Errorf("got %d delta events, want 3:\n%s", got, body)
	}
	if !strings.Contains(body, "event: done") || !strings.Contains(body, `"content":"하세요"`) {
		t.Errorf("unexpected stream body:\n%s", body)
	}

	msgs, err := s.store.ListMessages(context.Background(), c.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[1].Content != "안녕하세요!" {
		t.Errorf("unexpected stored messages %+v", msgs)
	}
}

func TestStreamFailures(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	c := startConversation(t, s, tok)
	path := "/api/v1/conversations/" + c.ID + "/messages/stream"

	// Failure before any output keeps the JSON envelope.
	s.provider.Fail(errors.New("upstream 500"))
	rec := s.do(t, http.MethodPost, path, tok, SendMessageRequest{Content: "안녕"})
	expectErrorCode(t, rec, http.StatusBadGateway, ErrCodeExternalServiceFail)

	// Failure mid-stream ends with an error event.
	s.provider.Script(llmtest.Step{Chunks: []string{"안", "녕"}, FailAfter: 1, Err: errors.New("connection reset")})
	rec = s.do(t, http.MethodPost, path, tok, SendMessageRequest{Content: "안녕"})
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "event: delta") || !strings.Contains(body, "event: error") || strings.Contains(body, "event: done") {
		t.Errorf("unexpected stream body:\n%s", body)
	}
}

func TestChatLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, ratelimit.NewMemory(1, time.Minute))
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	c := startConversation(t, s, tok)
	path := "/api/v1/conversations/" + c.ID + "/messages"

	rec := s.do(t, http.MethodPost, path, tok, SendMessageRequest{Content: "하나"})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPost, path, tok, SendMessageRequest{Content: "둘"})
	expectErrorCode(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// Other users have their own window.
	rec = s.do(t, http.MethodGet, "/api/v1/conversations", s.token(t, "u2", auth.RoleAuthenticated), nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestCompletionsProxy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodPost, "/api/v1/chat/completions", tok, CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	expectStatus(t, rec, http.StatusOK)
	var resp llm.Response
	decode(t, rec, &resp)
	if resp.Content == "" {
		t.Error("empty completion")
	}

	rec = s.do(t, http.MethodPost, "/api/v1/chat/completions", tok, CompletionRequest{})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	s.provider.Fail(llm.ErrProviderUnavailable)
	rec = s.do(t, http.MethodPost, "/api/v1/chat/completions", tok, CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestRealtimeTip(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	s.provider.Reply("상대의 취미를 물어보세요")

	rec := s.do(t, http.MethodPost, "/api/v1/feedback/realtime", tok, RealtimeTipRequest{
		Message: "안녕하세요", PersonaID: "persona-seoyeon",
	})
	expectStatus(t, rec, http.StatusOK)
	var tip TipResponse
	decode(t, rec, &tip)
	if tip.Tip == "" {
		t.Error("empty tip")
	}
}

func TestCoachingSession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodGet, "/api/v1/coaching/coaches", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var coaches []models.Persona
	decode(t, rec, &coaches)
	if len(coaches) == 0 || !coaches[0].IsCoach {
		t.Fatalf("unexpected coaches %+v", coaches)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/coaching/sessions", tok, StartSessionRequest{Topic: "첫 데이트"})
	expectStatus(t, rec, http.StatusCreated)
	var started coaching.Started
	decode(t, rec, &started)
	if started.Session == nil || started.Greeting == nil {
		t.Fatalf("unexpected start %+v", started)
	}
	base := "/api/v1/coaching/sessions/" + started.Session.ID

	rec = s.do(t, http.MethodPost, base+"/messages", tok, SendMessageRequest{Content: "어떻게 말을 걸어야 할까요?"})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, base, s.token(t, "u2", auth.RoleAuthenticated), nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, base+"/end", tok, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodPost, base+"/messages", tok, SendMessageRequest{Content: "하나 더요"})
	expectErrorCode(t, rec, http.StatusConflict, ErrCodeConflict)

	rec = s.do(t, http.MethodGet, "/api/v1/coaching/sessions", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var sessions []models.CoachingSession
	decode(t, rec, &sessions)
	if len(sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(sessions))
	}
}

func TestOnboardingSurvey(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)

	rec := s.do(t, http.MethodGet, "/api/v1/onboarding/survey", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var questions []models.SurveyQuestion
	decode(t, rec, &questions)
	if len(questions) == 0 {
		t.Fatal("no survey questions")
	}

	rec = s.do(t, http.MethodPost, "/api/v1/onboarding/survey", tok, SurveyRequest{Answers: map[string]interface{}{
		onboarding.QuestionGender: "spaceship",
	}})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	rec = s.do(t, http.MethodPost, "/api/v1/onboarding/survey", tok, SurveyRequest{Answers: map[string]interface{}{
		onboarding.QuestionGender:        "male",
		onboarding.QuestionPartnerGender: "female",
		onboarding.QuestionInterests:     []string{"카페", "여행"},
		onboarding.QuestionMBTI:          "ENFP",
		onboarding.QuestionGoal:          "첫 만남 대화",
	}})
	expectStatus(t, rec, http.StatusOK)
	var u models.UserProfile
	decode(t, rec, &u)
	if !u.OnboardingCompleted || u.PartnerGender != "female" {
		t.Errorf("unexpected profile %+v", u)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/personas/recommended?limit=2", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var recs []onboarding.Recommendation
	decode(t, rec, &recs)
	if len(recs) == 0 || len(recs) > 2 {
		t.Fatalf("got %d recommendations", len(recs))
	}
	for _, r := range recs {
		if r.Persona.Gender != models.GenderFemale {
			t.Errorf("recommended %s with gender %s", r.Persona.ID, r.Persona.Gender)
		}
	}
}

func TestStatsAndNotifications(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	tok := s.token(t, "u1", auth.RoleAuthenticated)
	ctx := context.Background()

	rec := s.do(t, http.MethodGet, "/api/v1/stats/weekly?weeks=4", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var weekly []models.WeeklyPoint
	decode(t, rec, &weekly)
	if len(weekly) != 4 {
		t.Errorf("got %d weekly points, want 4", len(weekly))
	}

	rec = s.do(t, http.MethodGet, "/api/v1/badges", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var list []models.BadgeStatus
	decode(t, rec, &list)
	if len(list) == 0 {
		t.Error("no badges listed")
	}

	n := &models.Notification{UserID: "u1", Kind: models.NotifyReminder, Title: "t", Body: "b", CreatedAt: time.Now()}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		t.Fatal(err)
	}

	var count CountResponse
	rec = s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &count)
	if count.Count != 1 {
		t.Errorf("unread = %d, want 1", count.Count)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", s.token(t, "u2", auth.RoleAuthenticated), nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = s.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", tok, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/api/v1/notifications?unread=true", tok, nil)
	expectStatus(t, rec, http.StatusOK)
	var unread []models.Notification
	decode(t, rec, &unread)
	if len(unread) != 0 {
		t.Errorf("got %d unread notifications, want 0", len(unread))
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/nowhere", "", nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestWebSocketOriginCheck(t *testing.T) {
	t.Parallel()
	h := NewHandler(Deps{Config: &config.Config{Security: config.SecurityConfig{
		CORSOrigins: []string{"https://app.qupid.test"},
	}}})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.qupid.test", true},
		{"https://evil.test", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
