package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/data/repos"
	"github.com/yungbote/interview-coach/internal/data/repos/testutil"
	httpH "github.com/yungbote/interview-coach/internal/http/handlers"
	httpMW "github.com/yungbote/interview-coach/internal/http/middleware"
	"github.com/yungbote/interview-coach/internal/services"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	ai     *llm.Mock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	logg := testutil.Logger(t)

	authService, err := services.NewAuthService(logg, repos.NewUserRepo(db, logg), services.AuthConfig{
		JWTSecret:  "router-test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	ai := llm.NewMock()
	interviewService := services.NewInterviewService(logg, repos.NewSessionRepo(db, logg), ai, services.NewMemLocker(), services.InterviewConfig{AITimeout: 5 * time.Second})

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	engine := NewRouter(RouterConfig{
		Log:              logg,
		AuthHandler:      httpH.NewAuthHandler(authService),
		AuthMiddleware:   httpMW.NewAuthMiddleware(logg, authService),
		InterviewHandler: httpH.NewInterviewHandler(interviewService),
		HealthHandler:    httpH.NewHealthHandler(sqlDB),
	})
	return &testAPI{t: t, engine: engine, ai: ai}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (a *testAPI) register(name, email string) string {
	a.t.Helper()
	rec, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	return body["token"].(string)
}

func (a *testAPI) generate(token string, body map[string]any) (string, []any) {
	a.t.Helper()
	rec, out := a.do(http.MethodPost, "/api/interview/generate-questions", token, body)
	if rec.Code != http.StatusOK {
		a.t.Fatalf("generate: %d %s", rec.Code, rec.Body.String())
	}
	return out["sessionId"].(string), out["questions"].([]any)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	for _, key := range []string{"_id", "name", "email", "token", "expiresAt"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("register response missing %q: %v", key, body)
		}
	}
	if _, ok := body["password"]; ok {
		t.Fatal("password leaked in response")
	}

	rec, body = api.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Other", "email": "ADA@example.com", "password": "secret2",
	})
	if rec.Code != http.StatusBadRequest || body["code"] != "duplicate_email" {
		t.Fatalf("duplicate: %d %v", rec.Code, body)
	}

	rec, body = api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "secret1"})
	if rec.Code != http.StatusOK || body["token"] == "" {
		t.Fatalf("login: %d %v", rec.Code, body)
	}
	token := body["token"].(string)

	recWrong, wrong := api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com", "password": "nope-nope"})
	recUnknown, unknown := api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ghost@example.com", "password": "secret1"})
	if recWrong.Code != http.StatusUnauthorized || recUnknown.Code != http.StatusUnauthorized {
		t.Fatalf("bad login statuses: %d %d", recWrong.Code, recUnknown.Code)
	}
	if wrong["message"] != unknown["message"] || wrong["code"] != unknown["code"] {
		t.Fatalf("login failures distinguishable: %v vs %v", wrong, unknown)
	}

	rec, body = api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ada@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: %d %v", rec.Code, body)
	}

	rec, body = api.do(http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK || body["email"] != "ada@example.com" {
		t.Fatalf("me: %d %v", rec.Code, body)
	}

	rec, _ = api.do(http.MethodPost, "/api/auth/register", "", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/interview/generate-questions"},
		{http.MethodPost, "/api/interview/submit-answer"},
		{http.MethodGet, "/api/interview/sessions"},
		{http.MethodGet, "/api/interview/sessions/abc"},
		{http.MethodPut, "/api/interview/complete-session/abc"},
		{http.MethodDelete, "/api/interview/sessions/abc"},
		{http.MethodGet, "/api/auth/me"},
	}
	for _, r := range routes {
		for _, token := range []string{"", "garbage.token.value"} {
			rec, body := api.do(r.method, r.path, token, map[string]any{})
			if rec.Code != http.StatusUnauthorized || body["code"] != "unauthorized" {
				t.Fatalf("%s %s token=%q: %d %v", r.method, r.path, token, rec.Code, body)
			}
		}
	}
	if calls := len(api.ai.Calls()); calls != 0 {
		t.Fatalf("AI called %d times for unauthenticated requests", calls)
	}
}

func TestQuestionCountBounds(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("A", "a@example.com")

	_, qs := api.generate(token, map[string]any{"jobRole": "Backend Engineer"})
	if len(qs) != 5 {
		t.Fatalf("default count=%d", len(qs))
	}
	_, qs = api.generate(token, map[string]any{"jobRole": "Backend Engineer", "numQuestions": "7"})
	if len(qs) != 7 {
		t.Fatalf("string count=%d", len(qs))
	}
	_, qs = api.generate(token, map[string]any{"jobRole": "Backend Engineer", "numQuestions": 15})
	if len(qs) != 15 {
		t.Fatalf("max count=%d", len(qs))
	}

	for _, n := range []any{0, 16, "abc", 2.5, true} {
		rec, body := api.do(http.MethodPost, "/api/interview/generate-questions", token, map[string]any{"jobRole": "SRE", "numQuestions": n})
		if rec.Code != http.StatusBadRequest || body["code"] != "validation_error" {
			t.Fatalf("numQuestions=%v: %d %v", n, rec.Code, body)
		}
	}
	rec, _ := api.do(http.MethodPost, "/api/interview/generate-questions", token, map[string]any{"techStack": "Go"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing jobRole: %d", rec.Code)
	}

	rec, body := api.do(http.MethodGet, "/api/interview/limits", "", nil)
	if rec.Code != http.StatusOK || body["min"] != 1.0 || body["max"] != 15.0 || body["default"] != 5.0 {
		t.Fatalf("limits: %d %v", rec.Code, body)
	}
}

func TestInterviewLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("A", "a@example.com")
	sessionID, qs := api.generate(token, map[string]any{"jobRole": "SRE", "techStack": "Kubernetes", "numQuestions": 2})

	api.ai.JSONFunc = func(ctx context.Context, system, user, name string, schema map[string]any) (map[string]any, error) {
		return map[string]any{
			"strengths": "s", "weaknesses": "w", "improvements": "i", "aiSuggestedAnswer": "a", "score": 6,
		}, nil
	}
	for _, q := range qs {
		rec, body := api.do(http.MethodPost, "/api/interview/submit-answer", token, map[string]any{
			"sessionId": sessionID, "question": q, "userAnswer": "my answer", "jobRole": "SRE",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
		}
		fb, _ := body["aiFeedback"].(map[string]any)
		if fb["score"] != 6.0 || fb["strengths"] != "s" {
			t.Fatalf("aiFeedback=%v", body["aiFeedback"])
		}
	}

	rec, _ := api.do(http.MethodPost, "/api/interview/submit-answer", token, map[string]any{"sessionId": sessionID, "question": "Q"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: %d", rec.Code)
	}

	rec, body := api.do(http.MethodGet, "/api/interview/sessions/"+sessionID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	if body["totalScore"] != 12.0 || body["status"] != "in-progress" || body["techStack"] != "Kubernetes" {
		t.Fatalf("session=%v", body)
	}
	if qa, _ := body["questionsAndAnswers"].([]any); len(qa) != 2 {
		t.Fatalf("questionsAndAnswers=%v", body["questionsAndAnswers"])
	}

	for i := 0; i < 2; i++ {
		rec, body = api.do(http.MethodPut, "/api/interview/complete-session/"+sessionID, token, nil)
		if rec.Code != http.StatusOK || body["message"] != "Interview session marked as completed." {
			t.Fatalf("complete #%d: %d %v", i+1, rec.Code, body)
		}
	}
	_, body = api.do(http.MethodGet, "/api/interview/sessions/"+sessionID, token, nil)
	if body["status"] != "completed" || body["completedAt"] == nil {
		t.Fatalf("after complete: %v", body)
	}

	rec, body = api.do(http.MethodDelete, "/api/interview/sessions/"+sessionID, token, nil)
	if rec.Code != http.StatusOK || body["message"] != "Interview session deleted successfully." {
		t.Fatalf("delete: %d %v", rec.Code, body)
	}
	rec, _ = api.do(http.MethodGet, "/api/interview/sessions/"+sessionID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("Alice", "alice@example.com")
	bob := api.register("Bob", "bob@example.com")
	sessionID, _ := api.generate(alice, map[string]any{"jobRole": "SRE"})

	checks := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/interview/sessions/" + sessionID, nil},
		{http.MethodPut, "/api/interview/complete-session/" + sessionID, nil},
		{http.MethodDelete, "/api/interview/sessions/" + sessionID, nil},
		{http.MethodPost, "/api/interview/submit-answer", map[string]any{
			"sessionId": sessionID, "question": "Q", "userAnswer": "A", "jobRole": "SRE",
		}},
	}
	for _, c := range checks {
		rec, body := api.do(c.method, c.path, bob, c.body)
		if rec.Code != http.StatusNotFound || body["code"] != "not_found" {
			t.Fatalf("%s %s as bob: %d %v", c.method, c.path, rec.Code, body)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/interview/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+bob)
	api.engine.ServeHTTP(rec, req)
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v (%s)", err, rec.Body.String())
	}
	if len(list) != 0 {
		t.Fatalf("bob sees %d sessions", len(list))
	}

	_, body := api.do(http.MethodGet, "/api/interview/sessions/"+sessionID, alice, nil)
	if body["status"] != "in-progress" {
		t.Fatalf("alice's session changed: %v", body)
	}
}

func TestAIFailureReturns500WithoutDetail(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("A", "a@example.com")
	api.ai.JSONFunc = func(ctx context.Context, system, user, name string, schema map[string]any) (map[string]any, error) {
		return nil, llm.NewFailure("mock", llm.KindStatus, 401, context.DeadlineExceeded)
	}
	rec, body := api.do(http.MethodPost, "/api/interview/generate-questions", token, map[string]any{"jobRole": "SRE"})
	if rec.Code != http.StatusInternalServerError || body["code"] != "ai_failure" {
		t.Fatalf("ai failure: %d %v", rec.Code, body)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("deadline")) {
		t.Fatalf("cause leaked: %s", rec.Body.String())
	}
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/healthcheck", "/readyz"} {
		rec := httptest.NewRecorder()
		api.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("%s: %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
