// Package client is a typed Go client for the interview coach HTTP API.
//
// Authentication state lives in an explicit Session value returned by
// Register or Login and passed to every protected call. Nothing is cached in
// the Client itself.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/interview-coach/internal/domain"
)

var (
	// ErrSessionExpired is returned before any request is sent when the
	// session token is already past its expiry.
	ErrSessionExpired = errors.New("session expired")
	ErrNoSession      = errors.New("no session token")

	// ErrMissingField is returned before any request is sent when a field the
	// server requires is blank.
	ErrMissingField = errors.New("missing required field")
)

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.UserSummary
}

// Expired reports whether the token is unusable at now. A zero ExpiresAt
// never expires locally.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

type QuestionLimits struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type GenerateRequest struct {
	JobRole   string `json:"jobRole"`
	TechStack string `json:"techStack,omitempty"`
	// NumQuestions nil lets the server pick its default.
	NumQuestions *int `json:"numQuestions,omitempty"`
}

type GeneratedSession struct {
	SessionID uuid.UUID `json:"sessionId"`
	Questions []string  `json:"questions"`
}

type SubmitRequest struct {
	SessionID  uuid.UUID `json:"sessionId"`
	Question   string    `json:"question"`
	UserAnswer string    `json:"userAnswer"`
	JobRole    string    `json:"jobRole"`
}

func (r SubmitRequest) validate() error {
	var missing []string
	if r.SessionID == uuid.Nil {
		missing = append(missing, "sessionId")
	}
	for _, f := range []struct{ name, v string }{
		{"question", r.Question},
		{"userAnswer", r.UserAnswer},
		{"jobRole", r.JobRole},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	baseURL string
	hc      *http.Client
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		hc:      &http.Client{Timeout: 90 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authPayload struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (p authPayload) session() Session {
	return Session{
		Token:     p.Token,
		ExpiresAt: p.ExpiresAt,
		User:      domain.UserSummary{ID: p.ID, Name: p.Name, Email: p.Email},
	}
}

func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	var out authPayload
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, nil, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return Session{}, err
	}
	return out.session(), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out authPayload
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, nil, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return Session{}, err
	}
	return out.session(), nil
}

func (c *Client) Me(ctx context.Context, s Session) (domain.UserSummary, error) {
	var out domain.UserSummary
	err := c.do(ctx, &s, http.MethodGet, "/api/auth/me", nil, &out)
	return out, err
}

func (c *Client) Limits(ctx context.Context) (QuestionLimits, error) {
	var out QuestionLimits
	err := c.do(ctx, nil, http.MethodGet, "/api/interview/limits", nil, &out)
	return out, err
}

func (c *Client) GenerateQuestions(ctx context.Context, s Session, req GenerateRequest) (GeneratedSession, error) {
	var out GeneratedSession
	err := c.do(ctx, &s, http.MethodPost, "/api/interview/generate-questions", req, &out)
	return out, err
}

func (c *Client) SubmitAnswer(ctx context.Context, s Session, req SubmitRequest) (domain.Feedback, error) {
	if err := req.validate(); err != nil {
		return domain.Feedback{}, err
	}
	var out struct {
		AIFeedback domain.Feedback `json:"aiFeedback"`
	}
	err := c.do(ctx, &s, http.MethodPost, "/api/interview/submit-answer", req, &out)
	return out.AIFeedback, err
}

func (c *Client) ListSessions(ctx context.Context, s Session) ([]domain.InterviewSession, error) {
	var out []domain.InterviewSession
	err := c.do(ctx, &s, http.MethodGet, "/api/interview/sessions", nil, &out)
	return out, err
}

func (c *Client) GetSession(ctx context.Context, s Session, id uuid.UUID) (*domain.InterviewSession, error) {
	var out domain.InterviewSession
	if err := c.do(ctx, &s, http.MethodGet, "/api/interview/sessions/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteSession(ctx context.Context, s Session, id uuid.UUID) error {
	return c.do(ctx, &s, http.MethodPut, "/api/interview/complete-session/"+url.PathEscape(id.String()), nil, nil)
}

func (c *Client) DeleteSession(ctx context.Context, s Session, id uuid.UUID) error {
	return c.do(ctx, &s, http.MethodDelete, "/api/interview/sessions/"+url.PathEscape(id.String()), nil, nil)
}

// do sends one request. A non-nil session is checked locally first so an
// expired token never reaches the network.
func (c *Client) do(ctx context.Context, s *Session, method, path string, in, out any) error {
	if s != nil {
		if strings.TrimSpace(s.Token) == "" {
			return ErrNoSession
		}
		if s.Expired(c.now()) {
			return ErrSessionExpired
		}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
			apiErr.Message = eb.Message
			apiErr.Code = eb.Code
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
