package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/data/repos"
	types "github.com/yungbote/interview-coach/internal/domain"
	"github.com/yungbote/interview-coach/internal/pkg/apierr"
	"github.com/yungbote/interview-coach/internal/pkg/dbctx"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

const (
	MinQuestions     = 1
	MaxQuestions     = 15
	DefaultQuestions = 5

	defaultAITimeout      = 60 * time.Second
	defaultPersistTimeout = 30 * time.Second

	msgSessionNotFound = "Interview session not found or unauthorized."
)

type QuestionLimits struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type GenerateInput struct {
	JobRole   string
	TechStack string
	// NumQuestions is nil when the client did not send a count.
	NumQuestions *int
}

type SubmitInput struct {
	SessionID  string
	Question   string
	UserAnswer string
	JobRole    string
}

type InterviewConfig struct {
	AITimeout      time.Duration
	PersistTimeout time.Duration
	// DeleteForbidden403 answers 403 instead of 404 when deleting a session
	// owned by someone else.
	DeleteForbidden403 bool
	Now                func() time.Time
}

type InterviewService interface {
	Limits() QuestionLimits
	GenerateQuestions(ctx context.Context, userID uuid.UUID, in GenerateInput) (*types.InterviewSession, error)
	SubmitAnswer(ctx context.Context, userID uuid.UUID, in SubmitInput) (*types.Feedback, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.InterviewSession, error)
	GetSession(ctx context.Context, userID uuid.UUID, sessionID string) (*types.InterviewSession, error)
	CompleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error
	DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error
}

type interviewService struct {
	log         *logger.Logger
	sessionRepo repos.SessionRepo
	ai          llm.Client
	locker      SessionLocker
	cfg         InterviewConfig
}

func NewInterviewService(
	log *logger.Logger,
	sessionRepo repos.SessionRepo,
	ai llm.Client,
	locker SessionLocker,
	cfg InterviewConfig,
) InterviewService {
	if locker == nil {
		locker = NewMemLocker()
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaultAITimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &interviewService{
		log:         log.With("service", "InterviewService"),
		sessionRepo: sessionRepo,
		ai:          ai,
		locker:      locker,
		cfg:         cfg,
	}
}

func (s *interviewService) Limits() QuestionLimits {
	return QuestionLimits{Min: MinQuestions, Max: MaxQuestions, Default: DefaultQuestions}
}

// detached keeps an in-flight AI call or write alive when the client hangs up;
// the timeout still bounds it.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func (s *interviewService) GenerateQuestions(ctx context.Context, userID uuid.UUID, in GenerateInput) (*types.InterviewSession, error) {
	jobRole := strings.TrimSpace(in.JobRole)
	techStack := strings.TrimSpace(in.TechStack)
	if jobRole == "" {
		return nil, apierr.Validation("Please provide a job role.")
	}
	n := DefaultQuestions
	if in.NumQuestions != nil {
		n = *in.NumQuestions
	}
	if n < MinQuestions || n > MaxQuestions {
		return nil, apierr.Validation(fmt.Sprintf("Number of questions must be between %d and %d.", MinQuestions, MaxQuestions))
	}

	system, user := questionsPrompt(jobRole, techStack, n)
	aiCtx, cancel := detached(ctx, s.cfg.AITimeout)
	obj, err := s.ai.GenerateJSON(aiCtx, system, user, questionsSchemaName, questionsSchema(n))
	cancel()
	if err != nil {
		s.logAIFailure("generate questions", err)
		return nil, apierr.AIFailure("AI could not generate questions. Please try again.", err)
	}
	questions := decodeQuestions(obj, n)
	if len(questions) == 0 {
		return nil, apierr.AIFailure("AI could not generate questions. Please try again.",
			llm.NewFailure("", llm.KindSchema, 0, errors.New("no questions in model output")))
	}

	if techStack == "" {
		techStack = types.DefaultTechStack
	}
	persistCtx, cancelPersist := detached(ctx, s.cfg.PersistTimeout)
	defer cancelPersist()
	session, err := s.sessionRepo.Create(dbctx.Context{Ctx: persistCtx}, &types.InterviewSession{
		UserID:    userID,
		JobRole:   jobRole,
		TechStack: techStack,
		Questions: datatypes.JSONSlice[string](questions),
	})
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("create session: %w", err))
	}
	s.log.Info("interview session created", "session_id", session.ID, "user_id", userID, "questions", len(questions))
	return session, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, userID uuid.UUID, in SubmitInput) (*types.Feedback, error) {
	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.UserAnswer)
	jobRole := strings.TrimSpace(in.JobRole)
	if strings.TrimSpace(in.SessionID) == "" || question == "" || answer == "" || jobRole == "" {
		return nil, apierr.Validation("Session ID, question, user answer, and job role are required.")
	}

	session, err := s.loadOwned(ctx, userID, in.SessionID)
	if err != nil {
		return nil, err
	}

	system, user := feedbackPrompt(jobRole, question, answer)
	aiCtx, cancel := detached(ctx, s.cfg.AITimeout)
	obj, err := s.ai.GenerateJSON(aiCtx, system, user, feedbackSchemaName, feedbackSchema())
	cancel()
	if err != nil {
		s.logAIFailure("answer feedback", err)
		return nil, apierr.AIFailure("AI could not generate feedback.", err)
	}
	feedback, err := decodeFeedback(obj)
	if err != nil {
		s.logAIFailure("answer feedback", err)
		return nil, apierr.AIFailure("AI could not generate feedback.", err)
	}

	persistCtx, cancelPersist := detached(ctx, s.cfg.PersistTimeout)
	defer cancelPersist()
	unlock, err := s.locker.Lock(persistCtx, session.ID.String())
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("lock session: %w", err))
	}
	defer unlock()

	_, err = s.sessionRepo.AppendAnswer(dbctx.Context{Ctx: persistCtx}, session.ID, &types.InterviewAnswer{
		Question:   question,
		UserAnswer: answer,
		Feedback:   datatypes.NewJSONType(feedback),
	})
	if errors.Is(err, repos.ErrSessionNotFound) {
		return nil, apierr.NotFound(msgSessionNotFound)
	}
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("append answer: %w", err))
	}
	s.log.Info("answer recorded", "session_id", session.ID, "score", feedback.Score)
	return &feedback, nil
}

func (s *interviewService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*types.InterviewSession, error) {
	list, err := s.sessionRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("list sessions: %w", err))
	}
	return list, nil
}

func (s *interviewService) GetSession(ctx context.Context, userID uuid.UUID, sessionID string) (*types.InterviewSession, error) {
	return s.loadOwned(ctx, userID, sessionID)
}

func (s *interviewService) CompleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	session, err := s.loadOwned(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Complete(dbctx.Context{Ctx: ctx}, session.ID, s.cfg.Now()); err != nil {
		if errors.Is(err, repos.ErrSessionNotFound) {
			return apierr.NotFound(msgSessionNotFound)
		}
		return apierr.Server(fmt.Errorf("complete session: %w", err))
	}
	return nil
}

func (s *interviewService) DeleteSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return apierr.NotFound("Interview session not found.")
	}
	if !session.OwnedBy(userID) {
		if s.cfg.DeleteForbidden403 {
			return apierr.Forbidden("Not authorized to delete this session.")
		}
		return apierr.NotFound("Interview session not found.")
	}
	if err := s.sessionRepo.Delete(dbctx.Context{Ctx: ctx}, session.ID); err != nil {
		if errors.Is(err, repos.ErrSessionNotFound) {
			return apierr.NotFound("Interview session not found.")
		}
		return apierr.Server(fmt.Errorf("delete session: %w", err))
	}
	s.log.Info("interview session deleted", "session_id", session.ID, "user_id", userID)
	return nil
}

// load returns nil, nil for ids that are malformed or unknown.
func (s *interviewService) load(ctx context.Context, sessionID string) (*types.InterviewSession, error) {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, nil
	}
	session, err := s.sessionRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load session: %w", err))
	}
	return session, nil
}

// loadOwned answers 404 for both unknown sessions and sessions of other users.
func (s *interviewService) loadOwned(ctx context.Context, userID uuid.UUID, sessionID string) (*types.InterviewSession, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.OwnedBy(userID) {
		return nil, apierr.NotFound(msgSessionNotFound)
	}
	return session, nil
}

func (s *interviewService) logAIFailure(op string, err error) {
	kv := []interface{}{"op", op, "error", err}
	if f := llm.AsFailure(err); f != nil {
		kv = append(kv, "provider", f.Provider, "kind", string(f.Kind), "status", f.StatusCode)
	}
	s.log.Error("AI call failed", kv...)
}

func decodeQuestions(obj map[string]any, max int) []string {
	raw, _ := obj["questions"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		q, ok := v.(string)
		if !ok {
			continue
		}
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
		if len(out) == max {
			break
		}
	}
	return out
}

// decodeFeedback requires the four text fields. A missing or non-numeric
// score counts as 0.
func decodeFeedback(obj map[string]any) (types.Feedback, error) {
	var fb types.Feedback
	var missing []string
	text := func(key string) string {
		v, ok := obj[key].(string)
		if !ok {
			missing = append(missing, key)
		}
		return strings.TrimSpace(v)
	}
	fb.Strengths = text("strengths")
	fb.Weaknesses = text("weaknesses")
	fb.Improvements = text("improvements")
	fb.AISuggestedAnswer = text("aiSuggestedAnswer")
	if len(missing) > 0 {
		return fb, llm.NewFailure("", llm.KindSchema, 0,
			fmt.Errorf("feedback missing keys: [%s]", strings.Join(missing, ", ")))
	}
	fb.Score = types.ClampScore(parseScore(obj["score"]))
	return fb, nil
}

func parseScore(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
