package services

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/interview-coach/internal/clients/llm"
	"github.com/yungbote/interview-coach/internal/data/repos"
	"github.com/yungbote/interview-coach/internal/data/repos/testutil"
)

const testSecret = "test-secret-value"

type fixture struct {
	auth      AuthService
	interview InterviewService
	ai        *llm.Mock
	sessions  repos.SessionRepo
}

func newFixture(t *testing.T, cfg InterviewConfig) *fixture {
	t.Helper()
	db := testutil.DB(t)
	logg := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, logg)
	sessionRepo := repos.NewSessionRepo(db, logg)

	auth, err := NewAuthService(logg, userRepo, AuthConfig{JWTSecret: testSecret, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	ai := llm.NewMock()
	if cfg.AITimeout == 0 {
		cfg.AITimeout = 5 * time.Second
	}
	return &fixture{
		auth:      auth,
		interview: NewInterviewService(logg, sessionRepo, ai, NewMemLocker(), cfg),
		ai:        ai,
		sessions:  sessionRepo,
	}
}
