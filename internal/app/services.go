package app

import (
	"fmt"

	"github.com/yungbote/interview-coach/internal/pkg/logger"
	"github.com/yungbote/interview-coach/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Interview services.InterviewService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, reposet.User, services.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	var locker services.SessionLocker
	if clients.Locker != nil {
		locker = clients.Locker
	} else {
		locker = services.NewMemLocker()
	}

	interview := services.NewInterviewService(log, reposet.Session, clients.AI, locker, services.InterviewConfig{
		AITimeout:          cfg.AI.Timeout,
		DeleteForbidden403: cfg.DeleteForbidden403,
	})

	return Services{Auth: auth, Interview: interview}, nil
}
