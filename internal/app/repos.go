package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/interview-coach/internal/data/repos"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

type Repos struct {
	User    repos.UserRepo
	Session repos.SessionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    repos.NewUserRepo(db, log),
		Session: repos.NewSessionRepo(db, log),
	}
}
