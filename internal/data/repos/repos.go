package repos

import (
	"github.com/yungbote/interview-coach/internal/data/repos/interview"
	"github.com/yungbote/interview-coach/internal/data/repos/user"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type SessionRepo = interview.SessionRepo

var (
	ErrDuplicateEmail  = user.ErrDuplicateEmail
	ErrSessionNotFound = interview.ErrSessionNotFound
)

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return interview.NewSessionRepo(db, baseLog)
}
