package db

import (
	types "github.com/yungbote/interview-coach/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.InterviewSession{},
		&types.InterviewAnswer{},
	)
}
