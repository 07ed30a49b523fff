package interview

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/interview-coach/internal/domain"
	"github.com/yungbote/interview-coach/internal/pkg/dbctx"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

var ErrSessionNotFound = errors.New("interview session not found")

type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.InterviewSession) (*types.InterviewSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterviewSession, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterviewSession, error)
	AppendAnswer(dbc dbctx.Context, sessionID uuid.UUID, answer *types.InterviewAnswer) (*types.InterviewAnswer, error)
	Complete(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func orderedAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.InterviewSession) (*types.InterviewSession, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if s.UserID == uuid.Nil {
		return nil, errors.New("session owner required")
	}
	s.Status = types.SessionInProgress
	s.TotalScore = 0
	s.CompletedAt = nil
	// Answers are only ever written through AppendAnswer.
	answers := s.Answers
	s.Answers = nil
	if err := dbc.Conn(r.db).Omit(clause.Associations).Create(s).Error; err != nil {
		s.Answers = answers
		return nil, err
	}
	s.Answers = []types.InterviewAnswer{}
	return s, nil
}

// GetByID returns nil, nil when the session does not exist.
func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterviewSession, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s types.InterviewSession
	err := dbc.Conn(r.db).
		Preload("Answers", orderedAnswers).
		Where("id = ?", id).
		Limit(1).
		Find(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, nil
	}
	if s.Answers == nil {
		s.Answers = []types.InterviewAnswer{}
	}
	return &s, nil
}

func (r *sessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterviewSession, error) {
	results := []*types.InterviewSession{}
	if userID == uuid.Nil {
		return results, nil
	}
	err := dbc.Conn(r.db).
		Preload("Answers", orderedAnswers).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	for _, s := range results {
		if s.Answers == nil {
			s.Answers = []types.InterviewAnswer{}
		}
	}
	return results, nil
}

// AppendAnswer stores answer at the end of the session and adds its score to
// the session total in the same transaction.
func (r *sessionRepo) AppendAnswer(dbc dbctx.Context, sessionID uuid.UUID, answer *types.InterviewAnswer) (*types.InterviewAnswer, error) {
	if answer == nil {
		return nil, errors.New("nil answer")
	}
	score := types.ClampScore(answer.Feedback.Data().Score)

	err := dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		var s types.InterviewSession
		lookup := txx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", sessionID).
			Limit(1).
			Find(&s)
		if lookup.Error != nil {
			return lookup.Error
		}
		if lookup.RowsAffected == 0 {
			return ErrSessionNotFound
		}

		var position int64
		if err := txx.Model(&types.InterviewAnswer{}).
			Where("session_id = ?", sessionID).
			Count(&position).Error; err != nil {
			return err
		}

		answer.ID = uuid.Nil
		answer.SessionID = sessionID
		answer.Position = int(position)
		if err := txx.Create(answer).Error; err != nil {
			return err
		}

		return txx.Model(&types.InterviewSession{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"total_score": gorm.Expr("total_score + ?", score),
				"updated_at":  time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// Complete marks the session completed. Completing twice keeps the first
// completion time.
func (r *sessionRepo) Complete(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	conn := dbc.Conn(r.db)
	res := conn.Model(&types.InterviewSession{}).
		Where("id = ? AND status <> ?", id, types.SessionCompleted).
		Updates(map[string]interface{}{
			"status":       types.SessionCompleted,
			"completed_at": at.UTC(),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := conn.Model(&types.InterviewSession{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session and every answer it owns.
func (r *sessionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		if err := txx.Where("session_id = ?", id).Delete(&types.InterviewAnswer{}).Error; err != nil {
			return err
		}
		res := txx.Where("id = ?", id).Delete(&types.InterviewSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}
