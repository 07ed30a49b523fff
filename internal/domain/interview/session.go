package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

const DefaultTechStack = "General"

// Session is one job-role practice run. Answers are owned by the session and
// only ever appended; they disappear with it.
type Session struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID      uuid.UUID                   `gorm:"type:uuid;index;not null;column:user_id" json:"user"`
	JobRole     string                      `gorm:"not null;column:job_role" json:"jobRole"`
	TechStack   string                      `gorm:"not null;column:tech_stack" json:"techStack"`
	Questions   datatypes.JSONSlice[string] `gorm:"column:questions" json:"questions"`
	Answers     []Answer                    `gorm:"foreignKey:SessionID;references:ID" json:"questionsAndAnswers"`
	TotalScore  float64                     `gorm:"not null;default:0;column:total_score" json:"totalScore"`
	Status      Status                      `gorm:"type:varchar(16);not null;index;column:status" json:"status"`
	CompletedAt *time.Time                  `gorm:"column:completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time                   `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"not null" json:"updatedAt"`
}

func (Session) TableName() string { return "interview_sessions" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusInProgress
	}
	if s.TechStack == "" {
		s.TechStack = DefaultTechStack
	}
	return nil
}

func (s *Session) OwnedBy(userID uuid.UUID) bool {
	return s != nil && userID != uuid.Nil && s.UserID == userID
}

// ScoreSum recomputes the aggregate from the recorded feedback.
func (s *Session) ScoreSum() float64 {
	var sum float64
	for i := range s.Answers {
		sum += s.Answers[i].Feedback.Data().Score
	}
	return sum
}

// Answer is a question, the user's answer and the AI feedback, stored as one
// unit.
type Answer struct {
	ID         uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"_id"`
	SessionID  uuid.UUID                    `gorm:"type:uuid;index;not null;column:session_id" json:"-"`
	Position   int                          `gorm:"not null;column:position" json:"-"`
	Question   string                       `gorm:"type:text;not null;column:question" json:"question"`
	UserAnswer string                       `gorm:"type:text;not null;column:user_answer" json:"userAnswer"`
	Feedback   datatypes.JSONType[Feedback] `gorm:"column:ai_feedback" json:"aiFeedback"`
	CreatedAt  time.Time                    `gorm:"not null" json:"createdAt"`
}

func (Answer) TableName() string { return "interview_answers" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Feedback struct {
	Strengths         string  `json:"strengths"`
	Weaknesses        string  `json:"weaknesses"`
	Improvements      string  `json:"improvements"`
	AISuggestedAnswer string  `json:"aiSuggestedAnswer"`
	Score             float64 `json:"score"`
}

const (
	MinScore = 0
	MaxScore = 10
)

// ClampScore keeps a score inside the 0..10 scale so the session aggregate can
// only grow.
func ClampScore(v float64) float64 {
	switch {
	case v != v: // NaN
		return MinScore
	case v < MinScore:
		return MinScore
	case v > MaxScore:
		return MaxScore
	default:
		return v
	}
}
