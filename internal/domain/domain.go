package domain

import (
	"github.com/yungbote/interview-coach/internal/domain/interview"
	"github.com/yungbote/interview-coach/internal/domain/user"
)

type User = user.User
type UserSummary = user.Summary

type InterviewSession = interview.Session
type InterviewAnswer = interview.Answer
type Feedback = interview.Feedback
type SessionStatus = interview.Status

const (
	SessionInProgress = interview.StatusInProgress
	SessionCompleted  = interview.StatusCompleted
)

const DefaultTechStack = interview.DefaultTechStack

func ClampScore(v float64) float64 { return interview.ClampScore(v) }
