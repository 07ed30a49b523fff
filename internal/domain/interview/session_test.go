package interview

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestClampScore(t *testing.T) {
	cases := map[float64]float64{
		-3:         0,
		0:          0,
		7.5:        7.5,
		10:         10,
		42:         10,
		math.NaN(): 0,
	}
	for in, want := range cases {
		if got := ClampScore(in); got != want {
			t.Fatalf("ClampScore(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestScoreSumAndOwnership(t *testing.T) {
	owner := uuid.New()
	s := &Session{
		UserID: owner,
		Answers: []Answer{
			{Feedback: datatypes.NewJSONType(Feedback{Score: 6})},
			{Feedback: datatypes.NewJSONType(Feedback{Score: 3.5})},
		},
	}
	if got := s.ScoreSum(); got != 9.5 {
		t.Fatalf("ScoreSum = %v", got)
	}
	if !s.OwnedBy(owner) {
		t.Fatal("expected owner match")
	}
	if s.OwnedBy(uuid.New()) || s.OwnedBy(uuid.Nil) {
		t.Fatal("unexpected owner match")
	}
	var nilSession *Session
	if nilSession.OwnedBy(owner) {
		t.Fatal("nil session owned by nobody")
	}
}
