package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one student's permitted engagement with one exam, bounded by a
// time window and an attempt quota. The session core consumes attempts; it
// only ever mutates AttemptsUsed, exactly once per finalized session.
type Attempt struct {
	ID           uuid.UUID `json:"id"`
	ExamID       uuid.UUID `json:"exam_id"`
	StudentID    int       `json:"student_id"`
	OpensAt      time.Time `json:"opens_at"`
	ClosesAt     time.Time `json:"closes_at"`
	MaxAttempts  int       `json:"max_attempts"`
	AttemptsUsed int       `json:"attempts_used"`
	Enabled      bool      `json:"enabled"`
	AllowReview  bool      `json:"allow_review"`
	CreatedAt    time.Time `json:"created_at"`
}

// WindowOpen reports whether now falls inside the attempt's open/close window.
func (a *Attempt) WindowOpen(now time.Time) bool {
	return !now.Before(a.OpensAt) && !now.After(a.ClosesAt)
}

// Exhausted reports whether the attempt quota has been consumed.
func (a *Attempt) Exhausted() bool {
	return a.AttemptsUsed >= a.MaxAttempts
}
