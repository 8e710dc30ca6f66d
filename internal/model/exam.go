package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusActive   ExamStatus = "ACTIVE"
	ExamStatusArchived ExamStatus = "ARCHIVED"
)

// Exam represents an exam entity. DurationMinutes of zero means the exam
// is untimed and no clock is enforced.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Timed reports whether the exam enforces a duration.
func (e *Exam) Timed() bool {
	return e.DurationMinutes > 0
}
