package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is one in-progress or completed execution of an attempt.
//
// Timer model: ElapsedSeconds accumulates active time from finished runs.
// While Running, the current run is open-ended from RunStartedAt; pausing
// folds now-RunStartedAt into ElapsedSeconds and stamps PausedAt. The
// real-time channel is the authoritative source of run-start/run-pause
// transitions; the explicit resume endpoint funnels into the same transition.
type Session struct {
	ID             uuid.UUID   `json:"id"`
	AttemptID      uuid.UUID   `json:"attempt_id"`
	Grade          float64     `json:"grade"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	Running        bool        `json:"running"`
	RunStartedAt   *time.Time  `json:"run_started_at,omitempty"`
	PausedAt       *time.Time  `json:"paused_at,omitempty"`
	ElapsedSeconds int         `json:"elapsed_seconds"`
	Bookmarks      []uuid.UUID `json:"bookmarks"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Finalized reports whether the session has been irreversibly completed.
func (s *Session) Finalized() bool {
	return s.CompletedAt != nil
}

// ConsumedSeconds reports total active seconds as of now.
func (s *Session) ConsumedSeconds(now time.Time) int {
	consumed := s.ElapsedSeconds
	if s.Running && s.RunStartedAt != nil {
		run := int(now.Sub(*s.RunStartedAt).Seconds())
		if run > 0 {
			consumed += run
		}
	}
	return consumed
}

// SessionState is the resume view of a session: where the student is, what
// comes next, and how much clock is left.
type SessionState struct {
	Session          *Session         `json:"session"`
	NextQuestion     *StudentQuestion `json:"next_question,omitempty"`
	NextIndex        int              `json:"next_index"`
	TotalQuestions   int              `json:"total_questions"`
	AnsweredCount    int              `json:"answered_count"`
	Completed        bool             `json:"completed"`
	RemainingSeconds *int             `json:"remaining_seconds,omitempty"` // nil for untimed exams
}
