package service

import (
	"time"

	"github.com/veritest/veritest-backend/internal/model"
)

// RemainingSeconds computes how much clock a session has left.
//
// Consumed time is elapsed-before-current-run plus the open run (now minus
// run-start) while running. The result is clamped at zero and is always
// zero for a finalized session. Untimed exams (durationMinutes == 0) have
// no cap; nil signals "unavailable" to the caller.
//
// The tracker does not enforce the cutoff itself — mutating operations check
// it and auto-finalize instead of accepting the mutation.
func RemainingSeconds(s *model.Session, durationMinutes int, now time.Time) *int {
	if durationMinutes <= 0 {
		return nil
	}

	zero := 0
	if s.Finalized() {
		return &zero
	}

	remaining := durationMinutes*60 - s.ConsumedSeconds(now)
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Expired reports whether a timed session has used up its clock.
func Expired(s *model.Session, durationMinutes int, now time.Time) bool {
	r := RemainingSeconds(s, durationMinutes, now)
	return r != nil && *r <= 0 && !s.Finalized()
}
