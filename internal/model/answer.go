package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnswerKind tags the variant carried by an AnswerValue.
type AnswerKind string

const (
	AnswerKindChoice    AnswerKind = "choice"
	AnswerKindNumber    AnswerKind = "number"
	AnswerKindMalformed AnswerKind = "malformed"
)

// AnswerValue is the typed form of a submitted value. The variant is chosen
// by the question's type tag, never inferred from the raw text.
type AnswerValue struct {
	Kind   AnswerKind
	Choice string
	Number float64
}

// ParseAnswerValue converts a raw submitted string into the variant matching
// the question type. A numeric value that does not parse yields the
// malformed variant, which never grades as correct.
func ParseAnswerValue(qt QuestionType, raw string) AnswerValue {
	switch qt {
	case QuestionTypeNumeric:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return AnswerValue{Kind: AnswerKindMalformed}
		}
		return AnswerValue{Kind: AnswerKindNumber, Number: n}
	default:
		return AnswerValue{Kind: AnswerKindChoice, Choice: NormalizeLabel(raw)}
	}
}

// NormalizeLabel canonicalizes an option label for comparison.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Answer is one student's latest recorded answer for one question within a
// session. There is at most one row per (session, question) pair; a
// resubmission updates the row in place.
type Answer struct {
	ID             uuid.UUID `json:"id"`
	SessionID      uuid.UUID `json:"session_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SubmittedValue string    `json:"submitted_value"`
	IsCorrect      bool      `json:"is_correct"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for submitting an answer.
type SubmitAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Value      string    `json:"value" binding:"required,max=2000"`
}

// SubmissionResult is the uniform response body for answer submission and
// session resume views.
type SubmissionResult struct {
	Correct        bool             `json:"correct"`
	GradeDelta     float64          `json:"grade_delta"`
	Grade          float64          `json:"grade"`
	NextQuestion   *StudentQuestion `json:"next_question,omitempty"`
	NextIndex      int              `json:"next_index"` // position in the original order, -1 when complete
	TotalQuestions int              `json:"total_questions"`
	AnsweredCount  int              `json:"answered_count"`
	Completed      bool             `json:"completed"`
}
