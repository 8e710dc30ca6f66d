package service

import (
	"github.com/veritest/veritest-backend/internal/model"
)

// GradeResult is the outcome of grading a single submission.
type GradeResult struct {
	Correct bool
	Marks   float64
}

// Grader determines correctness and awarded marks for a submitted value.
// It is pure and stateless: no clock, no storage, no side effects.
type Grader struct{}

// NewGrader creates a new Grader.
func NewGrader() *Grader {
	return &Grader{}
}

// Grade applies the question's own rule to the typed submitted value.
//
// Multiple choice compares normalized labels. Numeric accepts any value in
// the inclusive band [correct-toleranceBelow, correct+toleranceAbove]; a
// malformed number is simply incorrect. Marks are all-or-nothing.
func (g *Grader) Grade(q *model.Question, v model.AnswerValue) GradeResult {
	correct := false

	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		correct = v.Kind == model.AnswerKindChoice &&
			v.Choice == model.NormalizeLabel(q.CorrectText)
	case model.QuestionTypeNumeric:
		if v.Kind == model.AnswerKindNumber && q.CorrectValue != nil {
			lo := *q.CorrectValue - q.ToleranceBelow
			hi := *q.CorrectValue + q.ToleranceAbove
			correct = v.Number >= lo && v.Number <= hi
		}
	}

	if !correct {
		return GradeResult{Correct: false, Marks: 0}
	}
	return GradeResult{Correct: true, Marks: q.Marks}
}

// GradeDelta computes the grade adjustment for a (re)submission from the
// transition between the previous and new correctness, so resubmitting the
// same verdict never moves the grade:
//
//	none     → correct    +marks
//	none     → incorrect   0
//	correct  → correct     0
//	correct  → incorrect  -marks
//	wrong    → correct    +marks
//	wrong    → incorrect   0
func GradeDelta(prevCorrect *bool, newCorrect bool, marks float64) float64 {
	wasCorrect := prevCorrect != nil && *prevCorrect
	switch {
	case newCorrect && !wasCorrect:
		return marks
	case !newCorrect && wasCorrect:
		return -marks
	default:
		return 0
	}
}
