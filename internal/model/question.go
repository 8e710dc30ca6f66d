package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeNumeric        QuestionType = "NUMERIC"
)

// Question represents a single exam question.
//
// For MULTIPLE_CHOICE the correct answer is CorrectText (an option label).
// For NUMERIC the correct answer is CorrectValue with an inclusive band of
// [CorrectValue-ToleranceBelow, CorrectValue+ToleranceAbove].
type Question struct {
	ID             uuid.UUID       `json:"id"`
	ExamID         uuid.UUID       `json:"exam_id"`
	QuestionText   string          `json:"question_text"`
	QuestionType   QuestionType    `json:"question_type"`
	Options        json.RawMessage `json:"options,omitempty"`
	CorrectText    string          `json:"correct_text,omitempty"`
	CorrectValue   *float64        `json:"correct_value,omitempty"`
	ToleranceAbove float64         `json:"tolerance_above"`
	ToleranceBelow float64         `json:"tolerance_below"`
	Marks          float64         `json:"marks"`
	OrderNum       int             `json:"order_num"`
}

// StudentQuestion is a question with all grading fields stripped, safe to
// send to a student mid-session.
type StudentQuestion struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	Marks        float64         `json:"marks"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent returns the sanitized view of the question.
func (q *Question) ForStudent() *StudentQuestion {
	return &StudentQuestion{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Marks:        q.Marks,
		OrderNum:     q.OrderNum,
	}
}
