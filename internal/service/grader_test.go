package service

import (
	"testing"

	"github.com/veritest/veritest-backend/internal/model"
)

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func TestGradeMultipleChoice(t *testing.T) {
	q := &model.Question{
		QuestionType: model.QuestionTypeMultipleChoice,
		CorrectText:  "B",
		Marks:        5,
	}

	tests := []struct {
		name    string
		raw     string
		correct bool
	}{
		{"exact label", "B", true},
		{"case insensitive", "b", true},
		{"surrounding whitespace", "  b  ", true},
		{"wrong label", "a", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := model.ParseAnswerValue(q.QuestionType, tt.raw)
			got := NewGrader().Grade(q, v)
			if got.Correct != tt.correct {
				t.Errorf("Grade(%q).Correct = %v, want %v", tt.raw, got.Correct, tt.correct)
			}
			wantMarks := 0.0
			if tt.correct {
				wantMarks = q.Marks
			}
			if got.Marks != wantMarks {
				t.Errorf("Grade(%q).Marks = %v, want %v", tt.raw, got.Marks, wantMarks)
			}
		})
	}
}

func TestGradeNumericToleranceBand(t *testing.T) {
	// Band is [100-2, 100+5] inclusive on both edges.
	q := &model.Question{
		QuestionType:   model.QuestionTypeNumeric,
		CorrectValue:   floatPtr(100),
		ToleranceAbove: 5,
		ToleranceBelow: 2,
		Marks:          10,
	}

	tests := []struct {
		name    string
		raw     string
		correct bool
	}{
		{"exact", "100", true},
		{"lower bound", "98", true},
		{"below lower bound", "97.999", false},
		{"upper bound", "105", true},
		{"above upper bound", "105.001", false},
		{"inside band", "103.5", true},
		{"malformed number", "abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := model.ParseAnswerValue(q.QuestionType, tt.raw)
			got := NewGrader().Grade(q, v)
			if got.Correct != tt.correct {
				t.Errorf("Grade(%q).Correct = %v, want %v", tt.raw, got.Correct, tt.correct)
			}
		})
	}
}

func TestGradeNumericZeroTolerance(t *testing.T) {
	q := &model.Question{
		QuestionType: model.QuestionTypeNumeric,
		CorrectValue: floatPtr(42),
		Marks:        1,
	}

	if got := NewGrader().Grade(q, model.ParseAnswerValue(q.QuestionType, "42")); !got.Correct {
		t.Error("exact value with zero tolerance should be correct")
	}
	if got := NewGrader().Grade(q, model.ParseAnswerValue(q.QuestionType, "42.0001")); got.Correct {
		t.Error("off-by-epsilon with zero tolerance should be incorrect")
	}
}

func TestGradeDelta(t *testing.T) {
	const marks = 5.0

	tests := []struct {
		name string
		prev *bool
		next bool
		want float64
	}{
		{"none to correct", nil, true, marks},
		{"none to incorrect", nil, false, 0},
		{"correct to correct", boolPtr(true), true, 0},
		{"correct to incorrect", boolPtr(true), false, -marks},
		{"incorrect to correct", boolPtr(false), true, marks},
		{"incorrect to incorrect", boolPtr(false), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradeDelta(tt.prev, tt.next, marks); got != tt.want {
				t.Errorf("GradeDelta = %v, want %v", got, tt.want)
			}
		})
	}
}
