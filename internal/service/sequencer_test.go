package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/veritest/veritest-backend/internal/model"
)

func questionList(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{ID: uuid.New(), OrderNum: i + 1}
	}
	return qs
}

func TestNextQuestionFirstUnanswered(t *testing.T) {
	qs := questionList(4)

	idx, next, completed := NextQuestion(qs, map[uuid.UUID]struct{}{})
	if completed || idx != 0 || next == nil || next.ID != qs[0].ID {
		t.Fatalf("empty set: got (%d, %v, %v), want first question", idx, next, completed)
	}
}

func TestNextQuestionOutOfOrderAnswers(t *testing.T) {
	qs := questionList(4)

	// Answering Q1 and Q3 leaves Q2 as the lowest unanswered position.
	answered := map[uuid.UUID]struct{}{
		qs[0].ID: {},
		qs[2].ID: {},
	}

	idx, next, completed := NextQuestion(qs, answered)
	if completed {
		t.Fatal("unexpected completion")
	}
	if idx != 1 || next.ID != qs[1].ID {
		t.Errorf("got index %d, want 1 (the skipped question)", idx)
	}

	// Answering Q2 next should advance to Q4, not revisit anything.
	answered[qs[1].ID] = struct{}{}
	idx, next, completed = NextQuestion(qs, answered)
	if completed || idx != 3 || next.ID != qs[3].ID {
		t.Errorf("got (%d, %v), want index 3", idx, completed)
	}
}

func TestNextQuestionAllAnswered(t *testing.T) {
	qs := questionList(3)
	answered := map[uuid.UUID]struct{}{}
	for _, q := range qs {
		answered[q.ID] = struct{}{}
	}

	idx, next, completed := NextQuestion(qs, answered)
	if !completed {
		t.Fatal("expected completion signal")
	}
	if idx != -1 || next != nil {
		t.Errorf("got (%d, %v), want (-1, nil)", idx, next)
	}
}

func TestNextQuestionEmptyExam(t *testing.T) {
	idx, next, completed := NextQuestion(nil, map[uuid.UUID]struct{}{})
	if !completed || idx != -1 || next != nil {
		t.Errorf("exam with no questions should complete immediately, got (%d, %v, %v)", idx, next, completed)
	}
}
