package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veritest/veritest-backend/internal/model"
)

// Store interfaces consumed by the session core. The pgx repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.
// Absent rows are reported as pgx.ErrNoRows by both.

type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetOpenByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	UpdateClock(ctx context.Context, s *model.Session) error
	UpdateGrade(ctx context.Context, id uuid.UUID, grade float64) error
	UpdateBookmarks(ctx context.Context, id uuid.UUID, bookmarks []uuid.UUID) error
	Finalize(ctx context.Context, s *model.Session, completedAt time.Time) (bool, error)
	ListOpenTimed(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type AnswerStore interface {
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error)
	Upsert(ctx context.Context, a *model.Answer) error
	ListQuestionIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}

type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}
