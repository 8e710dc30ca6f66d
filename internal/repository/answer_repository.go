package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veritest/veritest-backend/internal/model"
)

// AnswerRepository handles answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// GetBySessionAndQuestion retrieves the latest answer for a (session, question)
// pair. Returns pgx.ErrNoRows if nothing has been submitted yet.
func (r *AnswerRepository) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error) {
	a := &model.Answer{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, question_id, submitted_value, is_correct, updated_at
		 FROM answers
		 WHERE session_id = $1 AND question_id = $2`, sessionID, questionID,
	).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SubmittedValue, &a.IsCorrect, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Upsert records an answer, updating the existing row on resubmission so
// there is never more than one answer per (session, question) pair.
func (r *AnswerRepository) Upsert(ctx context.Context, a *model.Answer) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO answers (session_id, question_id, submitted_value, is_correct)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, question_id)
		 DO UPDATE SET submitted_value = EXCLUDED.submitted_value,
		               is_correct = EXCLUDED.is_correct,
		               updated_at = NOW()
		 RETURNING id, updated_at`,
		a.SessionID, a.QuestionID, a.SubmittedValue, a.IsCorrect,
	).Scan(&a.ID, &a.UpdatedAt)
}

// ListQuestionIDs returns the set of question ids with a recorded answer for
// a session.
func (r *AnswerRepository) ListQuestionIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM answers WHERE session_id = $1`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
