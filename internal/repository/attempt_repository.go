package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veritest/veritest-backend/internal/model"
)

// AttemptRepository handles attempt registry data access. The session core
// treats attempts as externally provisioned: it reads eligibility data and
// increments attempts_used, nothing more.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, opens_at, closes_at, max_attempts,
		        attempts_used, enabled, allow_review, created_at
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.OpensAt, &a.ClosesAt, &a.MaxAttempts,
		&a.AttemptsUsed, &a.Enabled, &a.AllowReview, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// IncrementUsage adds one to the attempt's usage counter.
func (r *AttemptRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET attempts_used = attempts_used + 1 WHERE id = $1`, id)
	return err
}

// Create inserts a new attempt (provisioning path, used by seeders).
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	if a.MaxAttempts == 0 {
		a.MaxAttempts = 1
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id, opens_at, closes_at, max_attempts, enabled, allow_review)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, attempts_used, created_at`,
		a.ExamID, a.StudentID, a.OpensAt, a.ClosesAt, a.MaxAttempts, a.Enabled, a.AllowReview,
	).Scan(&a.ID, &a.AttemptsUsed, &a.CreatedAt)
}
