package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veritest/veritest-backend/internal/model"
)

// SessionRepository handles session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, attempt_id, grade, completed_at, running, run_started_at,
	paused_at, elapsed_seconds, bookmarks, created_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*model.Session, error) {
	s := &model.Session{}
	err := row.Scan(&s.ID, &s.AttemptID, &s.Grade, &s.CompletedAt, &s.Running,
		&s.RunStartedAt, &s.PausedAt, &s.ElapsedSeconds, &s.Bookmarks, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

// GetOpenByAttempt retrieves the open (non-completed) session for an attempt,
// if one exists. The partial unique index guarantees at most one.
func (r *SessionRepository) GetOpenByAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE attempt_id = $1 AND completed_at IS NULL`, attemptID))
}

// Create inserts a new session for an attempt. The partial unique index on
// (attempt_id) WHERE completed_at IS NULL rejects a second open session; the
// conflict surfaces as pgx.ErrNoRows from the RETURNING clause.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO sessions (attempt_id)
		 VALUES ($1)
		 ON CONFLICT (attempt_id) WHERE completed_at IS NULL DO NOTHING
		 RETURNING id, grade, elapsed_seconds, bookmarks, created_at`,
		s.AttemptID,
	).Scan(&s.ID, &s.Grade, &s.ElapsedSeconds, &s.Bookmarks, &s.CreatedAt)
}

// UpdateClock persists the timer fields of a session.
func (r *SessionRepository) UpdateClock(ctx context.Context, s *model.Session) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET running = $1, run_started_at = $2, paused_at = $3, elapsed_seconds = $4
		 WHERE id = $5`,
		s.Running, s.RunStartedAt, s.PausedAt, s.ElapsedSeconds, s.ID)
	return err
}

// UpdateGrade persists the running grade of a session.
func (r *SessionRepository) UpdateGrade(ctx context.Context, id uuid.UUID, grade float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET grade = $1 WHERE id = $2`, grade, id)
	return err
}

// UpdateBookmarks persists the bookmarked-question set of a session.
func (r *SessionRepository) UpdateBookmarks(ctx context.Context, id uuid.UUID, bookmarks []uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET bookmarks = $1 WHERE id = $2`, bookmarks, id)
	return err
}

// Finalize stamps completion and stops the clock. The completed_at guard
// makes the statement a no-op on an already-finalized row; the caller checks
// the affected count as a last line of defense against double finalization.
func (r *SessionRepository) Finalize(ctx context.Context, s *model.Session, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET grade = $1, completed_at = $2, running = FALSE,
		     run_started_at = NULL, paused_at = NULL, elapsed_seconds = $3
		 WHERE id = $4 AND completed_at IS NULL`,
		s.Grade, completedAt, s.ElapsedSeconds, s.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpenTimed returns the ids of open sessions whose exam enforces a
// duration, for the expiry sweep.
func (r *SessionRepository) ListOpenTimed(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id
		 FROM sessions s
		 JOIN attempts a ON s.attempt_id = a.id
		 JOIN exams e ON a.exam_id = e.id
		 WHERE s.completed_at IS NULL AND e.duration_minutes > 0
		 ORDER BY s.created_at
		 LIMIT $1`, limit,
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

// SessionResult combines student data with session details for operators.
type SessionResult struct {
	SessionID   uuid.UUID  `json:"session_id"`
	AttemptID   uuid.UUID  `json:"attempt_id"`
	StudentID   int        `json:"student_id"`
	StudentName string     `json:"student_name"`
	Grade       float64    `json:"grade"`
	CompletedAt *time.Time `json:"completed_at"`
	StartedAt   time.Time  `json:"started_at"`
}

// ListResultsByExam retrieves paginated session results for an exam.
func (r *SessionRepository) ListResultsByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]SessionResult, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM sessions s
		 JOIN attempts a ON s.attempt_id = a.id
		 WHERE a.exam_id = $1`, examID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.attempt_id, a.student_id, st.name, s.grade, s.completed_at, s.created_at
		 FROM sessions s
		 JOIN attempts a ON s.attempt_id = a.id
		 JOIN students st ON a.student_id = st.id
		 WHERE a.exam_id = $1
		 ORDER BY s.created_at DESC
		 LIMIT $2 OFFSET $3`, examID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.SessionID, &sr.AttemptID, &sr.StudentID, &sr.StudentName,
			&sr.Grade, &sr.CompletedAt, &sr.StartedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
