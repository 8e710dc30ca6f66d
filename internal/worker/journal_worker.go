package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/veritest/veritest-backend/internal/config"
)

// JournalWorker consumes journal_answers_queue and appends graded
// submissions to the answer_events audit table.
type JournalWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewJournalWorker creates a new JournalWorker.
func NewJournalWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *JournalWorker {
	return &JournalWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "journal_worker").Logger(),
	}
}

type journalPayload struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Submitted  string  `json:"submitted"`
	Correct    bool    `json:"correct"`
	GradeDelta float64 `json:"grade_delta"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *JournalWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *JournalWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.JournalAnswersQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload journalPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.appendEvent(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Str("question_id", payload.QuestionID).
			Msg("Append error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.JournalAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *JournalWorker) appendEvent(ctx context.Context, p *journalPayload) error {
	sessionID, err := uuid.Parse(p.SessionID)
	if err != nil {
		return err
	}

	questionID, err := uuid.Parse(p.QuestionID)
	if err != nil {
		return err
	}

	// Append-only: every graded submission keeps its own row, including
	// resubmissions of the same question.
	_, err = w.pool.Exec(ctx,
		`INSERT INTO answer_events (session_id, question_id, submitted_value, is_correct, grade_delta)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionID, questionID, p.Submitted, p.Correct, p.GradeDelta,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *JournalWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.JournalAnswersQueue).Result()
		if err != nil {
			break
		}

		var payload journalPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.appendEvent(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain append error")
			w.rdb.RPush(ctx, config.WorkerKey.JournalAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
