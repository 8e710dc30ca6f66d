package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/veritest/veritest-backend/internal/config"
	"github.com/veritest/veritest-backend/internal/model"
)

// SessionService is the single authority over session lifecycle. It owns the
// Created → Running ⇄ Paused → Finalized state machine, delegates grading
// and sequencing, and is the only component that touches the attempt's
// usage counter.
//
// Every mutating operation runs under the per-session lock so state
// transitions and grade-delta application are linearizable per session.
// Read-only queries skip the lock.
type SessionService struct {
	sessions  SessionStore
	answers   AnswerStore
	attempts  AttemptStore
	exams     ExamStore
	questions QuestionStore
	grader    *Grader
	rdb       *redis.Client // optional: nil disables caching and the journal queue
	log       zerolog.Logger
	locks     *sessionLocks
	now       func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions SessionStore,
	answers AnswerStore,
	attempts AttemptStore,
	exams ExamStore,
	questions QuestionStore,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		answers:   answers,
		attempts:  attempts,
		exams:     exams,
		questions: questions,
		grader:    NewGrader(),
		rdb:       rdb,
		log:       log.With().Str("component", "session_service").Logger(),
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// ─── Start ──────────────────────────────────────────────────────────────────

// Start creates a session for an attempt after checking eligibility: the
// attempt must exist, belong to the caller (operators bypass ownership), be
// enabled, be inside its open/close window, and have tries left.
//
// If an open session already exists for the attempt it is returned as-is, so
// a retried start request never spawns a parallel session.
func (s *SessionService) Start(ctx context.Context, attemptID uuid.UUID, studentID int, operator bool) (*model.Session, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	if attempt.StudentID != studentID && !operator {
		return nil, ErrNotOwner
	}

	now := s.now()
	if !attempt.Enabled || !attempt.WindowOpen(now) || attempt.Exhausted() {
		return nil, ErrNotEligible
	}

	// Idempotent start: hand back the open session if there is one.
	existing, err := s.sessions.GetOpenByAttempt(ctx, attemptID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check open session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	session := &model.Session{AttemptID: attemptID}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent start won the partial unique index; fetch theirs.
			return s.sessions.GetOpenByAttempt(ctx, attemptID)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheExamDuration(ctx, attempt.ExamID)

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("attempt_id", attemptID.String()).
		Int("student_id", attempt.StudentID).
		Msg("Session started")

	return session, nil
}

// ─── Run-start / run-pause ──────────────────────────────────────────────────

// RunStart moves a Created or Paused session to Running. The channel-connect
// event and the explicit resume endpoint both land here; a session already
// running is left untouched so a channel reconnect is harmless.
func (s *SessionService) RunStart(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool) (*model.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, ErrSessionFinalized
	}

	now := s.now()
	duration, err := s.examDuration(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if Expired(session, duration, now) {
		if err := s.finalizeLocked(ctx, session, attempt); err != nil {
			return nil, err
		}
		return nil, ErrSessionFinalized
	}

	if session.Running {
		return session, nil
	}

	session.Running = true
	session.RunStartedAt = &now
	session.PausedAt = nil
	if err := s.sessions.UpdateClock(ctx, session); err != nil {
		return nil, fmt.Errorf("update clock: %w", err)
	}

	s.log.Debug().Str("session_id", sessionID.String()).Msg("Run started")
	return session, nil
}

// RunPause moves a Running session to Paused, folding the open run into the
// accumulated elapsed time. Driven by channel closure; pausing a session
// that is not running is a no-op.
func (s *SessionService) RunPause(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, ErrSessionFinalized
	}
	if !session.Running {
		return session, nil
	}

	now := s.now()
	if session.RunStartedAt != nil {
		run := int(now.Sub(*session.RunStartedAt).Seconds())
		if run > 0 {
			session.ElapsedSeconds += run
		}
	}
	session.Running = false
	session.RunStartedAt = nil
	session.PausedAt = &now

	if err := s.sessions.UpdateClock(ctx, session); err != nil {
		return nil, fmt.Errorf("update clock: %w", err)
	}

	s.log.Debug().
		Str("session_id", sessionID.String()).
		Int("elapsed_seconds", session.ElapsedSeconds).
		Msg("Run paused")
	return session, nil
}

// ─── Answer submission ──────────────────────────────────────────────────────

// SubmitAnswer grades a submitted value, reconciles the grade from the
// previous-to-new correctness transition, records the answer (upsert, so a
// pair never has two rows), and reports what comes next. When the last
// unanswered question gets its answer the session finalizes automatically.
//
// On an expired clock the submission is not accepted: the session is
// finalized instead and the caller sees the already-submitted conflict.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool, req *model.SubmitAnswerRequest) (*model.SubmissionResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, ErrSessionFinalized
	}

	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	var question *model.Question
	for i := range questions {
		if questions[i].ID == req.QuestionID {
			question = &questions[i]
			break
		}
	}
	if question == nil {
		return nil, s.missingQuestionErr(ctx, req.QuestionID)
	}

	now := s.now()
	duration, err := s.examDuration(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	if Expired(session, duration, now) {
		if err := s.finalizeLocked(ctx, session, attempt); err != nil {
			return nil, err
		}
		return nil, ErrSessionFinalized
	}

	// Previous verdict for this pair, if any.
	var prevCorrect *bool
	prev, err := s.answers.GetBySessionAndQuestion(ctx, sessionID, req.QuestionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get previous answer: %w", err)
	}
	if prev != nil {
		prevCorrect = &prev.IsCorrect
	}

	value := model.ParseAnswerValue(question.QuestionType, req.Value)
	result := s.grader.Grade(question, value)
	delta := GradeDelta(prevCorrect, result.Correct, question.Marks)

	answer := &model.Answer{
		SessionID:      sessionID,
		QuestionID:     req.QuestionID,
		SubmittedValue: req.Value,
		IsCorrect:      result.Correct,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}

	if delta != 0 {
		session.Grade += delta
		if err := s.sessions.UpdateGrade(ctx, session.ID, session.Grade); err != nil {
			return nil, fmt.Errorf("update grade: %w", err)
		}
	}

	answeredIDs, err := s.answers.ListQuestionIDs(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answered: %w", err)
	}
	nextIdx, next, completed := NextQuestion(questions, answeredSet(answeredIDs))

	if completed {
		if err := s.finalizeLocked(ctx, session, attempt); err != nil {
			return nil, err
		}
	}

	s.enqueueJournal(ctx, answer, delta)

	res := &model.SubmissionResult{
		Correct:        result.Correct,
		GradeDelta:     delta,
		Grade:          session.Grade,
		NextIndex:      nextIdx,
		TotalQuestions: len(questions),
		AnsweredCount:  len(answeredIDs),
		Completed:      completed,
	}
	if next != nil {
		res.NextQuestion = next.ForStudent()
	}
	return res, nil
}

// ─── Finalize ───────────────────────────────────────────────────────────────

// Finalize explicitly submits the whole exam. Finalizing twice is a
// conflict: the second call changes nothing and the usage counter is only
// ever incremented once.
func (s *SessionService) Finalize(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool) (*model.Session, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, ErrSessionFinalized
	}

	if err := s.finalizeLocked(ctx, session, attempt); err != nil {
		return nil, err
	}
	return session, nil
}

// finalizeLocked performs the irreversible completion transition. Callers
// must hold the session lock. The store-level completed_at guard backs up
// the in-memory check, so the usage counter moves exactly once even if two
// processes race.
func (s *SessionService) finalizeLocked(ctx context.Context, session *model.Session, attempt *model.Attempt) error {
	now := s.now()

	if session.Running && session.RunStartedAt != nil {
		run := int(now.Sub(*session.RunStartedAt).Seconds())
		if run > 0 {
			session.ElapsedSeconds += run
		}
	}
	session.Running = false
	session.RunStartedAt = nil
	session.PausedAt = nil

	ok, err := s.sessions.Finalize(ctx, session, now)
	if err != nil {
		return fmt.Errorf("finalize session: %w", err)
	}
	if !ok {
		return ErrSessionFinalized
	}
	session.CompletedAt = &now

	if err := s.attempts.IncrementUsage(ctx, attempt.ID); err != nil {
		return fmt.Errorf("increment attempt usage: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("attempt_id", attempt.ID.String()).
		Float64("grade", session.Grade).
		Int("elapsed_seconds", session.ElapsedSeconds).
		Msg("Session finalized")
	return nil
}

// ─── Read paths ─────────────────────────────────────────────────────────────

// State returns the resume view: next unanswered question, counts, remaining
// time, and bookmarks. Read-only, so it does not take the session lock.
func (s *SessionService) State(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool) (*model.SessionState, error) {
	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answeredIDs, err := s.answers.ListQuestionIDs(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answered: %w", err)
	}
	nextIdx, next, completed := NextQuestion(questions, answeredSet(answeredIDs))

	duration, err := s.examDuration(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	state := &model.SessionState{
		Session:          session,
		NextIndex:        nextIdx,
		TotalQuestions:   len(questions),
		AnsweredCount:    len(answeredIDs),
		Completed:        completed || session.Finalized(),
		RemainingSeconds: RemainingSeconds(session, duration, s.now()),
	}
	if next != nil && !session.Finalized() {
		state.NextQuestion = next.ForStudent()
	}
	return state, nil
}

// RemainingTime reports the remaining seconds for a session; nil means the
// exam is untimed.
func (s *SessionService) RemainingTime(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool) (*int, error) {
	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}
	duration, err := s.examDuration(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	return RemainingSeconds(session, duration, s.now()), nil
}

// ─── Bookmarks ──────────────────────────────────────────────────────────────

// ToggleBookmark adds or removes a question from the session's bookmark set.
func (s *SessionService) ToggleBookmark(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool, questionID uuid.UUID) ([]uuid.UUID, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	session, attempt, err := s.loadAuthorized(ctx, sessionID, studentID, operator)
	if err != nil {
		return nil, err
	}
	if session.Finalized() {
		return nil, ErrSessionFinalized
	}

	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	found := false
	for i := range questions {
		if questions[i].ID == questionID {
			found = true
			break
		}
	}
	if !found {
		return nil, s.missingQuestionErr(ctx, questionID)
	}

	bookmarks := make([]uuid.UUID, 0, len(session.Bookmarks)+1)
	removed := false
	for _, id := range session.Bookmarks {
		if id == questionID {
			removed = true
			continue
		}
		bookmarks = append(bookmarks, id)
	}
	if !removed {
		bookmarks = append(bookmarks, questionID)
	}

	if err := s.sessions.UpdateBookmarks(ctx, sessionID, bookmarks); err != nil {
		return nil, fmt.Errorf("update bookmarks: %w", err)
	}
	session.Bookmarks = bookmarks
	return bookmarks, nil
}

// ─── Expiry sweep ───────────────────────────────────────────────────────────

// ExpireOverdue finalizes open timed sessions whose clock has run out.
// Each candidate goes through the same locked finalize path as everything
// else, so the sweep can never double-count an attempt.
func (s *SessionService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	ids, err := s.sessions.ListOpenTimed(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list open timed sessions: %w", err)
	}

	expired := 0
	for _, id := range ids {
		n, err := s.expireOne(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", id.String()).Msg("Expiry sweep failed for session")
			continue
		}
		expired += n
	}
	return expired, nil
}

func (s *SessionService) expireOne(ctx context.Context, id uuid.UUID) (int, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if session.Finalized() {
		return 0, nil
	}

	attempt, err := s.attempts.GetByID(ctx, session.AttemptID)
	if err != nil {
		return 0, fmt.Errorf("get attempt: %w", err)
	}
	duration, err := s.examDuration(ctx, attempt.ExamID)
	if err != nil {
		return 0, err
	}
	if !Expired(session, duration, s.now()) {
		return 0, nil
	}

	if err := s.finalizeLocked(ctx, session, attempt); err != nil {
		if errors.Is(err, ErrSessionFinalized) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}

// ─── Internal helpers ───────────────────────────────────────────────────────

// missingQuestionErr classifies a question id that is not in the session's
// exam: a row that exists elsewhere is a bad input, an absent row is not
// found.
func (s *SessionService) missingQuestionErr(ctx context.Context, id uuid.UUID) error {
	if _, err := s.questions.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("get question: %w", err)
	}
	return ErrQuestionNotInExam
}

func (s *SessionService) loadSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *SessionService) loadAuthorized(ctx context.Context, sessionID uuid.UUID, studentID int, operator bool) (*model.Session, *model.Attempt, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	attempt, err := s.attempts.GetByID(ctx, session.AttemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.StudentID != studentID && !operator {
		return nil, nil, ErrNotOwner
	}
	return session, attempt, nil
}

// examDuration resolves an exam's duration in minutes, Redis first with a
// PostgreSQL fallback that self-heals the cache.
func (s *SessionService) examDuration(ctx context.Context, examID uuid.UUID) (int, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, config.CacheKey.ExamDurationKey(examID.String())).Result()
		if err == nil {
			if minutes, convErr := strconv.Atoi(val); convErr == nil {
				return minutes, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Redis duration lookup failed, falling back to PostgreSQL")
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return 0, fmt.Errorf("get exam: %w", err)
	}
	s.cacheExamDuration(ctx, examID, exam.DurationMinutes)
	return exam.DurationMinutes, nil
}

// cacheExamDuration stores the duration in Redis, best effort.
func (s *SessionService) cacheExamDuration(ctx context.Context, examID uuid.UUID, duration ...int) {
	if s.rdb == nil {
		return
	}
	var minutes int
	if len(duration) > 0 {
		minutes = duration[0]
	} else {
		exam, err := s.exams.GetByID(ctx, examID)
		if err != nil {
			return
		}
		minutes = exam.DurationMinutes
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamDurationKey(examID.String()), minutes, 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache exam duration")
	}
}

// journalEntry is the payload pushed onto the answer journal queue.
type journalEntry struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Submitted  string  `json:"submitted"`
	Correct    bool    `json:"correct"`
	GradeDelta float64 `json:"grade_delta"`
}

// enqueueJournal pushes a graded submission onto the audit queue, best
// effort — the journal is an async convenience, never part of the grading
// transaction.
func (s *SessionService) enqueueJournal(ctx context.Context, a *model.Answer, delta float64) {
	if s.rdb == nil {
		return
	}
	payload, _ := json.Marshal(journalEntry{
		SessionID:  a.SessionID.String(),
		QuestionID: a.QuestionID.String(),
		Submitted:  a.SubmittedValue,
		Correct:    a.IsCorrect,
		GradeDelta: delta,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.JournalAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue answer journal entry")
	}
}
