package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/veritest/veritest-backend/internal/model"
)

// ─── In-memory fakes ────────────────────────────────────────────────────────
//
// The fakes mirror the pgx repositories' contract: pgx.ErrNoRows for absent
// rows, and the partial-unique-index behavior on session creation.

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[uuid.UUID]*model.Session)}
}

func copySession(s *model.Session) *model.Session {
	cp := *s
	cp.Bookmarks = append([]uuid.UUID(nil), s.Bookmarks...)
	return &cp
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copySession(s), nil
}

func (f *fakeSessions) GetOpenByAttempt(_ context.Context, attemptID uuid.UUID) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.AttemptID == attemptID && s.CompletedAt == nil {
			return copySession(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.sessions {
		if existing.AttemptID == s.AttemptID && existing.CompletedAt == nil {
			// ON CONFLICT DO NOTHING: no row returned.
			return pgx.ErrNoRows
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.Bookmarks = []uuid.UUID{}
	f.sessions[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessions) UpdateClock(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.sessions[s.ID]
	stored.Running = s.Running
	stored.RunStartedAt = s.RunStartedAt
	stored.PausedAt = s.PausedAt
	stored.ElapsedSeconds = s.ElapsedSeconds
	return nil
}

func (f *fakeSessions) UpdateGrade(_ context.Context, id uuid.UUID, grade float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Grade = grade
	return nil
}

func (f *fakeSessions) UpdateBookmarks(_ context.Context, id uuid.UUID, bookmarks []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Bookmarks = append([]uuid.UUID(nil), bookmarks...)
	return nil
}

func (f *fakeSessions) Finalize(_ context.Context, s *model.Session, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.sessions[s.ID]
	if stored.CompletedAt != nil {
		return false, nil
	}
	at := completedAt
	stored.CompletedAt = &at
	stored.Grade = s.Grade
	stored.ElapsedSeconds = s.ElapsedSeconds
	stored.Running = false
	stored.RunStartedAt = nil
	stored.PausedAt = nil
	return true, nil
}

func (f *fakeSessions) ListOpenTimed(_ context.Context, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, s := range f.sessions {
		if s.CompletedAt == nil && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type answerKey struct {
	session  uuid.UUID
	question uuid.UUID
}

type fakeAnswers struct {
	mu      sync.Mutex
	answers map[answerKey]*model.Answer
}

func newFakeAnswers() *fakeAnswers {
	return &fakeAnswers{answers: make(map[answerKey]*model.Answer)}
}

func (f *fakeAnswers) GetBySessionAndQuestion(_ context.Context, sessionID, questionID uuid.UUID) (*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[answerKey{sessionID, questionID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnswers) Upsert(_ context.Context, a *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := answerKey{a.SessionID, a.QuestionID}
	if existing, ok := f.answers[key]; ok {
		a.ID = existing.ID
	} else {
		a.ID = uuid.New()
	}
	a.UpdatedAt = time.Now()
	cp := *a
	f.answers[key] = &cp
	return nil
}

func (f *fakeAnswers) ListQuestionIDs(_ context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for key := range f.answers {
		if key.session == sessionID {
			ids = append(ids, key.question)
		}
	}
	return ids, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*model.Attempt
	usage    map[uuid.UUID]int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		attempts: make(map[uuid.UUID]*model.Attempt),
		usage:    make(map[uuid.UUID]int),
	}
}

func (f *fakeAttempts) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttempts) IncrementUsage(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[id].AttemptsUsed++
	f.usage[id]++
	return nil
}

type fakeExams struct {
	exams map[uuid.UUID]*model.Exam
}

func (f *fakeExams) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

type fakeQuestions struct {
	byExam map[uuid.UUID][]model.Question
}

func (f *fakeQuestions) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	for _, qs := range f.byExam {
		for i := range qs {
			if qs[i].ID == id {
				cp := qs[i]
				return &cp, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeQuestions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	return append([]model.Question(nil), f.byExam[examID]...), nil
}

// ─── Test environment ───────────────────────────────────────────────────────

const testStudentID = 7

type testEnv struct {
	svc           *SessionService
	sessions      *fakeSessions
	answers       *fakeAnswers
	attempts      *fakeAttempts
	questionStore *fakeQuestions
	attemptID     uuid.UUID
	questions     []model.Question
	now           time.Time
}

// newTestEnv builds a service over one exam (durationMinutes, 0 = untimed)
// with the given question set and one open attempt for testStudentID.
func newTestEnv(t *testing.T, durationMinutes int, questions []model.Question) *testEnv {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Unit Exam",
		DurationMinutes: durationMinutes,
		Status:          model.ExamStatusActive,
	}
	for i := range questions {
		questions[i].ExamID = exam.ID
	}

	attempt := &model.Attempt{
		ID:          uuid.New(),
		ExamID:      exam.ID,
		StudentID:   testStudentID,
		OpensAt:     now.Add(-time.Hour),
		ClosesAt:    now.Add(time.Hour),
		MaxAttempts: 2,
		Enabled:     true,
	}

	env := &testEnv{
		sessions:      newFakeSessions(),
		answers:       newFakeAnswers(),
		attempts:      newFakeAttempts(),
		questionStore: &fakeQuestions{byExam: map[uuid.UUID][]model.Question{exam.ID: questions}},
		attemptID:     attempt.ID,
		questions:     questions,
		now:           now,
	}
	env.attempts.attempts[attempt.ID] = attempt

	env.svc = NewSessionService(
		env.sessions,
		env.answers,
		env.attempts,
		&fakeExams{exams: map[uuid.UUID]*model.Exam{exam.ID: exam}},
		env.questionStore,
		nil,
		zerolog.Nop(),
	)
	env.svc.now = func() time.Time { return env.now }
	return env
}

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: uuid.New(), QuestionType: model.QuestionTypeMultipleChoice, CorrectText: "a", Marks: 5, OrderNum: 1},
		{ID: uuid.New(), QuestionType: model.QuestionTypeNumeric, CorrectValue: floatPtr(10), ToleranceAbove: 1, ToleranceBelow: 1, Marks: 10, OrderNum: 2},
		{ID: uuid.New(), QuestionType: model.QuestionTypeMultipleChoice, CorrectText: "c", Marks: 5, OrderNum: 3},
	}
}

func (e *testEnv) start(t *testing.T) *model.Session {
	t.Helper()
	session, err := e.svc.Start(context.Background(), e.attemptID, testStudentID, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return session
}

func (e *testEnv) submit(t *testing.T, sessionID, questionID uuid.UUID, value string) *model.SubmissionResult {
	t.Helper()
	res, err := e.svc.SubmitAnswer(context.Background(), sessionID, testStudentID, false,
		&model.SubmitAnswerRequest{QuestionID: questionID, Value: value})
	if err != nil {
		t.Fatalf("SubmitAnswer(%s): %v", value, err)
	}
	return res
}

// ─── Start ──────────────────────────────────────────────────────────────────

func TestStartEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown attempt", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		if _, err := env.svc.Start(ctx, uuid.New(), testStudentID, false); err != ErrAttemptNotFound {
			t.Errorf("got %v, want ErrAttemptNotFound", err)
		}
	})

	t.Run("foreign attempt", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		if _, err := env.svc.Start(ctx, env.attemptID, testStudentID+1, false); err != ErrNotOwner {
			t.Errorf("got %v, want ErrNotOwner", err)
		}
	})

	t.Run("operator bypasses ownership", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		if _, err := env.svc.Start(ctx, env.attemptID, 0, true); err != nil {
			t.Errorf("operator start failed: %v", err)
		}
	})

	t.Run("disabled attempt", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		env.attempts.attempts[env.attemptID].Enabled = false
		if _, err := env.svc.Start(ctx, env.attemptID, testStudentID, false); err != ErrNotEligible {
			t.Errorf("got %v, want ErrNotEligible", err)
		}
	})

	t.Run("window closed", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		env.now = env.now.Add(2 * time.Hour)
		if _, err := env.svc.Start(ctx, env.attemptID, testStudentID, false); err != ErrNotEligible {
			t.Errorf("got %v, want ErrNotEligible", err)
		}
	})

	t.Run("quota exhausted", func(t *testing.T) {
		env := newTestEnv(t, 0, threeQuestions())
		env.attempts.attempts[env.attemptID].AttemptsUsed = 2
		if _, err := env.svc.Start(ctx, env.attemptID, testStudentID, false); err != ErrNotEligible {
			t.Errorf("got %v, want ErrNotEligible", err)
		}
	})
}

func TestStartIdempotent(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())

	first := env.start(t)
	second := env.start(t)
	if first.ID != second.ID {
		t.Errorf("second start created a new session: %s vs %s", first.ID, second.ID)
	}
}

// ─── Answer flow ────────────────────────────────────────────────────────────

func TestSubmitAnswerFlow(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	qs := env.questions
	session := env.start(t)

	// Q1 answered correctly: +5, next is Q2.
	res := env.submit(t, session.ID, qs[0].ID, "A")
	if !res.Correct || res.Grade != 5 || res.GradeDelta != 5 {
		t.Fatalf("Q1: got correct=%v grade=%v delta=%v", res.Correct, res.Grade, res.GradeDelta)
	}
	if res.NextIndex != 1 || res.NextQuestion == nil || res.NextQuestion.ID != qs[1].ID {
		t.Fatalf("Q1: next index %d, want 1", res.NextIndex)
	}

	// Q3 answered out of order, correctly: +5, next is STILL Q2.
	res = env.submit(t, session.ID, qs[2].ID, "c")
	if res.Grade != 10 {
		t.Fatalf("Q3: grade %v, want 10", res.Grade)
	}
	if res.NextIndex != 1 || res.NextQuestion.ID != qs[1].ID {
		t.Fatalf("Q3: next index %d, want the skipped Q2", res.NextIndex)
	}
	if res.AnsweredCount != 2 || res.Completed {
		t.Fatalf("Q3: answered=%d completed=%v", res.AnsweredCount, res.Completed)
	}

	// Q2 answered incorrectly: no delta, all questions answered, the
	// session finalizes automatically and the quota moves exactly once.
	res = env.submit(t, session.ID, qs[1].ID, "99")
	if res.Correct || res.Grade != 10 || res.GradeDelta != 0 {
		t.Fatalf("Q2: got correct=%v grade=%v delta=%v", res.Correct, res.Grade, res.GradeDelta)
	}
	if !res.Completed || res.NextIndex != -1 || res.NextQuestion != nil {
		t.Fatalf("Q2: want completion, got next index %d", res.NextIndex)
	}

	stored, _ := env.sessions.GetByID(context.Background(), session.ID)
	if !stored.Finalized() || stored.Grade != 10 {
		t.Errorf("stored session: finalized=%v grade=%v, want finalized with 10", stored.Finalized(), stored.Grade)
	}
	if env.attempts.usage[env.attemptID] != 1 {
		t.Errorf("attempts used incremented %d times, want 1", env.attempts.usage[env.attemptID])
	}
}

func TestResubmissionReconciliation(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	qs := env.questions
	session := env.start(t)

	// Incorrect first: grade stays 0.
	res := env.submit(t, session.ID, qs[1].ID, "999")
	if res.Grade != 0 || res.GradeDelta != 0 {
		t.Fatalf("incorrect first: grade=%v delta=%v", res.Grade, res.GradeDelta)
	}
	if res.AnsweredCount != 1 {
		t.Fatalf("incorrect answer still counts as answered, got %d", res.AnsweredCount)
	}

	// Corrected: +10.
	res = env.submit(t, session.ID, qs[1].ID, "10.5")
	if res.Grade != 10 || res.GradeDelta != 10 {
		t.Fatalf("correction: grade=%v delta=%v", res.Grade, res.GradeDelta)
	}

	// Same correct value again: no movement.
	res = env.submit(t, session.ID, qs[1].ID, "9.5")
	if res.Grade != 10 || res.GradeDelta != 0 {
		t.Fatalf("repeat correct: grade=%v delta=%v", res.Grade, res.GradeDelta)
	}

	// Broken again: -10.
	res = env.submit(t, session.ID, qs[1].ID, "not a number")
	if res.Grade != 0 || res.GradeDelta != -10 {
		t.Fatalf("regression: grade=%v delta=%v", res.Grade, res.GradeDelta)
	}

	// Still exactly one answer row for the pair.
	if res.AnsweredCount != 1 {
		t.Errorf("resubmissions multiplied answer rows: %d", res.AnsweredCount)
	}
}

func TestSubmitRejectsForeignQuestion(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	session := env.start(t)

	// A question that exists nowhere at all is not found.
	_, err := env.svc.SubmitAnswer(context.Background(), session.ID, testStudentID, false,
		&model.SubmitAnswerRequest{QuestionID: uuid.New(), Value: "a"})
	if err != ErrQuestionNotFound {
		t.Errorf("nonexistent question: got %v, want ErrQuestionNotFound", err)
	}

	// A question that belongs to another exam is a bad input, not a 404.
	otherExamID := uuid.New()
	foreign := model.Question{ID: uuid.New(), ExamID: otherExamID, QuestionType: model.QuestionTypeMultipleChoice, CorrectText: "a", Marks: 1, OrderNum: 1}
	env.questionStore.byExam[otherExamID] = []model.Question{foreign}

	_, err = env.svc.SubmitAnswer(context.Background(), session.ID, testStudentID, false,
		&model.SubmitAnswerRequest{QuestionID: foreign.ID, Value: "a"})
	if err != ErrQuestionNotInExam {
		t.Errorf("other exam's question: got %v, want ErrQuestionNotInExam", err)
	}
}

func TestSubmitAfterFinalizeConflicts(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	session := env.start(t)

	if _, err := env.svc.Finalize(context.Background(), session.ID, testStudentID, false); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	_, err := env.svc.SubmitAnswer(context.Background(), session.ID, testStudentID, false,
		&model.SubmitAnswerRequest{QuestionID: env.questions[0].ID, Value: "a"})
	if err != ErrSessionFinalized {
		t.Errorf("got %v, want ErrSessionFinalized", err)
	}
}

// ─── Finalize ───────────────────────────────────────────────────────────────

func TestFinalizeIdempotent(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	session := env.start(t)

	if _, err := env.svc.Finalize(context.Background(), session.ID, testStudentID, false); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if _, err := env.svc.Finalize(context.Background(), session.ID, testStudentID, false); err != ErrSessionFinalized {
		t.Fatalf("second finalize: got %v, want ErrSessionFinalized", err)
	}
	if env.attempts.usage[env.attemptID] != 1 {
		t.Errorf("attempts used incremented %d times, want 1", env.attempts.usage[env.attemptID])
	}
}

func TestFinalizeAllowsRestartWithinQuota(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())

	first := env.start(t)
	if _, err := env.svc.Finalize(context.Background(), first.ID, testStudentID, false); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// MaxAttempts is 2, so a fresh session can open.
	second := env.start(t)
	if second.ID == first.ID {
		t.Fatal("start after finalize returned the finalized session")
	}

	if _, err := env.svc.Finalize(context.Background(), second.ID, testStudentID, false); err != nil {
		t.Fatalf("finalize second: %v", err)
	}
	if _, err := env.svc.Start(context.Background(), env.attemptID, testStudentID, false); err != ErrNotEligible {
		t.Errorf("third start: got %v, want ErrNotEligible", err)
	}
}

// ─── Clock transitions ──────────────────────────────────────────────────────

func TestRunStartRunPauseAccumulatesElapsed(t *testing.T) {
	env := newTestEnv(t, 30, threeQuestions())
	session := env.start(t)

	started, err := env.svc.RunStart(context.Background(), session.ID, testStudentID, false)
	if err != nil {
		t.Fatalf("RunStart: %v", err)
	}
	if !started.Running || started.RunStartedAt == nil {
		t.Fatal("RunStart did not mark the session running")
	}

	// A second run-start (channel reconnect) changes nothing.
	again, err := env.svc.RunStart(context.Background(), session.ID, testStudentID, false)
	if err != nil {
		t.Fatalf("repeat RunStart: %v", err)
	}
	if !again.RunStartedAt.Equal(*started.RunStartedAt) {
		t.Error("repeat RunStart moved the run start timestamp")
	}

	env.now = env.now.Add(90 * time.Second)
	paused, err := env.svc.RunPause(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("RunPause: %v", err)
	}
	if paused.Running || paused.ElapsedSeconds != 90 {
		t.Fatalf("after pause: running=%v elapsed=%d, want stopped at 90", paused.Running, paused.ElapsedSeconds)
	}

	// Pausing a paused session is a no-op.
	paused, err = env.svc.RunPause(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("repeat RunPause: %v", err)
	}
	if paused.ElapsedSeconds != 90 {
		t.Errorf("repeat pause changed elapsed to %d", paused.ElapsedSeconds)
	}

	// Second run: another 30 seconds.
	if _, err := env.svc.RunStart(context.Background(), session.ID, testStudentID, false); err != nil {
		t.Fatalf("second RunStart: %v", err)
	}
	env.now = env.now.Add(30 * time.Second)
	paused, err = env.svc.RunPause(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("second RunPause: %v", err)
	}
	if paused.ElapsedSeconds != 120 {
		t.Errorf("elapsed %d, want 120", paused.ElapsedSeconds)
	}

	remaining, err := env.svc.RemainingTime(context.Background(), session.ID, testStudentID, false)
	if err != nil {
		t.Fatalf("RemainingTime: %v", err)
	}
	if remaining == nil || *remaining != 30*60-120 {
		t.Errorf("remaining %v, want %d", remaining, 30*60-120)
	}
}

func TestExpiredSubmissionAutoFinalizes(t *testing.T) {
	env := newTestEnv(t, 10, threeQuestions())
	session := env.start(t)

	if _, err := env.svc.RunStart(context.Background(), session.ID, testStudentID, false); err != nil {
		t.Fatalf("RunStart: %v", err)
	}
	env.now = env.now.Add(11 * time.Minute)

	_, err := env.svc.SubmitAnswer(context.Background(), session.ID, testStudentID, false,
		&model.SubmitAnswerRequest{QuestionID: env.questions[0].ID, Value: "a"})
	if err != ErrSessionFinalized {
		t.Fatalf("got %v, want ErrSessionFinalized", err)
	}

	stored, _ := env.sessions.GetByID(context.Background(), session.ID)
	if !stored.Finalized() {
		t.Error("expired session was not finalized")
	}
	if stored.Grade != 0 {
		t.Errorf("rejected submission still moved the grade to %v", stored.Grade)
	}
	if env.attempts.usage[env.attemptID] != 1 {
		t.Errorf("attempts used incremented %d times, want 1", env.attempts.usage[env.attemptID])
	}
}

func TestExpireOverdueSweep(t *testing.T) {
	env := newTestEnv(t, 10, threeQuestions())
	session := env.start(t)

	if _, err := env.svc.RunStart(context.Background(), session.ID, testStudentID, false); err != nil {
		t.Fatalf("RunStart: %v", err)
	}

	// Clock not yet out: the sweep leaves the session alone.
	env.now = env.now.Add(5 * time.Minute)
	n, err := env.svc.ExpireOverdue(context.Background(), 10)
	if err != nil || n != 0 {
		t.Fatalf("early sweep: n=%d err=%v, want 0", n, err)
	}

	env.now = env.now.Add(6 * time.Minute)
	n, err = env.svc.ExpireOverdue(context.Background(), 10)
	if err != nil || n != 1 {
		t.Fatalf("overdue sweep: n=%d err=%v, want 1", n, err)
	}

	stored, _ := env.sessions.GetByID(context.Background(), session.ID)
	if !stored.Finalized() {
		t.Error("sweep did not finalize the overdue session")
	}
	if stored.ElapsedSeconds < 10*60 {
		t.Errorf("elapsed %d, want the full run folded in", stored.ElapsedSeconds)
	}

	// Re-sweeping finds nothing and the quota stays at one.
	n, _ = env.svc.ExpireOverdue(context.Background(), 10)
	if n != 0 || env.attempts.usage[env.attemptID] != 1 {
		t.Errorf("re-sweep: n=%d usage=%d", n, env.attempts.usage[env.attemptID])
	}
}

// ─── State and bookmarks ────────────────────────────────────────────────────

func TestStateResumeView(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	qs := env.questions
	session := env.start(t)

	env.submit(t, session.ID, qs[0].ID, "a")
	env.submit(t, session.ID, qs[2].ID, "c")

	state, err := env.svc.State(context.Background(), session.ID, testStudentID, false)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.NextIndex != 1 || state.NextQuestion == nil || state.NextQuestion.ID != qs[1].ID {
		t.Errorf("resume points at index %d, want the skipped question", state.NextIndex)
	}
	if state.AnsweredCount != 2 || state.TotalQuestions != 3 || state.Completed {
		t.Errorf("counts: answered=%d total=%d completed=%v", state.AnsweredCount, state.TotalQuestions, state.Completed)
	}
	if state.RemainingSeconds != nil {
		t.Errorf("untimed exam reported remaining %d", *state.RemainingSeconds)
	}
}

func TestToggleBookmark(t *testing.T) {
	env := newTestEnv(t, 0, threeQuestions())
	qs := env.questions
	session := env.start(t)

	marks, err := env.svc.ToggleBookmark(context.Background(), session.ID, testStudentID, false, qs[1].ID)
	if err != nil {
		t.Fatalf("ToggleBookmark: %v", err)
	}
	if len(marks) != 1 || marks[0] != qs[1].ID {
		t.Fatalf("bookmarks after add: %v", marks)
	}

	marks, err = env.svc.ToggleBookmark(context.Background(), session.ID, testStudentID, false, qs[1].ID)
	if err != nil {
		t.Fatalf("ToggleBookmark remove: %v", err)
	}
	if len(marks) != 0 {
		t.Fatalf("bookmarks after remove: %v", marks)
	}

	if _, err := env.svc.ToggleBookmark(context.Background(), session.ID, testStudentID, false, uuid.New()); err != ErrQuestionNotFound {
		t.Errorf("nonexistent question: got %v, want ErrQuestionNotFound", err)
	}

	otherExamID := uuid.New()
	foreign := model.Question{ID: uuid.New(), ExamID: otherExamID, QuestionType: model.QuestionTypeMultipleChoice, CorrectText: "a", Marks: 1, OrderNum: 1}
	env.questionStore.byExam[otherExamID] = []model.Question{foreign}

	if _, err := env.svc.ToggleBookmark(context.Background(), session.ID, testStudentID, false, foreign.ID); err != ErrQuestionNotInExam {
		t.Errorf("other exam's question: got %v, want ErrQuestionNotInExam", err)
	}
}
