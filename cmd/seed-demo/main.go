package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/veritest/veritest-backend/internal/config"
	"github.com/veritest/veritest-backend/internal/database"
	"github.com/veritest/veritest-backend/internal/logger"
	"github.com/veritest/veritest-backend/internal/model"
	"github.com/veritest/veritest-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds one demo student, one timed exam with a mixed question set, and an
// open attempt so the full session flow can be exercised locally.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Student ───────────────────────────────────────────────────────
	student, err := studentRepo.GetByUsername(ctx, "demo")
	if err == pgx.ErrNoRows {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		student = &model.Student{
			Username:     "demo",
			Name:         "Demo Student",
			PasswordHash: string(hash),
		}
		if err := studentRepo.Create(ctx, student); err != nil {
			log.Fatal().Err(err).Msg("Failed to create student")
		}
		fmt.Printf("Created student 'demo' (password: demo1234) with ID: %d\n", student.ID)
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to look up student")
	} else {
		fmt.Printf("Student 'demo' already exists with ID: %d\n", student.ID)
	}

	// ─── Exam + Questions ──────────────────────────────────────────────
	exam := &model.Exam{
		Title:           "Demo Assessment",
		DurationMinutes: 30,
		Status:          model.ExamStatusActive,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam '%s' with ID: %s\n", exam.Title, exam.ID)

	options, _ := json.Marshal([]map[string]string{
		{"label": "a", "text": "Jakarta"},
		{"label": "b", "text": "Bandung"},
		{"label": "c", "text": "Surabaya"},
		{"label": "d", "text": "Medan"},
	})
	tolerance := 0.5
	answer := 9.8

	questions := []*model.Question{
		{
			ExamID:       exam.ID,
			QuestionText: "What is the capital of Indonesia?",
			QuestionType: model.QuestionTypeMultipleChoice,
			Options:      options,
			CorrectText:  "a",
			Marks:        5,
			OrderNum:     1,
		},
		{
			ExamID:         exam.ID,
			QuestionText:   "Gravitational acceleration on Earth, in m/s²?",
			QuestionType:   model.QuestionTypeNumeric,
			CorrectValue:   &answer,
			ToleranceAbove: tolerance,
			ToleranceBelow: tolerance,
			Marks:          10,
			OrderNum:       2,
		},
		{
			ExamID:       exam.ID,
			QuestionText: "Which option is a prime number? (a) 21 (b) 27 (c) 31 (d) 33",
			QuestionType: model.QuestionTypeMultipleChoice,
			CorrectText:  "c",
			Marks:        5,
			OrderNum:     3,
		},
	}
	for _, q := range questions {
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}
	fmt.Printf("Created %d questions\n", len(questions))

	// ─── Attempt ───────────────────────────────────────────────────────
	attempt := &model.Attempt{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		OpensAt:     time.Now().Add(-time.Hour),
		ClosesAt:    time.Now().Add(7 * 24 * time.Hour),
		MaxAttempts: 3,
		Enabled:     true,
		AllowReview: true,
	}
	if err := attemptRepo.Create(ctx, attempt); err != nil {
		log.Fatal().Err(err).Msg("Failed to create attempt")
	}
	fmt.Printf("Created attempt with ID: %s (3 tries, closes in 7 days)\n", attempt.ID)

	fmt.Println("Done.")
}
