package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veritest/veritest-backend/internal/middleware"
	"github.com/veritest/veritest-backend/internal/model"
	"github.com/veritest/veritest-backend/internal/response"
	"github.com/veritest/veritest-backend/internal/service"
	"github.com/veritest/veritest-backend/internal/validator"
)

// SessionHandler handles student-facing session endpoints: opening a
// session for an attempt, answering, the countdown, and finalization.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ─── Session Lifecycle ───────────────────────────────────────────────────────

// Start godoc
// POST /api/v1/student/attempts/:attempt_id/sessions
// Opens a session for the attempt. Idempotent: if the student already has
// an open session for this attempt, that session is returned instead.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), attemptID, claims.UserID, claims.IsOperator())
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// GetState godoc
// GET /api/v1/student/sessions/:session_id
// Returns the resume view: the session, the next unanswered question with
// its original position, progress counters, and the remaining time.
func (h *SessionHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Resume godoc
// POST /api/v1/student/sessions/:session_id/resume
// Restarts the session clock over HTTP for clients without a live channel
// and returns the recomputed resume view: the next unanswered question,
// progress counters, and the remaining time.
func (h *SessionHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.sessionService.RunStart(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator()); err != nil {
		failDomain(c, err)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Finalize godoc
// POST /api/v1/student/sessions/:session_id/finalize
// Closes the session and locks its grade. Finalizing twice is a conflict.
func (h *SessionHandler) Finalize(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.Finalize(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ─── Answers ─────────────────────────────────────────────────────────────────

// SubmitAnswer godoc
// POST /api/v1/student/sessions/:session_id/answers
// Grades and records an answer, returns the updated grade and the next
// unanswered question. Resubmitting a question replaces the prior answer.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator(), &req)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ─── Clock ───────────────────────────────────────────────────────────────────

// GetRemainingTime godoc
// GET /api/v1/student/sessions/:session_id/time
// Returns the remaining seconds. Null for untimed exams, zero once finalized.
func (h *SessionHandler) GetRemainingTime(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	remaining, err := h.sessionService.RemainingTime(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator())
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"remaining_seconds": remaining})
}

// ─── Bookmarks ───────────────────────────────────────────────────────────────

// ToggleBookmark godoc
// POST /api/v1/student/sessions/:session_id/bookmarks/:question_id
// Flags or unflags a question for later review within the session.
func (h *SessionHandler) ToggleBookmark(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	bookmarks, err := h.sessionService.ToggleBookmark(c.Request.Context(), sessionID, claims.UserID, claims.IsOperator(), questionID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookmarks": bookmarks})
}
