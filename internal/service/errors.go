package service

import "errors"

// Domain errors surfaced by the session core. Handlers map these onto
// response codes; everything else is treated as internal.
var (
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrNotOwner          = errors.New("caller does not own this attempt")
	ErrNotEligible       = errors.New("attempt is not eligible: outside window, disabled, or out of tries")
	ErrSessionFinalized  = errors.New("session already submitted")
	ErrQuestionNotInExam = errors.New("question is not part of the session's exam")
)
