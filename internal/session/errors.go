package session

import (
	"errors"
	"fmt"
)

var (
	ErrNoAnswer           = errors.New("no answer given")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrSubmissionInFlight = errors.New("an answer is being submitted")
	ErrSessionClosed      = errors.New("session is no longer accepting answers")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrCannotSkip         = errors.New("question cannot be skipped")
	ErrIndexOutOfRange    = errors.New("question index out of range")
	ErrNothingToRetry     = errors.New("no failed completion to retry")
	ErrCompletionInFlight = errors.New("completion request in flight")
)

// SubmitError is a failed answer submission. Nothing changed locally, so a
// Retryable error can be submitted again as is.
type SubmitError struct {
	QuestionID uint
	Retryable  bool
	Err        error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit answer for question %d: %v", e.QuestionID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
