package service

import "errors"

var (
	ErrTestNotFound        = errors.New("placement test not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptExpired      = errors.New("attempt expired")
	ErrAttemptClosed       = errors.New("attempt is no longer accepting answers")
	ErrAttemptNotCompleted = errors.New("attempt is not completed yet")
	ErrQuestionNotFound    = errors.New("question does not belong to this attempt")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrInvalidAnswer       = errors.New("answer is not one of the question options")
	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrScoreOutOfRange     = errors.New("score out of range")
)
