package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Phase is where the session is in completing its attempt.
type Phase int

const (
	PhaseInProgress Phase = iota
	PhaseCompleting
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleting:
		return "completing"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

// Trigger is what started completion.
type Trigger int

const (
	TriggerLastAnswer Trigger = iota + 1
	TriggerExpired
)

func (t Trigger) String() string {
	switch t {
	case TriggerLastAnswer:
		return "last_answer"
	case TriggerExpired:
		return "expired"
	}
	return "none"
}

// Listener receives completion outcomes. Callbacks may run on the countdown
// goroutine.
type Listener interface {
	OnCompleted(attemptID string)
	OnCompletionFailed(err error)
}

type nopListener struct{}

func (nopListener) OnCompleted(string)        {}
func (nopListener) OnCompletionFailed(error) {}

// beginCompletion moves in_progress to completing and sends the completion
// request. Only the first trigger wins; later ones return false.
func (s *Session) beginCompletion(ctx context.Context, t Trigger) bool {
	s.mu.Lock()
	if phase := s.phase; phase != PhaseInProgress {
		s.mu.Unlock()
		log.Debug().Str("attemptID", s.attemptID).Stringer("trigger", t).Stringer("phase", phase).Msg("Completion already started")
		return false
	}
	s.phase = PhaseCompleting
	s.trigger = t
	s.mu.Unlock()

	log.Info().Str("attemptID", s.attemptID).Stringer("trigger", t).Msg("Completing attempt")
	_ = s.sendCompletion(ctx)
	return true
}

// RetryCompletion resends a completion request that failed.
func (s *Session) RetryCompletion(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.phase == PhaseCompleted:
		s.mu.Unlock()
		return nil
	case s.phase != PhaseCompleting || s.completionErr == nil:
		s.mu.Unlock()
		return ErrNothingToRetry
	case s.completing:
		s.mu.Unlock()
		return ErrCompletionInFlight
	}
	s.mu.Unlock()
	return s.sendCompletion(ctx)
}

func (s *Session) sendCompletion(ctx context.Context) error {
	s.mu.Lock()
	if s.completing {
		s.mu.Unlock()
		return ErrCompletionInFlight
	}
	s.completing = true
	s.completionErr = nil
	s.mu.Unlock()

	resp, err := s.api.CompleteAttempt(ctx, s.attemptID)

	s.mu.Lock()
	s.completing = false
	if err != nil {
		s.completionErr = err
		s.mu.Unlock()
		log.Warn().Err(err).Str("attemptID", s.attemptID).Msg("Completion request failed")
		s.listener.OnCompletionFailed(err)
		return err
	}
	s.phase = PhaseCompleted
	s.mu.Unlock()

	s.countdown.Stop()
	if _, rerr := s.mirror.Refresh(ctx); rerr != nil && !errors.Is(rerr, ErrSessionInvalid) {
		log.Debug().Err(rerr).Str("attemptID", s.attemptID).Msg("Refresh after completion failed")
	}

	id := resp.AttemptID
	if id == "" {
		id = s.attemptID
	}
	log.Info().Str("attemptID", id).Msg("Attempt completed")
	s.listener.OnCompleted(id)
	return nil
}

// CompletionError is the error of the last failed completion request, if any.
func (s *Session) CompletionError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completionErr
}

func (s *Session) Trigger() Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger
}
