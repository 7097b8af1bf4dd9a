package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lshigami/placement/internal/client"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Listener Listener
	// OnTick receives countdown updates.
	OnTick       func(Tick)
	TickInterval time.Duration
	Now          func() time.Time
}

// Session drives one timed attempt: it submits answers one at a time, keeps
// the current question pointer and completes the attempt exactly once.
type Session struct {
	api       AttemptAPI
	attemptID string
	mirror    *Mirror
	countdown *Countdown
	listener  Listener
	now       func() time.Time

	mu            sync.Mutex
	ctx           context.Context
	current       int
	shownAt       time.Time
	inflight      bool
	phase         Phase
	trigger       Trigger
	completing    bool
	completionErr error
}

// Open loads the attempt and positions on its first unanswered question. An
// attempt the server already completed cannot be reopened.
func Open(ctx context.Context, api AttemptAPI, attemptID string, opts Options) (*Session, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Listener == nil {
		opts.Listener = nopListener{}
	}

	mirror := NewMirror(api, attemptID)
	st, err := mirror.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if st.Attempt.Status == string(model.AttemptCompleted) {
		return nil, mirror.invalidate(errors.New("attempt already completed"))
	}

	s := &Session{
		api:       api,
		attemptID: attemptID,
		mirror:    mirror,
		listener:  opts.Listener,
		now:       opts.Now,
		ctx:       context.Background(),
	}
	if i := nextUnanswered(st, -1); i >= 0 {
		s.current = i
	}
	s.shownAt = s.now()
	s.countdown = NewCountdown(CountdownConfig{
		ExpiresAt: st.Attempt.ExpiresAt,
		Total:     time.Duration(st.Test.DurationMinutes) * time.Minute,
		Interval:  opts.TickInterval,
		Now:       opts.Now,
		OnTick:    opts.OnTick,
		OnExpire:  s.expire,
	})
	return s, nil
}

// Start runs the countdown. If time is already up, or every question is
// already answered, completion begins before Start returns.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.countdown.Start(ctx)
	if nextUnanswered(s.mirror.State(), -1) < 0 {
		s.beginCompletion(ctx, TriggerLastAnswer)
	}
}

func (s *Session) expire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	log.Info().Str("attemptID", s.attemptID).Msg("Time is up")
	s.beginCompletion(ctx, TriggerExpired)
}

// Close stops the countdown.
func (s *Session) Close() {
	s.countdown.Stop()
}

func (s *Session) AttemptID() string     { return s.attemptID }
func (s *Session) Countdown() *Countdown { return s.countdown }
func (s *Session) State() State          { return s.mirror.State() }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Busy reports whether an answer submission is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// Current returns the index and contents of the question being shown.
func (s *Session) Current() (int, dto.AttemptQuestionDTO) {
	s.mu.Lock()
	i := s.current
	s.mu.Unlock()
	st := s.mirror.State()
	return i, st.Questions[i]
}

func (s *Session) Navigator() Navigator {
	s.mu.Lock()
	i := s.current
	s.mu.Unlock()
	return BuildNavigator(s.mirror.State(), i)
}

// Submit sends answer for the current question. The pointer moves only after
// the server accepted it and the mirror was refetched.
func (s *Session) Submit(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrNoAnswer
	}

	s.mu.Lock()
	if err := s.mirror.Invalid(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.phase != PhaseInProgress {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.inflight {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	idx := s.current
	q := s.mirror.State().Questions[idx]
	if q.IsAnswered {
		s.mu.Unlock()
		return ErrAlreadyAnswered
	}
	spent := int(s.now().Sub(s.shownAt) / time.Second)
	if spent < 0 {
		spent = 0
	}
	s.inflight = true
	s.mu.Unlock()

	resp, err := s.api.SubmitAnswer(ctx, s.attemptID, dto.SubmitAnswerRequest{
		TestQuestionID:   q.ID,
		UserAnswer:       answer,
		TimeSpentSeconds: spent,
	})
	if err != nil {
		return s.submitFailed(q.ID, err)
	}
	log.Debug().Str("attemptID", s.attemptID).Uint("questionID", q.ID).Float64("progress", resp.Progress.Percentage).Msg("Answer accepted")

	st, rerr := s.mirror.Refresh(ctx)

	s.mu.Lock()
	s.inflight = false
	s.mu.Unlock()
	if rerr != nil {
		return fmt.Errorf("answer saved, reload failed: %w", rerr)
	}
	s.settle(ctx, st)
	return nil
}

// settle moves off an answered current question after a refetch, or starts
// completion once the server reports every question answered.
func (s *Session) settle(ctx context.Context, st State) {
	s.mu.Lock()
	if s.phase != PhaseInProgress || len(st.Questions) == 0 {
		s.mu.Unlock()
		return
	}
	if s.current >= len(st.Questions) {
		s.current = len(st.Questions) - 1
	}
	if !st.Questions[s.current].IsAnswered {
		s.mu.Unlock()
		return
	}
	next := nextUnanswered(st, s.current)
	if next >= 0 {
		s.current = next
		s.shownAt = s.now()
	}
	s.mu.Unlock()

	if next < 0 {
		s.beginCompletion(ctx, TriggerLastAnswer)
	}
}

func (s *Session) submitFailed(questionID uint, err error) error {
	s.mu.Lock()
	s.inflight = false
	phase := s.phase
	s.mu.Unlock()

	if phase != PhaseInProgress {
		// Completion already started; the answer no longer matters.
		log.Debug().Err(err).Str("attemptID", s.attemptID).Msg("Submission lost the race with completion")
		return ErrSessionClosed
	}
	if errors.Is(err, client.ErrAttemptNotFound) || errors.Is(err, client.ErrAttemptExpired) {
		return s.mirror.invalidate(err)
	}
	log.Warn().Err(err).Str("attemptID", s.attemptID).Uint("questionID", questionID).Msg("Answer submission failed")
	return &SubmitError{
		QuestionID: questionID,
		Retryable:  !errors.Is(err, client.ErrConflict) && !errors.Is(err, client.ErrBadRequest),
		Err:        err,
	}
}

// Skip moves to the next question without answering. It is refused on the
// last question and on answered ones.
func (s *Session) Skip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrSessionClosed
	}
	if s.inflight {
		return ErrSubmissionInFlight
	}
	st := s.mirror.State()
	if s.current >= len(st.Questions)-1 || st.Questions[s.current].IsAnswered {
		return ErrCannotSkip
	}
	s.current++
	s.shownAt = s.now()
	return nil
}

// GoTo jumps to question i (zero based).
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrSessionClosed
	}
	if s.inflight {
		return ErrSubmissionInFlight
	}
	if i < 0 || i >= len(s.mirror.State().Questions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i+1)
	}
	if i != s.current {
		s.current = i
		s.shownAt = s.now()
	}
	return nil
}

// Refresh refetches the attempt outside of a submission.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return ErrSubmissionInFlight
	}
	s.mu.Unlock()
	st, err := s.mirror.Refresh(ctx)
	if err != nil {
		return err
	}
	s.settle(ctx, st)
	return nil
}

// nextUnanswered scans forward from after, wrapping around, and returns the
// first unanswered question or -1.
func nextUnanswered(st State, after int) int {
	n := len(st.Questions)
	for k := 1; k <= n; k++ {
		i := (after + k) % n
		if i < 0 {
			i += n
		}
		if !st.Questions[i].IsAnswered {
			return i
		}
	}
	return -1
}
