package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lshigami/placement/internal/client"
	"github.com/lshigami/placement/internal/dto"
)

// State is the server's view of an attempt as last fetched.
type State = dto.AttemptStateResponse

// AttemptAPI is the part of the placement API a session needs.
type AttemptAPI interface {
	GetAttempt(ctx context.Context, attemptID string) (*dto.AttemptStateResponse, error)
	SubmitAnswer(ctx context.Context, attemptID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	CompleteAttempt(ctx context.Context, attemptID string) (*dto.CompleteAttemptResponse, error)
}

// Mirror holds the last attempt state the server returned. It is only ever
// replaced wholesale by Refresh.
type Mirror struct {
	api       AttemptAPI
	attemptID string

	mu      sync.RWMutex
	state   State
	invalid error
}

func NewMirror(api AttemptAPI, attemptID string) *Mirror {
	return &Mirror{api: api, attemptID: attemptID}
}

// Refresh refetches the attempt. A missing or expired attempt makes the mirror
// permanently invalid; other failures keep the previous snapshot.
func (m *Mirror) Refresh(ctx context.Context) (State, error) {
	if err := m.Invalid(); err != nil {
		return State{}, err
	}
	resp, err := m.api.GetAttempt(ctx, m.attemptID)
	if err != nil {
		if errors.Is(err, client.ErrAttemptNotFound) || errors.Is(err, client.ErrAttemptExpired) {
			return State{}, m.invalidate(err)
		}
		return State{}, fmt.Errorf("refresh attempt %s: %w", m.attemptID, err)
	}
	if len(resp.Questions) == 0 {
		return State{}, m.invalidate(errors.New("attempt has no questions"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = cloneState(*resp)
	return cloneState(m.state), nil
}

// State returns a copy of the current snapshot.
func (m *Mirror) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneState(m.state)
}

// Invalid returns a non-nil error wrapping ErrSessionInvalid once the attempt
// can no longer be used.
func (m *Mirror) Invalid() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.invalid
}

func (m *Mirror) invalidate(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.invalid == nil {
		m.invalid = fmt.Errorf("%w: %w", ErrSessionInvalid, cause)
	}
	return m.invalid
}

func cloneState(s State) State {
	out := s
	out.Questions = make([]dto.AttemptQuestionDTO, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		if q.UserAnswer != nil {
			a := *q.UserAnswer
			q.UserAnswer = &a
		}
		out.Questions[i] = q
	}
	return out
}
