package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/placement/internal/client"
	"github.com/lshigami/placement/internal/dto"
)

const testAttemptID = "7f0c1f7e-2a43-4c55-9a57-4b3f1d0f7a10"

// fakeAPI plays the server: it owns the attempt and answers like the real API.
type fakeAPI struct {
	mu    sync.Mutex
	state dto.AttemptStateResponse

	getErr      error
	submitErr   error
	// getFailures makes the next n GetAttempt calls fail with a network error.
	getFailures int
	completeErr error
	// acceptAfterComplete makes a late submission succeed instead of 409.
	acceptAfterComplete bool

	submitStarted chan struct{}
	submitRelease chan struct{}

	submits       []dto.SubmitAnswerRequest
	completeCalls int
}

func newFakeAPI(n int, expiresAt time.Time) *fakeAPI {
	st := dto.AttemptStateResponse{
		Attempt: dto.AttemptDTO{ID: testAttemptID, TestID: 1, ExpiresAt: expiresAt, Status: "in_progress"},
		Test:    dto.AttemptTestDTO{Title: "General English", DurationMinutes: 10, TotalQuestions: n},
	}
	for i := 0; i < n; i++ {
		q := dto.AttemptQuestionDTO{ID: uint(100 + i), Question: fmt.Sprintf("Question %d", i+1)}
		switch i % 3 {
		case 0:
			q.Type = "multiple_choice"
			q.Options = []string{"a", "b", "c"}
		case 1:
			q.Type = "true_false"
			q.Options = []string{"True", "False"}
		default:
			q.Type = "free_text"
		}
		st.Questions = append(st.Questions, q)
	}
	st.Progress = dto.ProgressDTO{Total: n}
	return &fakeAPI{state: st}
}

func (f *fakeAPI) GetAttempt(ctx context.Context, attemptID string) (*dto.AttemptStateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getFailures > 0 {
		f.getFailures--
		return nil, errors.New("read tcp: connection reset by peer")
	}
	st := cloneState(f.state)
	return &st, nil
}

func (f *fakeAPI) SubmitAnswer(ctx context.Context, attemptID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	f.mu.Lock()
	started, release := f.submitStarted, f.submitRelease
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.state.Attempt.Status == "completed" && !f.acceptAfterComplete {
		return nil, fmt.Errorf("submit: %w", client.ErrConflict)
	}
	for i := range f.state.Questions {
		q := &f.state.Questions[i]
		if q.ID != req.TestQuestionID {
			continue
		}
		if q.IsAnswered {
			return nil, fmt.Errorf("submit: %w", client.ErrConflict)
		}
		answer := req.UserAnswer
		q.IsAnswered = true
		q.UserAnswer = &answer
		f.state.Progress.Answered++
		f.state.Progress.Percentage = float64(f.state.Progress.Answered) / float64(len(f.state.Questions)) * 100
		return &dto.SubmitAnswerResponse{QuestionID: q.ID, IsAnswered: true, Progress: f.state.Progress}, nil
	}
	return nil, fmt.Errorf("submit: %w", client.ErrAttemptNotFound)
}

func (f *fakeAPI) CompleteAttempt(ctx context.Context, attemptID string) (*dto.CompleteAttemptResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.state.Attempt.Status = "completed"
	return &dto.CompleteAttemptResponse{AttemptID: attemptID}, nil
}

func (f *fakeAPI) completions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeCalls
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type recordingListener struct {
	completed chan string
	mu        sync.Mutex
	failures  []error
}

func newRecordingListener() *recordingListener {
	return &recordingListener{completed: make(chan string, 4)}
}

func (l *recordingListener) OnCompleted(id string) { l.completed <- id }

func (l *recordingListener) OnCompletionFailed(err error) {
	l.mu.Lock()
	l.failures = append(l.failures, err)
	l.mu.Unlock()
}

func (l *recordingListener) failureCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

func openSession(t *testing.T, api *fakeAPI, clock *fakeClock, l Listener) *Session {
	t.Helper()
	s, err := Open(context.Background(), api, testAttemptID, Options{
		Listener:     l,
		TickInterval: time.Millisecond,
		Now:          clock.Now,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func currentIndex(s *Session) int {
	i, _ := s.Current()
	return i
}

func TestSubmitAdvancesAfterServerAck(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)
	s.Start(context.Background())

	clock.Advance(12 * time.Second)
	if err := s.Submit(context.Background(), "  b "); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got := currentIndex(s); got != 1 {
		t.Fatalf("current = %d, want 1", got)
	}
	st := s.State()
	if !st.Questions[0].IsAnswered || *st.Questions[0].UserAnswer != "b" {
		t.Fatalf("question 1 not reported answered after refetch: %+v", st.Questions[0])
	}
	for j := 1; j < len(st.Questions); j++ {
		if st.Questions[j].IsAnswered {
			t.Fatalf("question %d changed by submitting question 1", j+1)
		}
	}
	if len(api.submits) != 1 || api.submits[0].TestQuestionID != 100 || api.submits[0].TimeSpentSeconds != 12 {
		t.Fatalf("unexpected submit payload %+v", api.submits)
	}
	if st.Progress.Answered != 1 {
		t.Fatalf("progress not refreshed: %+v", st.Progress)
	}
}

func TestSubmitBlankAnswerIsLocal(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	if err := s.Submit(context.Background(), "   "); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("err = %v, want ErrNoAnswer", err)
	}
	if len(api.submits) != 0 {
		t.Fatal("blank answer reached the server")
	}
}

func TestSubmitFailureLeavesStateUnchanged(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)
	s.Start(context.Background())

	api.set(func(f *fakeAPI) { f.submitErr = errors.New("connection reset by peer") })
	err := s.Submit(context.Background(), "a")

	var subErr *SubmitError
	if !errors.As(err, &subErr) || !subErr.Retryable {
		t.Fatalf("err = %v, want retryable SubmitError", err)
	}
	if got := currentIndex(s); got != 0 {
		t.Fatalf("pointer moved to %d after failure", got)
	}
	if s.State().Questions[0].IsAnswered {
		t.Fatal("question marked answered after a failed submission")
	}

	api.set(func(f *fakeAPI) { f.submitErr = nil })
	if err := s.Submit(context.Background(), "a"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !s.State().Questions[0].IsAnswered {
		t.Fatal("retry did not record the answer")
	}
}

func TestSubmitConflictIsNotRetryable(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	api.set(func(f *fakeAPI) { f.submitErr = fmt.Errorf("api: %w", client.ErrConflict) })
	var subErr *SubmitError
	if err := s.Submit(context.Background(), "a"); !errors.As(err, &subErr) || subErr.Retryable {
		t.Fatalf("err = %v, want non-retryable SubmitError", err)
	}
}

func TestSubmitOnAnsweredQuestionIsBlocked(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	if err := s.Submit(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.GoTo(0); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(context.Background(), "b"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("err = %v, want ErrAlreadyAnswered", err)
	}
	if len(api.submits) != 1 {
		t.Fatalf("server saw %d submissions", len(api.submits))
	}
}

func TestSubmissionInFlightBlocksInteraction(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	started, release := make(chan struct{}, 1), make(chan struct{})
	api.set(func(f *fakeAPI) { f.submitStarted, f.submitRelease = started, release })
	s := openSession(t, api, clock, nil)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "a") }()
	<-started

	api.set(func(f *fakeAPI) { f.submitStarted, f.submitRelease = nil, nil })
	if err := s.Submit(context.Background(), "a"); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("second submit err = %v", err)
	}
	if err := s.Skip(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("skip err = %v", err)
	}
	if err := s.GoTo(2); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("goto err = %v", err)
	}
	if !s.Busy() {
		t.Fatal("session not busy during submission")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if len(api.submits) != 1 {
		t.Fatalf("server saw %d submissions", len(api.submits))
	}
}

func TestSkipRules(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	if err := s.Skip(); err != nil {
		t.Fatalf("skip first question: %v", err)
	}
	if got := currentIndex(s); got != 1 {
		t.Fatalf("current = %d after skip", got)
	}
	if s.State().Questions[0].IsAnswered {
		t.Fatal("skip marked the question answered")
	}
	if len(api.submits) != 0 {
		t.Fatal("skip reached the server")
	}

	if err := s.GoTo(2); err != nil {
		t.Fatal(err)
	}
	if err := s.Skip(); !errors.Is(err, ErrCannotSkip) {
		t.Fatalf("skip on last question: %v", err)
	}

	if err := s.GoTo(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(context.Background(), "True"); err != nil {
		t.Fatal(err)
	}
	if err := s.GoTo(1); err != nil {
		t.Fatal(err)
	}
	if err := s.Skip(); !errors.Is(err, ErrCannotSkip) {
		t.Fatalf("skip on answered question: %v", err)
	}
}

func TestGoToStaysInRange(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	for _, i := range []int{-1, 3, 10} {
		if err := s.GoTo(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("GoTo(%d) = %v", i, err)
		}
		if got := currentIndex(s); got < 0 || got >= 3 {
			t.Fatalf("current index %d out of range", got)
		}
	}
}

func TestAnsweringWrapsToSkippedQuestions(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	l := newRecordingListener()
	s := openSession(t, api, clock, l)
	s.Start(context.Background())

	if err := s.Skip(); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(context.Background(), "True"); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(context.Background(), "some text"); err != nil {
		t.Fatal(err)
	}
	if got := currentIndex(s); got != 0 {
		t.Fatalf("current = %d, want wrap to skipped question 0", got)
	}
	if api.completions() != 0 || s.Phase() != PhaseInProgress {
		t.Fatal("completed while a question was still unanswered")
	}

	if err := s.Submit(context.Background(), "c"); err != nil {
		t.Fatal(err)
	}
	if api.completions() != 1 || s.Phase() != PhaseCompleted {
		t.Fatalf("completions=%d phase=%v", api.completions(), s.Phase())
	}
	if s.Trigger() != TriggerLastAnswer {
		t.Fatalf("trigger = %v", s.Trigger())
	}
	if id := <-l.completed; id != testAttemptID {
		t.Fatalf("completed id = %q", id)
	}
}

func TestExpiryAfterFourOfFiveAnswers(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(5, clock.Now().Add(10*time.Minute))
	l := newRecordingListener()
	s := openSession(t, api, clock, l)
	s.Start(context.Background())

	for i := 0; i < 4; i++ {
		q := s.State().Questions[currentIndex(s)]
		answer := "text"
		if len(q.Options) > 0 {
			answer = q.Options[0]
		}
		if err := s.Submit(context.Background(), answer); err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		clock.Advance(time.Minute)
	}
	if got := currentIndex(s); got != 4 {
		t.Fatalf("current = %d, want 4", got)
	}

	clock.Advance(7 * time.Minute)
	select {
	case id := <-l.completed:
		if id != testAttemptID {
			t.Fatalf("results view keyed by %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expiry did not complete the attempt")
	}

	time.Sleep(20 * time.Millisecond)
	if got := api.completions(); got != 1 {
		t.Fatalf("completion requests = %d, want 1", got)
	}
	if s.Trigger() != TriggerExpired {
		t.Fatalf("trigger = %v", s.Trigger())
	}
	if err := s.Submit(context.Background(), "late"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("submit after completion: %v", err)
	}
}

func TestExpiryDuringFinalSubmissionCompletesOnce(t *testing.T) {
	for _, accept := range []bool{false, true} {
		t.Run(fmt.Sprintf("late answer accepted=%v", accept), func(t *testing.T) {
			clock := newFakeClock()
			api := newFakeAPI(1, clock.Now().Add(time.Minute))
			started, release := make(chan struct{}, 1), make(chan struct{})
			api.set(func(f *fakeAPI) {
				f.submitStarted, f.submitRelease = started, release
				f.acceptAfterComplete = accept
			})
			l := newRecordingListener()
			s := openSession(t, api, clock, l)
			s.Start(context.Background())

			done := make(chan error, 1)
			go func() { done <- s.Submit(context.Background(), "a") }()
			<-started

			clock.Advance(2 * time.Minute)
			select {
			case <-l.completed:
			case <-time.After(2 * time.Second):
				t.Fatal("expiry did not complete the attempt")
			}

			close(release)
			err := <-done
			if accept && err != nil {
				t.Fatalf("late accepted submit returned %v", err)
			}
			if !accept && !errors.Is(err, ErrSessionClosed) {
				t.Fatalf("late rejected submit returned %v, want ErrSessionClosed", err)
			}
			if got := api.completions(); got != 1 {
				t.Fatalf("completion requests = %d, want 1", got)
			}
			if s.Phase() != PhaseCompleted {
				t.Fatalf("phase = %v", s.Phase())
			}
		})
	}
}

func TestPastExpiryCompletesOnStart(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(-time.Second))
	l := newRecordingListener()
	s := openSession(t, api, clock, l)

	s.Start(context.Background())
	if got := api.completions(); got != 1 {
		t.Fatalf("completion requests = %d right after Start", got)
	}
	if s.Phase() != PhaseCompleted {
		t.Fatalf("phase = %v", s.Phase())
	}
	if id := <-l.completed; id != testAttemptID {
		t.Fatalf("completed id = %q", id)
	}
}

func TestCompletionFailureNeedsExplicitRetry(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(-time.Second))
	api.set(func(f *fakeAPI) { f.completeErr = errors.New("503 service unavailable") })
	l := newRecordingListener()
	s := openSession(t, api, clock, l)

	s.Start(context.Background())
	if s.Phase() != PhaseCompleting {
		t.Fatalf("phase = %v, want completing", s.Phase())
	}
	if s.CompletionError() == nil || l.failureCount() != 1 {
		t.Fatal("completion failure not reported")
	}
	if err := s.Submit(context.Background(), "a"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("submit while completing: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if got := api.completions(); got != 1 {
		t.Fatalf("completion retried without being asked: %d calls", got)
	}

	api.set(func(f *fakeAPI) { f.completeErr = nil })
	if err := s.RetryCompletion(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Phase() != PhaseCompleted || api.completions() != 2 {
		t.Fatalf("phase=%v calls=%d", s.Phase(), api.completions())
	}
	if err := s.RetryCompletion(context.Background()); err != nil {
		t.Fatalf("retry after completion: %v", err)
	}
}

func TestLateTriggerIsNoop(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(1, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	if err := s.Submit(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if s.beginCompletion(context.Background(), TriggerExpired) {
		t.Fatal("second trigger started another completion")
	}
	if got := api.completions(); got != 1 {
		t.Fatalf("completion requests = %d", got)
	}
}

func TestOpenRejectsUnusableAttempts(t *testing.T) {
	clock := newFakeClock()

	completed := newFakeAPI(2, clock.Now().Add(time.Minute))
	completed.state.Attempt.Status = "completed"

	missing := newFakeAPI(2, clock.Now().Add(time.Minute))
	missing.getErr = fmt.Errorf("api: %w", client.ErrAttemptNotFound)

	expired := newFakeAPI(2, clock.Now().Add(time.Minute))
	expired.getErr = fmt.Errorf("api: %w", client.ErrAttemptExpired)

	for name, api := range map[string]*fakeAPI{"completed": completed, "missing": missing, "expired": expired} {
		if _, err := Open(context.Background(), api, testAttemptID, Options{Now: clock.Now}); !errors.Is(err, ErrSessionInvalid) {
			t.Errorf("%s: err = %v, want ErrSessionInvalid", name, err)
		}
	}
}

func TestMirrorTurnsInvalidAndStays(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(time.Minute))
	m := NewMirror(api, testAttemptID)
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	api.set(func(f *fakeAPI) { f.getErr = errors.New("timeout") })
	if _, err := m.Refresh(context.Background()); err == nil || errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("transient error handled as %v", err)
	}
	if len(m.State().Questions) != 2 {
		t.Fatal("transient failure dropped the snapshot")
	}

	api.set(func(f *fakeAPI) { f.getErr = fmt.Errorf("api: %w", client.ErrAttemptExpired) })
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("err = %v", err)
	}
	api.set(func(f *fakeAPI) { f.getErr = nil })
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("mirror recovered from a terminal state: %v", err)
	}
}

func TestSubmitOnVanishedAttemptInvalidatesSession(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	api.set(func(f *fakeAPI) { f.submitErr = fmt.Errorf("api: %w", client.ErrAttemptNotFound) })
	if err := s.Submit(context.Background(), "a"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("err = %v", err)
	}
	if err := s.Submit(context.Background(), "a"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("session still accepts answers: %v", err)
	}
}

func TestReloadFailureAfterFinalAnswerCompletesOnRefresh(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(1, clock.Now().Add(10*time.Minute))
	l := newRecordingListener()
	s := openSession(t, api, clock, l)
	s.Start(context.Background())

	api.set(func(f *fakeAPI) { f.getFailures = 1 })
	err := s.Submit(context.Background(), "a")
	if err == nil {
		t.Fatal("Submit reported success although the reload failed")
	}
	var subErr *SubmitError
	if errors.As(err, &subErr) {
		t.Fatalf("accepted answer reported as a submission failure: %v", err)
	}
	if got := api.completions(); got != 0 {
		t.Fatalf("completion sent before the reload succeeded: %d", got)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	select {
	case id := <-l.completed:
		if id != testAttemptID {
			t.Fatalf("completed %q, want %q", id, testAttemptID)
		}
	case <-time.After(time.Second):
		t.Fatal("refresh after the final answer did not complete the attempt")
	}
	if got := api.completions(); got != 1 {
		t.Fatalf("completion requests = %d, want 1", got)
	}
	if s.Phase() != PhaseCompleted {
		t.Fatalf("phase = %v, want completed", s.Phase())
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if got := api.completions(); got != 1 {
		t.Fatalf("second refresh sent another completion: %d", got)
	}
}

func TestReloadFailureMidTestAdvancesOnRefresh(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(3, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)
	s.Start(context.Background())

	api.set(func(f *fakeAPI) { f.getFailures = 1 })
	if err := s.Submit(context.Background(), "a"); err == nil {
		t.Fatal("Submit reported success although the reload failed")
	}
	if got := currentIndex(s); got != 0 {
		t.Fatalf("pointer moved to %d before the reload succeeded", got)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := currentIndex(s); got != 1 {
		t.Fatalf("current = %d after refresh, want 1", got)
	}
	if got := api.completions(); got != 0 {
		t.Fatalf("completion sent with questions left: %d", got)
	}
}

func TestSubmitRejectedQuestionKeepsSessionUsable(t *testing.T) {
	clock := newFakeClock()
	api := newFakeAPI(2, clock.Now().Add(10*time.Minute))
	s := openSession(t, api, clock, nil)

	api.set(func(f *fakeAPI) { f.submitErr = fmt.Errorf("api: %w", client.ErrBadRequest) })
	var subErr *SubmitError
	if err := s.Submit(context.Background(), "a"); !errors.As(err, &subErr) || subErr.Retryable {
		t.Fatalf("err = %v, want non-retryable SubmitError", err)
	}
	if err := s.mirror.Invalid(); err != nil {
		t.Fatalf("a rejected answer invalidated the session: %v", err)
	}

	api.set(func(f *fakeAPI) { f.submitErr = nil })
	if err := s.Submit(context.Background(), "a"); err != nil {
		t.Fatalf("Submit after a rejected answer: %v", err)
	}
}
