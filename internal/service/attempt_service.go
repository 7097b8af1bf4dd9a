package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/placement/config"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
	"github.com/lshigami/placement/internal/repository"
	"github.com/rs/zerolog/log"
)

// AttemptService owns the lifecycle of a placement attempt: start, answer,
// complete. It is the single writer of attempt state.
type AttemptService interface {
	StartAttempt(testID uint, studentID string) (*dto.StartAttemptResponse, error)
	GetAttemptState(attemptID uuid.UUID, studentID string) (*dto.AttemptStateResponse, error)
	SubmitAnswer(attemptID uuid.UUID, studentID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	CompleteAttempt(ctx context.Context, attemptID uuid.UUID, studentID string) (*dto.CompleteAttemptResponse, error)
	GetResult(ctx context.Context, attemptID uuid.UUID, studentID string) (*dto.AttemptResultDTO, error)
}

type attemptService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.TestAttemptRepository
	answerRepo     repository.AnswerRepository
	classRepo      repository.ClassRepository
	grader         GradingService
	scoreConverter ScoreConverterService
	grace          time.Duration
	now            func() time.Time

	// locks serializes writes per attempt, and starts per test and student,
	// within this process.
	locks sync.Map
}

func NewAttemptService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	classRepo repository.ClassRepository,
	grader GradingService,
	scoreConverter ScoreConverterService,
	cfg *config.Config,
) AttemptService {
	return newAttemptService(testRepo, questionRepo, attemptRepo, answerRepo, classRepo, grader, scoreConverter, cfg.Attempt.Grace, time.Now)
}

func newAttemptService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	classRepo repository.ClassRepository,
	grader GradingService,
	scoreConverter ScoreConverterService,
	grace time.Duration,
	now func() time.Time,
) *attemptService {
	return &attemptService{
		testRepo:       testRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		answerRepo:     answerRepo,
		classRepo:      classRepo,
		grader:         grader,
		scoreConverter: scoreConverter,
		grace:          grace,
		now:            now,
	}
}

// openAttemptKey guards the lookup-then-create of a student's open attempt.
type openAttemptKey struct {
	testID    uint
	studentID string
}

func (s *attemptService) lock(key any) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadAttempt fetches an attempt visible to studentID. An empty studentID
// (authentication disabled) sees every attempt.
func (s *attemptService) loadAttempt(attemptID uuid.UUID, studentID string) (*model.TestAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("error fetching attempt %s: %w", attemptID, err)
	}
	if studentID != "" && attempt.StudentID != studentID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *attemptService) StartAttempt(testID uint, studentID string) (*dto.StartAttemptResponse, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("error fetching test %d: %w", testID, err)
	}
	if len(test.Questions) == 0 {
		return nil, fmt.Errorf("%w: test %d has no questions", ErrTestNotFound, testID)
	}

	unlockStart := s.lock(openAttemptKey{testID: testID, studentID: studentID})
	defer unlockStart()

	open, err := s.attemptRepo.FindOpenByTestAndStudent(testID, studentID)
	switch {
	case err == nil && !open.ExpiredAt(s.now(), 0):
		log.Info().Str("attemptID", open.ID.String()).Str("studentID", studentID).Msg("Resuming open attempt")
		return &dto.StartAttemptResponse{AttemptID: open.ID.String(), ExpiresAt: open.ExpiresAt, Resumed: true}, nil
	case err == nil:
		// The old attempt ran out of time; close it before starting a new one.
		unlock := s.lock(open.ID)
		_, ferr := s.finalize(context.Background(), open, model.CompletedByTimeout)
		unlock()
		if ferr != nil {
			return nil, ferr
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("error looking up open attempts: %w", err)
	}

	now := s.now()
	attempt := model.TestAttempt{
		ID:        uuid.New(),
		TestID:    testID,
		StudentID: studentID,
		Status:    model.AttemptInProgress,
		StartedAt: now,
		ExpiresAt: now.Add(test.Duration()),
	}
	if err := s.attemptRepo.Create(&attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Another instance opened one first.
			if open, ferr := s.attemptRepo.FindOpenByTestAndStudent(testID, studentID); ferr == nil {
				return &dto.StartAttemptResponse{AttemptID: open.ID.String(), ExpiresAt: open.ExpiresAt, Resumed: true}, nil
			}
		}
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to create attempt")
		return nil, fmt.Errorf("database error creating attempt: %w", err)
	}

	log.Info().Str("attemptID", attempt.ID.String()).Uint("testID", testID).Time("expiresAt", attempt.ExpiresAt).Msg("Attempt started")
	return &dto.StartAttemptResponse{AttemptID: attempt.ID.String(), ExpiresAt: attempt.ExpiresAt}, nil
}

func (s *attemptService) GetAttemptState(attemptID uuid.UUID, studentID string) (*dto.AttemptStateResponse, error) {
	unlock := s.lock(attemptID)
	defer unlock()

	attempt, err := s.loadAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.ExpiredAt(s.now(), s.grace) {
		if _, err := s.finalize(context.Background(), attempt, model.CompletedByTimeout); err != nil {
			return nil, err
		}
		return nil, ErrAttemptExpired
	}

	questions, err := s.questionRepo.FindByTestID(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}
	answers, err := s.answerRepo.FindByAttempt(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching answers: %w", err)
	}
	byQuestion := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	resp := &dto.AttemptStateResponse{
		Attempt: dto.AttemptDTO{
			ID:        attempt.ID.String(),
			TestID:    attempt.TestID,
			ExpiresAt: attempt.ExpiresAt,
			Status:    string(attempt.Status),
		},
		Test: dto.AttemptTestDTO{
			Title:           attempt.Test.Title,
			DurationMinutes: attempt.Test.DurationMinutes,
			TotalQuestions:  len(questions),
		},
		Questions: make([]dto.AttemptQuestionDTO, 0, len(questions)),
	}
	for _, q := range questions {
		item := dto.AttemptQuestionDTO{
			ID:       q.ID,
			Question: q.Prompt,
			Type:     string(q.Type),
			Image:    q.ImageURL,
		}
		if q.Type.IsChoice() {
			item.Options = append([]string(nil), q.Options...)
		}
		if a, ok := byQuestion[q.ID]; ok {
			item.IsAnswered = true
			answer := a.UserAnswer
			item.UserAnswer = &answer
		}
		resp.Questions = append(resp.Questions, item)
	}
	resp.Progress = s.progress(len(byQuestion), len(questions))
	return resp, nil
}

func (s *attemptService) progress(answered, total int) dto.ProgressDTO {
	return dto.ProgressDTO{
		Answered:   answered,
		Total:      total,
		Percentage: s.scoreConverter.ToPercentage(answered, total),
	}
}

func (s *attemptService) SubmitAnswer(attemptID uuid.UUID, studentID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	unlock := s.lock(attemptID)
	defer unlock()

	attempt, err := s.loadAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, ErrAttemptClosed
	}
	now := s.now()
	if attempt.ExpiredAt(now, s.grace) {
		if _, err := s.finalize(context.Background(), attempt, model.CompletedByTimeout); err != nil {
			return nil, err
		}
		return nil, ErrAttemptExpired
	}
	if now.After(attempt.ExpiresAt) {
		return nil, fmt.Errorf("%w: time is up", ErrAttemptClosed)
	}

	question, err := s.questionRepo.FindByID(req.TestQuestionID)
	if err != nil || question.TestID != attempt.TestID {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("error fetching question: %w", err)
		}
		return nil, ErrQuestionNotFound
	}
	answer := strings.TrimSpace(req.UserAnswer)
	if question.Type.IsChoice() && !matchesKey(answer, question.Options) {
		return nil, ErrInvalidAnswer
	}

	record := model.Answer{
		TestAttemptID:    attempt.ID,
		QuestionID:       question.ID,
		UserAnswer:       answer,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}
	if err := s.answerRepo.Create(&record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyAnswered
		}
		log.Error().Err(err).Str("attemptID", attemptID.String()).Uint("questionID", question.ID).Msg("Failed to store answer")
		return nil, fmt.Errorf("database error storing answer: %w", err)
	}

	answers, err := s.answerRepo.FindByAttempt(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching answers: %w", err)
	}
	questions, err := s.questionRepo.FindByTestID(attempt.TestID)
	if err != nil {
		return nil, fmt.Errorf("error fetching questions: %w", err)
	}

	log.Debug().Str("attemptID", attemptID.String()).Uint("questionID", question.ID).Int("timeSpent", req.TimeSpentSeconds).Msg("Answer stored")
	return &dto.SubmitAnswerResponse{
		QuestionID: question.ID,
		IsAnswered: true,
		Progress:   s.progress(len(answers), len(questions)),
	}, nil
}

// CompleteAttempt is idempotent: completing a completed attempt returns its id.
func (s *attemptService) CompleteAttempt(ctx context.Context, attemptID uuid.UUID, studentID string) (*dto.CompleteAttemptResponse, error) {
	unlock := s.lock(attemptID)
	defer unlock()

	attempt, err := s.loadAttempt(attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status == model.AttemptCompleted {
		log.Info().Str("attemptID", attemptID.String()).Msg("Duplicate completion request ignored")
		return &dto.CompleteAttemptResponse{AttemptID: attempt.ID.String()}, nil
	}

	reason := model.CompletedBySubmit
	if !s.now().Before(attempt.ExpiresAt) {
		reason = model.CompletedByTimeout
	}
	if _, err := s.finalize(ctx, attempt, reason); err != nil {
		return nil, err
	}
	return &dto.CompleteAttemptResponse{AttemptID: attempt.ID.String()}, nil
}

// finalize grades the attempt and moves it to completed. Callers hold the
// attempt lock. It reports whether this call performed the transition.
func (s *attemptService) finalize(ctx context.Context, attempt *model.TestAttempt, reason model.CompletionReason) (bool, error) {
	questions, err := s.questionRepo.FindByTestID(attempt.TestID)
	if err != nil {
		return false, fmt.Errorf("error fetching questions: %w", err)
	}
	answers, err := s.answerRepo.FindByAttempt(attempt.ID)
	if err != nil {
		return false, fmt.Errorf("error fetching answers: %w", err)
	}
	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	correct, err := s.grader.GradeAnswers(ctx, byID, answers)
	if err != nil {
		log.Error().Err(err).Str("attemptID", attempt.ID.String()).Msg("Grading finished with errors")
		return false, fmt.Errorf("error grading attempt: %w", err)
	}

	score := s.scoreConverter.ToPercentage(correct, len(questions))
	level, err := s.scoreConverter.ConvertToLevel(score)
	if err != nil {
		return false, err
	}

	done, err := s.attemptRepo.Complete(attempt.ID, repository.CompletionFields{
		CompletedAt: s.now(),
		Reason:      reason,
		Score:       score,
		Level:       level,
	})
	if err != nil {
		log.Error().Err(err).Str("attemptID", attempt.ID.String()).Msg("Failed to complete attempt")
		return false, fmt.Errorf("database error completing attempt: %w", err)
	}
	if done {
		attempt.Status = model.AttemptCompleted
		log.Info().
			Str("attemptID", attempt.ID.String()).
			Str("reason", string(reason)).
			Float64("score", score).
			Str("level", level).
			Msg("Attempt completed")
	}
	return done, nil
}
