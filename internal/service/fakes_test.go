package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
	"github.com/lshigami/placement/internal/repository"
)

// memStore backs the in-memory repositories used by the service tests.
type memStore struct {
	mu          sync.Mutex
	nextID      uint
	tests       map[uint]model.PlacementTest
	questions   map[uint]model.Question
	attempts    map[uuid.UUID]model.TestAttempt
	answers     []model.Answer
	classes     []model.Class
	completions int
}

func newMemStore() *memStore {
	return &memStore{
		tests:     map[uint]model.PlacementTest{},
		questions: map[uint]model.Question{},
		attempts:  map[uuid.UUID]model.TestAttempt{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

type memTestRepo struct{ *memStore }

func (r memTestRepo) Create(test *model.PlacementTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tests {
		if t.Title == test.Title {
			return repository.ErrDuplicate
		}
	}
	test.ID = r.id()
	for i := range test.Questions {
		test.Questions[i].ID = r.id()
		test.Questions[i].TestID = test.ID
		r.questions[test.Questions[i].ID] = test.Questions[i]
	}
	stored := *test
	stored.Questions = nil
	r.tests[test.ID] = stored
	return nil
}

func (r memTestRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.tests)), nil
}

func (r memTestRepo) FindByID(id uint) (*model.PlacementTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r memTestRepo) FindByIDWithQuestions(id uint) (*model.PlacementTest, error) {
	t, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	t.Questions, _ = memQuestionRepo(r).FindByTestID(id)
	return t, nil
}

func (r memTestRepo) FindAllWithQuestionCount() ([]repository.TestWithCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.TestWithCount
	for _, t := range r.tests {
		n := 0
		for _, q := range r.questions {
			if q.TestID == t.ID {
				n++
			}
		}
		out = append(out, repository.TestWithCount{PlacementTest: t, QuestionCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memQuestionRepo struct{ *memStore }

func (r memQuestionRepo) FindByID(id uint) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (r memQuestionRepo) FindByTestID(testID uint) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderInTest < out[j].OrderInTest })
	return out, nil
}

type memAttemptRepo struct{ *memStore }

func (r memAttemptRepo) Create(a *model.TestAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == model.AttemptInProgress {
		for _, existing := range r.attempts {
			if existing.TestID == a.TestID && existing.StudentID == a.StudentID && existing.Status == model.AttemptInProgress {
				return repository.ErrDuplicate
			}
		}
	}
	r.attempts[a.ID] = *a
	return nil
}

func (r memAttemptRepo) FindByID(id uuid.UUID) (*model.TestAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Test = r.tests[a.TestID]
	return &a, nil
}

func (r memAttemptRepo) FindOpenByTestAndStudent(testID uint, studentID string) (*model.TestAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.TestID == testID && a.StudentID == studentID && a.Status == model.AttemptInProgress {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memAttemptRepo) Complete(id uuid.UUID, f repository.CompletionFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.Status != model.AttemptInProgress {
		return false, nil
	}
	a.Status = model.AttemptCompleted
	a.CompletedAt = &f.CompletedAt
	a.CompletionReason = &f.Reason
	a.Score = &f.Score
	a.Level = &f.Level
	r.attempts[id] = a
	r.completions++
	return true, nil
}

type memAnswerRepo struct{ *memStore }

func (r memAnswerRepo) Create(a *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.answers {
		if existing.TestAttemptID == a.TestAttemptID && existing.QuestionID == a.QuestionID {
			return repository.ErrDuplicate
		}
	}
	a.ID = r.id()
	r.answers = append(r.answers, *a)
	return nil
}

func (r memAnswerRepo) FindByAttempt(attemptID uuid.UUID) ([]model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Answer
	for _, a := range r.answers {
		if a.TestAttemptID == attemptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAnswerRepo) Update(a *model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.answers {
		if r.answers[i].ID == a.ID {
			r.answers[i] = *a
			return nil
		}
	}
	return repository.ErrNotFound
}

type memClassRepo struct{ *memStore }

func (r memClassRepo) Create(c *model.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	r.classes = append(r.classes, *c)
	return nil
}

func (r memClassRepo) FindByLevel(level string) ([]model.Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Class
	for _, c := range r.classes {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLLM struct {
	enabled bool
	score   float64
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeLLM) Enabled() bool { return f.enabled }

func (f *fakeLLM) GradeFreeText(ctx context.Context, q *model.Question, answer string) (string, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "looks right", f.score, f.err
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func fixtureCatalog() dto.CatalogDTO {
	return dto.CatalogDTO{
		Tests: []dto.TestSeedDTO{{
			Title:           "General English",
			DurationMinutes: 20,
			Questions: []dto.QuestionSeedDTO{
				{Prompt: "She ___ to school.", Type: "multiple_choice", Category: "grammar", Options: []string{"go", "goes", "going"}, AnswerKey: []string{"goes"}},
				{Prompt: "Enormous means small.", Type: "true_false", Category: "vocabulary", AnswerKey: []string{"False"}},
				{Prompt: "Past participle of write?", Type: "free_text", Category: "grammar", AnswerKey: []string{"written"}},
				{Prompt: "Did Tom take the bus?", Type: "multiple_choice", Category: "reading", Options: []string{"yes", "no"}, AnswerKey: []string{"no"}},
			},
		}},
		Classes: []dto.ClassSeedDTO{
			{Name: "English Foundations", Level: LevelBeginner, Price: 100},
			{Name: "Academic Writing B2", Level: LevelUpperIntermediate, Schedule: "Sat 09:00", Price: 300},
		},
	}
}

type serviceFixture struct {
	store   *memStore
	clock   *testClock
	llm     *fakeLLM
	svc     *attemptService
	catalog CatalogService
	testID  uint
	qIDs    []uint
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newMemStore()
	clock := &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	llm := &fakeLLM{}

	catalog := NewCatalogService(memTestRepo{store}, memClassRepo{store})
	if err := catalog.SeedCatalog(fixtureCatalog()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := newAttemptService(
		memTestRepo{store},
		memQuestionRepo{store},
		memAttemptRepo{store},
		memAnswerRepo{store},
		memClassRepo{store},
		NewGradingService(memAnswerRepo{store}, llm),
		NewScoreConverterService(),
		30*time.Second,
		clock.Now,
	)

	f := &serviceFixture{store: store, clock: clock, llm: llm, svc: svc, catalog: catalog}
	tests, _ := memTestRepo{store}.FindAllWithQuestionCount()
	f.testID = tests[0].ID
	qs, _ := memQuestionRepo{store}.FindByTestID(f.testID)
	for _, q := range qs {
		f.qIDs = append(f.qIDs, q.ID)
	}
	return f
}

func (f *serviceFixture) start(t *testing.T, student string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.StartAttempt(f.testID, student)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	return uuid.MustParse(resp.AttemptID)
}

func (f *serviceFixture) answer(t *testing.T, id uuid.UUID, student string, q int, answer string) *dto.SubmitAnswerResponse {
	t.Helper()
	resp, err := f.svc.SubmitAnswer(id, student, dto.SubmitAnswerRequest{TestQuestionID: f.qIDs[q], UserAnswer: answer, TimeSpentSeconds: 10})
	if err != nil {
		t.Fatalf("SubmitAnswer(q%d): %v", q+1, err)
	}
	return resp
}
