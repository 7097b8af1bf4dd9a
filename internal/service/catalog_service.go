package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
	"github.com/lshigami/placement/internal/repository"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// CatalogService loads placement tests and classes from a YAML catalog.
type CatalogService interface {
	// Seed reads the catalog at path and inserts it when the database holds no tests yet.
	Seed(path string) error
	SeedCatalog(catalog dto.CatalogDTO) error
}

type catalogService struct {
	testRepo  repository.TestRepository
	classRepo repository.ClassRepository
}

func NewCatalogService(testRepo repository.TestRepository, classRepo repository.ClassRepository) CatalogService {
	return &catalogService{testRepo: testRepo, classRepo: classRepo}
}

// LoadCatalog decodes a catalog file without touching the database.
func LoadCatalog(path string) (*dto.CatalogDTO, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var catalog dto.CatalogDTO
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &catalog, nil
}

func (s *catalogService) Seed(path string) error {
	if path == "" {
		log.Info().Msg("SEED_FILE is empty, skipping catalog seed")
		return nil
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		return err
	}
	return s.SeedCatalog(*catalog)
}

func (s *catalogService) SeedCatalog(catalog dto.CatalogDTO) error {
	n, err := s.testRepo.Count()
	if err != nil {
		return fmt.Errorf("count tests: %w", err)
	}
	if n > 0 {
		log.Info().Int64("tests", n).Msg("Catalog already seeded")
		return nil
	}

	tests := make([]model.PlacementTest, 0, len(catalog.Tests))
	for i, t := range catalog.Tests {
		test, err := buildTest(t)
		if err != nil {
			return fmt.Errorf("test #%d (%q): %w", i+1, t.Title, err)
		}
		tests = append(tests, *test)
	}
	classes := make([]model.Class, 0, len(catalog.Classes))
	for _, c := range catalog.Classes {
		if c.Name == "" {
			return fmt.Errorf("%w: class without a name", ErrInvalidCatalog)
		}
		if _, err := s.levelIndex(c.Level); err != nil {
			return fmt.Errorf("class %q: %w", c.Name, err)
		}
		var class model.Class
		if err := copier.Copy(&class, &c); err != nil {
			return fmt.Errorf("copy class %q: %w", c.Name, err)
		}
		classes = append(classes, class)
	}

	for i := range tests {
		if err := s.testRepo.Create(&tests[i]); err != nil {
			log.Error().Err(err).Str("title", tests[i].Title).Msg("Failed to seed test")
			return fmt.Errorf("create test %q: %w", tests[i].Title, err)
		}
		log.Info().Uint("testID", tests[i].ID).Str("title", tests[i].Title).Int("questions", len(tests[i].Questions)).Msg("Seeded placement test")
	}
	for i := range classes {
		if err := s.classRepo.Create(&classes[i]); err != nil {
			log.Error().Err(err).Str("name", classes[i].Name).Msg("Failed to seed class")
			return fmt.Errorf("create class %q: %w", classes[i].Name, err)
		}
	}
	log.Info().Int("tests", len(tests)).Int("classes", len(classes)).Msg("Catalog seeded")
	return nil
}

func (s *catalogService) levelIndex(level string) (int, error) {
	for i, l := range []string{LevelBeginner, LevelElementary, LevelPreIntermediate, LevelIntermediate, LevelUpperIntermediate, LevelAdvanced} {
		if l == level {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: unknown level %q", ErrInvalidCatalog, level)
}

func buildTest(t dto.TestSeedDTO) (*model.PlacementTest, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidCatalog)
	}
	if t.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive, got %d", ErrInvalidCatalog, t.DurationMinutes)
	}
	if len(t.Questions) == 0 {
		return nil, fmt.Errorf("%w: a test needs at least one question", ErrInvalidCatalog)
	}

	questions := make([]model.Question, 0, len(t.Questions))
	for i, q := range t.Questions {
		qt := model.QuestionType(q.Type)
		if !qt.Valid() {
			return nil, fmt.Errorf("%w: question %d has unknown type %q", ErrInvalidCatalog, i+1, q.Type)
		}
		if strings.TrimSpace(q.Prompt) == "" {
			return nil, fmt.Errorf("%w: question %d has no prompt", ErrInvalidCatalog, i+1)
		}
		if len(q.AnswerKey) == 0 {
			return nil, fmt.Errorf("%w: question %d has no answer_key", ErrInvalidCatalog, i+1)
		}
		options := q.Options
		if qt == model.QuestionTrueFalse && len(options) == 0 {
			options = []string{"True", "False"}
		}
		if qt.IsChoice() {
			if len(options) < 2 {
				return nil, fmt.Errorf("%w: question %d needs at least two options", ErrInvalidCatalog, i+1)
			}
			for _, key := range q.AnswerKey {
				if !matchesKey(key, options) {
					return nil, fmt.Errorf("%w: answer %q of question %d is not one of its options", ErrInvalidCatalog, key, i+1)
				}
			}
		} else {
			options = nil
		}
		category := q.Category
		if category == "" {
			category = "general"
		}
		questions = append(questions, model.Question{
			Prompt:      q.Prompt,
			Type:        qt,
			Category:    category,
			OrderInTest: i + 1,
			ImageURL:    q.ImageURL,
			Options:     options,
			AnswerKey:   q.AnswerKey,
		})
	}

	return &model.PlacementTest{
		Title:           t.Title,
		Description:     t.Description,
		DurationMinutes: t.DurationMinutes,
		Questions:       questions,
	}, nil
}
