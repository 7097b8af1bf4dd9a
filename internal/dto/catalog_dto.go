package dto

// QuestionSeedDTO is one question of a placement test in the catalog file.
type QuestionSeedDTO struct {
	Prompt    string   `yaml:"prompt"`
	Type      string   `yaml:"type"`
	Category  string   `yaml:"category"`
	ImageURL  *string  `yaml:"image_url"`
	Options   []string `yaml:"options"`
	AnswerKey []string `yaml:"answer_key"`
}

// TestSeedDTO describes a placement test with all its questions, in order.
type TestSeedDTO struct {
	Title           string            `yaml:"title"`
	Description     string            `yaml:"description"`
	DurationMinutes int               `yaml:"duration_minutes"`
	Questions       []QuestionSeedDTO `yaml:"questions"`
}

type ClassSeedDTO struct {
	Name        string `yaml:"name"`
	Level       string `yaml:"level"`
	Description string `yaml:"description"`
	Schedule    string `yaml:"schedule"`
	Price       int64  `yaml:"price"`
}

// CatalogDTO is the root of the seed catalog file.
type CatalogDTO struct {
	Tests   []TestSeedDTO  `yaml:"tests"`
	Classes []ClassSeedDTO `yaml:"classes"`
}
