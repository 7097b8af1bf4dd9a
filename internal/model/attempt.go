package model

// AttemptStatus is the lifecycle state of a TestAttempt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// CompletionReason records what ended an attempt.
type CompletionReason string

const (
	CompletedBySubmit  CompletionReason = "submitted"
	CompletedByTimeout CompletionReason = "time_out"
)

// QuestionType selects how an answer is captured and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFreeText       QuestionType = "free_text"
)

// IsChoice reports whether the question is answered by picking an option.
func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

func (t QuestionType) Valid() bool {
	return t.IsChoice() || t == QuestionFreeText
}
