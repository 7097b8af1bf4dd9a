package session

import (
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/model"
)

type CellStatus int

const (
	CellUnanswered CellStatus = iota
	CellAnswered
	CellCurrent
)

func (c CellStatus) String() string {
	switch c {
	case CellAnswered:
		return "answered"
	case CellCurrent:
		return "current"
	}
	return "unanswered"
}

// Affordance is how an answer to a question is captured.
type Affordance int

const (
	AffordanceChoice Affordance = iota
	AffordanceText
)

type Cell struct {
	Number     int
	QuestionID uint
	Status     CellStatus
}

// Navigator is everything needed to draw one screen of the attempt.
type Navigator struct {
	Cells      []Cell
	Current    int
	Question   dto.AttemptQuestionDTO
	Affordance Affordance
	Options    []string
	Answered   int
	Total      int
	Progress   float64
}

// BuildNavigator derives the screen for question current of st. current is
// clamped into range.
func BuildNavigator(st State, current int) Navigator {
	n := len(st.Questions)
	nav := Navigator{
		Cells:    make([]Cell, n),
		Answered: st.Progress.Answered,
		Total:    n,
		Progress: st.Progress.Percentage,
	}
	if n == 0 {
		return nav
	}
	if current < 0 {
		current = 0
	}
	if current >= n {
		current = n - 1
	}
	nav.Current = current

	for i, q := range st.Questions {
		status := CellUnanswered
		switch {
		case i == current:
			status = CellCurrent
		case q.IsAnswered:
			status = CellAnswered
		}
		nav.Cells[i] = Cell{Number: i + 1, QuestionID: q.ID, Status: status}
	}

	q := st.Questions[current]
	nav.Question = q
	if model.QuestionType(q.Type).IsChoice() {
		nav.Affordance = AffordanceChoice
		nav.Options = append([]string(nil), q.Options...)
	} else {
		nav.Affordance = AffordanceText
	}
	return nav
}
