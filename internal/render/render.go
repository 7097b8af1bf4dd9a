package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/lshigami/placement/internal/dto"
	"github.com/lshigami/placement/internal/session"
	"github.com/olekukonko/tablewriter"
)

// gridWidth is how many navigator cells share one table row.
const gridWidth = 10

var (
	title   = color.New(color.FgCyan, color.Bold)
	heading = color.New(color.FgYellow)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	muted   = color.New(color.Faint)
)

// Renderer prints the placement test screens to a terminal.
type Renderer struct {
	out io.Writer
}

func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Tests(tests []dto.TestSummaryDTO) {
	title.Fprintln(r.out, "\n=== Placement Tests ===")
	if len(tests) == 0 {
		muted.Fprintln(r.out, "No placement tests available.")
		return
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"ID", "Title", "Questions", "Duration"})
	for _, t := range tests {
		table.Append([]string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Title,
			strconv.Itoa(t.TotalQuestions),
			fmt.Sprintf("%d min", t.DurationMinutes),
		})
	}
	table.Render()
}

func (r *Renderer) Instructions(in *dto.TestInstructionsDTO) {
	title.Fprintf(r.out, "\n=== %s ===\n", in.Title)
	if in.Description != "" {
		fmt.Fprintln(r.out, in.Description)
	}
	fmt.Fprintf(r.out, "%d questions, %d minutes.\n", in.TotalQuestions, in.DurationMinutes)
	if len(in.Categories) > 0 {
		fmt.Fprintf(r.out, "Sections: %s\n", strings.Join(in.Categories, ", "))
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Question type", "Count"})
	for _, t := range []string{"multiple_choice", "true_false", "free_text"} {
		if n := in.QuestionTypes[t]; n > 0 {
			table.Append([]string{strings.ReplaceAll(t, "_", " "), strconv.Itoa(n)})
		}
	}
	table.Render()
	muted.Fprintln(r.out, "The timer starts as soon as the attempt begins and the test is submitted automatically when it runs out.")
}

// Question prints the current question with its answer affordance.
func (r *Renderer) Question(nav session.Navigator, remaining string) {
	heading.Fprintf(r.out, "\nQuestion %d of %d", nav.Current+1, nav.Total)
	fmt.Fprintf(r.out, "   [%s left, %.0f%% answered]\n", remaining, nav.Progress)
	fmt.Fprintln(r.out, nav.Question.Question)
	if nav.Question.Image != nil && *nav.Question.Image != "" {
		muted.Fprintf(r.out, "(image: %s)\n", *nav.Question.Image)
	}

	switch nav.Affordance {
	case session.AffordanceChoice:
		for i, o := range nav.Options {
			fmt.Fprintf(r.out, "  %c) %s\n", 'a'+i, o)
		}
	case session.AffordanceText:
		muted.Fprintln(r.out, "  Type your answer.")
	}
	if nav.Question.IsAnswered && nav.Question.UserAnswer != nil {
		good.Fprintf(r.out, "Answered: %s\n", *nav.Question.UserAnswer)
	}
}

// Grid prints the question status grid.
func (r *Renderer) Grid(nav session.Navigator) {
	table := tablewriter.NewWriter(r.out)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	row := make([]string, 0, gridWidth)
	for _, c := range nav.Cells {
		row = append(row, cellLabel(c))
		if len(row) == gridWidth {
			table.Append(row)
			row = make([]string, 0, gridWidth)
		}
	}
	if len(row) > 0 {
		for len(row) < gridWidth && len(nav.Cells) > gridWidth {
			row = append(row, "")
		}
		table.Append(row)
	}
	table.Render()
	muted.Fprintln(r.out, "[n] current   n* answered   n unanswered")
}

func cellLabel(c session.Cell) string {
	switch c.Status {
	case session.CellCurrent:
		return fmt.Sprintf("[%d]", c.Number)
	case session.CellAnswered:
		return fmt.Sprintf("%d*", c.Number)
	}
	return strconv.Itoa(c.Number)
}

func (r *Renderer) Error(err error) {
	bad.Fprintf(r.out, "! %v\n", err)
}

func (r *Renderer) Info(format string, args ...any) {
	good.Fprintf(r.out, format+"\n", args...)
}

func (r *Renderer) Notice(format string, args ...any) {
	heading.Fprintf(r.out, format+"\n", args...)
}

// Invalid is the terminal screen for an attempt that can no longer be taken.
func (r *Renderer) Invalid(err error) {
	bad.Fprintln(r.out, "\n=== Test not found ===")
	fmt.Fprintf(r.out, "This attempt is no longer available (%v).\n", err)
}

func (r *Renderer) Result(res *dto.AttemptResultDTO) {
	title.Fprintf(r.out, "\n=== Result: %s ===\n", res.TestTitle)
	fmt.Fprintf(r.out, "Score: %.2f / 100\n", res.Score)
	good.Fprintf(r.out, "Level: %s\n", strings.ReplaceAll(res.Level, "_", " "))
	fmt.Fprintf(r.out, "Correct %d, incorrect %d, unanswered %d of %d questions.\n",
		res.CorrectAnswers, res.IncorrectAnswers, res.Unanswered, res.TotalQuestions)
	if res.CompletionReason == "time_out" {
		muted.Fprintln(r.out, "Submitted automatically when time ran out.")
	}

	if len(res.Categories) > 0 {
		heading.Fprintln(r.out, "\nBy section")
		table := tablewriter.NewWriter(r.out)
		table.SetHeader([]string{"Section", "Correct", "Total", "%"})
		for _, c := range res.Categories {
			table.Append([]string{c.Category, strconv.Itoa(c.Correct), strconv.Itoa(c.Total), fmt.Sprintf("%.2f", c.Percentage)})
		}
		table.Render()
	}

	heading.Fprintln(r.out, "\nRecommended classes")
	if len(res.RecommendedClasses) == 0 {
		muted.Fprintln(r.out, "No classes match this level yet.")
		return
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Class", "Schedule", "Price"})
	for _, c := range res.RecommendedClasses {
		table.Append([]string{c.Name, c.Schedule, strconv.FormatInt(c.Price, 10)})
	}
	table.Render()
}
