package tui

import (
	"fmt"
	"strings"

	"github.com/stemsi/exstem-player/internal/mathrender"
	"github.com/stemsi/exstem-player/internal/model"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	gridColumns = 10
	// urgentSeconds is the remaining time at which the timer turns red.
	urgentSeconds = 60
)

type style struct {
	color bool
}

func (s style) wrap(code, text string) string {
	if !s.color {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

func (s style) bold(t string) string  { return s.wrap("1", t) }
func (s style) red(t string) string   { return s.wrap("1;31", t) }
func (s style) green(t string) string { return s.wrap("32", t) }
func (s style) blue(t string) string  { return s.wrap("34", t) }
func (s style) dim(t string) string   { return s.wrap("2", t) }

// FormatTime renders seconds as zero-padded mm:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func renderMath(text string) string {
	return mathrender.Plain(mathrender.Render(text))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func renderSubjects(subjects []model.Subject, st style) []string {
	lines := []string{st.bold("Exam Player"), "", "Select a subject:", ""}
	for i, s := range subjects {
		if i >= 9 {
			lines = append(lines, st.dim(fmt.Sprintf("   ... %d more not shown", len(subjects)-9)))
			break
		}
		lines = append(lines, fmt.Sprintf(" %d) %s", i+1, st.bold(s.Name)))
		if s.Description != "" {
			lines = append(lines, "    "+s.Description)
		}
		var meta []string
		if s.Difficulty != "" {
			meta = append(meta, s.Difficulty)
		}
		if s.TotalQuestions > 0 {
			meta = append(meta, plural(s.TotalQuestions, "question"))
		}
		if s.Duration != "" {
			meta = append(meta, s.Duration)
		}
		if len(meta) > 0 {
			lines = append(lines, "    "+st.dim(strings.Join(meta, " | ")))
		}
	}
	if len(subjects) == 0 {
		lines = append(lines, st.dim("   No subjects available."))
	}
	return append(lines, "", st.dim("[1-9] choose  [q] quit"))
}

func renderError(title string, err error, hints string, st style) []string {
	return []string{
		st.red(title),
		"",
		err.Error(),
		"",
		st.dim(hints),
	}
}

func renderStart(snap model.Snapshot, st style) []string {
	return []string{
		st.bold(snap.Subject + " Exam"),
		"",
		"Total Questions:    " + fmt.Sprint(snap.QuestionCount),
		"Total Time:         " + FormatTime(snap.TotalSeconds),
		"Subject:            " + snap.Subject,
		"Marks per Question: " + fmt.Sprint(snap.MarksPerQuestion),
		"",
		st.dim("[Enter] start exam  [b] subjects  [q] quit"),
	}
}

func renderQuestion(snap model.Snapshot, questions []model.Question, jump *string, width int, st style) []string {
	q := snap.CurrentQuestion

	timer := "Time Remaining: " + FormatTime(snap.RemainingSeconds)
	if snap.RemainingSeconds <= urgentSeconds {
		timer = st.red(timer + " !")
	} else {
		timer = st.blue(timer)
	}

	lines := []string{
		st.bold(snap.Subject) + "  " + fmt.Sprintf("Question %d of %d", snap.CurrentIndex+1, snap.QuestionCount) + "  " + timer,
		progressBar(snap.CurrentIndex+1, snap.QuestionCount, width),
		"",
		st.bold(fmt.Sprintf("Q%s", q.QID)) + "  " + st.dim(plural(q.Marks, "mark")),
		renderMath(q.Text),
		"",
	}

	picked := snap.Answers[q.QID]
	for _, l := range model.OptionLabels {
		box := "[ ]"
		if l == picked {
			box = st.green("[x]")
		}
		lines = append(lines, fmt.Sprintf(" %s %s. %s", box, strings.ToUpper(string(l)), renderMath(q.Option(l))))
	}

	lines = append(lines, "", fmt.Sprintf("Answered: %d / %d", len(snap.Answers), snap.QuestionCount), "Jump to question:")
	lines = append(lines, grid(snap, questions, st)...)
	lines = append(lines, "")

	if jump != nil {
		lines = append(lines, fmt.Sprintf("Go to question #: %s_  %s", *jump, st.dim("[Enter] go  [Esc] cancel")))
		return lines
	}

	hints := "[a-d] answer  [p] previous  "
	if snap.CurrentIndex == snap.QuestionCount-1 {
		hints += "[s] submit exam"
	} else {
		hints += "[n] next"
	}
	return append(lines, st.dim(hints+"  [j] jump  [q] quit"))
}

func progressBar(done, total, width int) string {
	size := width - 10
	if size > 50 {
		size = 50
	}
	if size < 10 {
		size = 10
	}
	filled := 0
	if total > 0 {
		filled = done * size / total
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", size-filled) + "]"
}

// grid lays question numbers out ten to a row. The current question is
// bracketed and answered ones carry a star.
func grid(snap model.Snapshot, questions []model.Question, st style) []string {
	var rows []string
	var row strings.Builder
	for i := range questions {
		_, answered := snap.Answers[questions[i].QID]
		cell := fmt.Sprintf(" %2d ", i+1)
		switch {
		case i == snap.CurrentIndex:
			cell = st.bold(fmt.Sprintf("[%2d]", i+1))
		case answered:
			cell = st.green(fmt.Sprintf(" %2d*", i+1))
		}
		row.WriteString(cell)
		if (i+1)%gridColumns == 0 || i == len(questions)-1 {
			rows = append(rows, row.String())
			row.Reset()
		}
	}
	return rows
}

func renderTimeUp(snap model.Snapshot, st style) []string {
	return []string{
		st.red("Time Remaining: " + FormatTime(snap.RemainingSeconds)),
		"",
		st.bold("Time is up."),
		fmt.Sprintf("Your answers to %d of %d questions were submitted.", len(snap.Answers), snap.QuestionCount),
		"",
		st.dim("[Enter] view results  [r] restart  [q] quit"),
	}
}

func renderResults(snap model.Snapshot, st style) []string {
	r := snap.Result
	if r == nil {
		return []string{st.red("No result available.")}
	}
	return []string{
		st.bold("Exam Results: " + snap.Subject),
		"",
		st.green(fmt.Sprintf("Correct:      %d", r.Correct)),
		st.red(fmt.Sprintf("Incorrect:    %d", r.Incorrect)),
		fmt.Sprintf("Unattempted:  %d", r.Unattempted),
		st.blue(fmt.Sprintf("Score:        %s%%", r.Percentage)),
		"",
		st.bold(fmt.Sprintf("Total Marks: %d / %d", r.TotalMarks, r.TotalQuestions)),
		"",
		st.dim("[r] restart  [b] subjects  [q] quit"),
	}
}

func frame(lines []string) string {
	return clearScreen + strings.Join(lines, "\r\n") + "\r\n"
}
