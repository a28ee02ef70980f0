// Package scoring turns a finished answer record into a result summary.
package scoring

import (
	"fmt"

	"github.com/stemsi/exstem-player/internal/model"
)

// Score grades answers against set. It has no side effects and never
// mutates its inputs.
//
// TotalMarks is correct × the first question's marks. Sets with mixed
// marks are scored with that same figure.
func Score(set *model.QuestionSet, answers model.AnswerRecord) model.Result {
	total := len(set.Questions)

	correct, attempted := 0, 0
	for i := range set.Questions {
		q := &set.Questions[i]
		picked, ok := answers[q.QID]
		if !ok || picked == "" {
			continue
		}
		attempted++
		if picked == q.Answer {
			correct++
		}
	}

	return model.Result{
		Correct:        correct,
		Incorrect:      attempted - correct,
		Unattempted:    total - attempted,
		Attempted:      attempted,
		TotalQuestions: total,
		TotalMarks:     correct * set.MarksPerQuestion(),
		Percentage:     Percentage(correct, total),
	}
}

// Percentage formats part/whole × 100 with one decimal, rounding half up.
// The arithmetic is done in integer tenths so 2/3 renders as "66.7" and
// 1/8 as "12.5" without float artefacts. A zero whole yields "0.0".
func Percentage(part, whole int) string {
	if whole <= 0 || part <= 0 {
		return "0.0"
	}
	tenths := (part*2000 + whole) / (2 * whole)
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}
