package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OptionLabel names one of the four answer options of a question.
type OptionLabel string

const (
	OptionA OptionLabel = "a"
	OptionB OptionLabel = "b"
	OptionC OptionLabel = "c"
	OptionD OptionLabel = "d"
)

// OptionLabels lists the labels in display order.
var OptionLabels = []OptionLabel{OptionA, OptionB, OptionC, OptionD}

// Valid reports whether l is one of a, b, c or d.
func (l OptionLabel) Valid() bool {
	switch l {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// QuestionID identifies a question within its set. Question files written
// by hand often carry numeric ids, so both JSON numbers and strings decode.
type QuestionID string

// UnmarshalJSON accepts `7` as well as `"7"`.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("question id must be a string or number: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// Question is a single multiple-choice question. It is never mutated after load.
type Question struct {
	QID      QuestionID  `json:"qid" validate:"required"`
	Text     string      `json:"question" validate:"required"`
	OptionA  string      `json:"optiona" validate:"required"`
	OptionB  string      `json:"optionb" validate:"required"`
	OptionC  string      `json:"optionc" validate:"required"`
	OptionD  string      `json:"optiond" validate:"required"`
	Answer   OptionLabel `json:"answer" validate:"required,oneof=a b c d"`
	Marks    int         `json:"marks" validate:"min=1"`
	Duration int         `json:"duration" validate:"min=1"`
	Subject  string      `json:"subject,omitempty"`
}

// Option returns the text of the option with the given label.
func (q *Question) Option(l OptionLabel) string {
	switch l {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// QuestionSet is the ordered list of questions an exam session runs over.
type QuestionSet struct {
	Subject   Subject    `json:"subject"`
	Questions []Question `json:"questions" validate:"required,min=1,dive"`
}

// TotalSeconds is the sum of every question's allotted duration.
func (s *QuestionSet) TotalSeconds() int {
	total := 0
	for i := range s.Questions {
		total += s.Questions[i].Duration
	}
	return total
}

// MarksPerQuestion returns the marks of the first question. Scoring and the
// start screen both assume marks are uniform across the set.
func (s *QuestionSet) MarksPerQuestion() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return s.Questions[0].Marks
}

// SubjectName prefers the catalog name and falls back to the first question's subject.
func (s *QuestionSet) SubjectName() string {
	if s.Subject.Name != "" {
		return s.Subject.Name
	}
	if len(s.Questions) > 0 {
		return s.Questions[0].Subject
	}
	return ""
}

// IndexOf returns the position of the question with the given id, or -1.
func (s *QuestionSet) IndexOf(id QuestionID) int {
	for i := range s.Questions {
		if s.Questions[i].QID == id {
			return i
		}
	}
	return -1
}

// AnswerRecord maps a question id to the option the candidate picked.
// A missing entry means the question was not attempted.
type AnswerRecord map[QuestionID]OptionLabel

// Clone returns an independent copy of r.
func (r AnswerRecord) Clone() AnswerRecord {
	out := make(AnswerRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
