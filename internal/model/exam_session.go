package model

import "github.com/google/uuid"

// Phase enumerates the lifecycle stages of an exam session.
type Phase string

const (
	PhaseNotStarted   Phase = "NOT_STARTED"
	PhaseInProgress   Phase = "IN_PROGRESS"
	PhaseFinished     Phase = "FINISHED"
	PhaseResultsShown Phase = "RESULTS_SHOWN"
)

// Snapshot is a read-only copy of a session's state, taken after a transition.
type Snapshot struct {
	SessionID        uuid.UUID    `json:"session_id"`
	Phase            Phase        `json:"phase"`
	Subject          string       `json:"subject"`
	CurrentIndex     int          `json:"current_index"`
	QuestionCount    int          `json:"question_count"`
	CurrentQuestion  Question     `json:"current_question"`
	Answers          AnswerRecord `json:"answers"`
	RemainingSeconds int          `json:"remaining_seconds"`
	TotalSeconds     int          `json:"total_seconds"`
	MarksPerQuestion int          `json:"marks_per_question"`
	Result           *Result      `json:"result,omitempty"`
}

// Result is the score summary of a finished session.
type Result struct {
	Correct        int    `json:"correct"`
	Incorrect      int    `json:"incorrect"`
	Unattempted    int    `json:"unattempted"`
	Attempted      int    `json:"attempted"`
	TotalQuestions int    `json:"total_questions"`
	TotalMarks     int    `json:"total_marks"`
	Percentage     string `json:"percentage"`
}
