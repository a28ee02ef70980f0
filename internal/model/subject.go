package model

// Subject describes one entry of the question catalog shown in the subject picker.
type Subject struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description,omitempty"`
	File           string `json:"file,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
	Duration       string `json:"duration,omitempty"`
}

// SubjectPayload is the catalog wire shape for one subject with its questions.
type SubjectPayload struct {
	Subject   Subject    `json:"subject"`
	Questions []Question `json:"questions"`
}

// QuestionFile is the on-disk format of a question file.
type QuestionFile struct {
	Questions []Question `json:"questions"`
}
