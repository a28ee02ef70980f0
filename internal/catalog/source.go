// Package catalog loads question sets by subject key. Every source reports
// failures as *LoadError so the caller can show the problem and offer a retry.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/exstem-player/internal/model"
	"github.com/stemsi/exstem-player/internal/validator"
)

var (
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrMalformedQuestionSet = errors.New("malformed question set")
)

// Source resolves subjects to question sets. Load is a one-shot call: it
// does not retry.
type Source interface {
	List(ctx context.Context) ([]model.Subject, error)
	Load(ctx context.Context, subjectID string) (*model.QuestionSet, error)
}

// LoadError reports that a subject's question set could not be resolved.
type LoadError struct {
	Subject string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Subject == "" {
		return "load catalog: " + e.Err.Error()
	}
	return fmt.Sprintf("load subject %q: %v", e.Subject, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// fail wraps err as a *LoadError unless it already is one.
func fail(subject string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Subject: subject, Err: err}
}

// Validate checks a question set is usable by an exam session. Question
// ids must be unique.
func Validate(set *model.QuestionSet) error {
	if set == nil {
		return fmt.Errorf("%w: no data", ErrMalformedQuestionSet)
	}
	if fields := validator.Struct(set); fields != nil {
		return fmt.Errorf("%w: %s", ErrMalformedQuestionSet, joinFields(fields))
	}

	seen := make(map[model.QuestionID]struct{}, len(set.Questions))
	for _, q := range set.Questions {
		if _, dup := seen[q.QID]; dup {
			return fmt.Errorf("%w: duplicate qid %q", ErrMalformedQuestionSet, q.QID)
		}
		seen[q.QID] = struct{}{}
	}
	return nil
}

// Decode parses a question file and validates the result.
func Decode(subject model.Subject, data []byte) (*model.QuestionSet, error) {
	var file model.QuestionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuestionSet, err)
	}
	set := &model.QuestionSet{Subject: subject, Questions: file.Questions}
	if err := Validate(set); err != nil {
		return nil, err
	}
	return set, nil
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
