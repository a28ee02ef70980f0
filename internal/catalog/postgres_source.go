package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/model"
)

// SubjectStore is the subject half of the Postgres catalog.
type SubjectStore interface {
	GetAll(ctx context.Context) ([]model.Subject, error)
	GetByID(ctx context.Context, id string) (*model.Subject, error)
}

// QuestionStore is the question half of the Postgres catalog.
type QuestionStore interface {
	ListBySubject(ctx context.Context, subjectID string) ([]model.Question, error)
}

// PostgresSource serves question sets stored in Postgres.
type PostgresSource struct {
	subjects  SubjectStore
	questions QuestionStore
	log       zerolog.Logger
}

// NewPostgresSource creates a source over the given repositories.
func NewPostgresSource(subjects SubjectStore, questions QuestionStore, log zerolog.Logger) *PostgresSource {
	return &PostgresSource{
		subjects:  subjects,
		questions: questions,
		log:       log.With().Str("component", "postgres_catalog").Logger(),
	}
}

func (s *PostgresSource) List(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.subjects.GetAll(ctx)
	if err != nil {
		return nil, fail("", fmt.Errorf("list subjects: %w", err))
	}
	return subjects, nil
}

func (s *PostgresSource) Load(ctx context.Context, subjectID string) (*model.QuestionSet, error) {
	subject, err := s.subjects.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fail(subjectID, ErrSubjectNotFound)
		}
		return nil, fail(subjectID, fmt.Errorf("get subject: %w", err))
	}

	questions, err := s.questions.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fail(subjectID, fmt.Errorf("list questions: %w", err))
	}

	set := &model.QuestionSet{Subject: *subject, Questions: questions}
	if err := Validate(set); err != nil {
		s.log.Warn().Err(err).Str("subject", subjectID).Msg("Rejected stored question set")
		return nil, fail(subjectID, err)
	}
	return set, nil
}
