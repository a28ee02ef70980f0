package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/catalog"
	"github.com/stemsi/exstem-player/internal/model"
)

// SubjectService serves the catalog to remote players.
type SubjectService struct {
	source  catalog.Source
	timeout time.Duration
	log     zerolog.Logger
}

// NewSubjectService creates a SubjectService. A zero timeout leaves the
// request context as is.
func NewSubjectService(source catalog.Source, timeout time.Duration, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		source:  source,
		timeout: timeout,
		log:     log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	subjects, err := s.source.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list subjects")
		return nil, err
	}
	return subjects, nil
}

// GetQuestionSet loads one subject with its questions. Missing subjects
// are not logged as errors.
func (s *SubjectService) GetQuestionSet(ctx context.Context, subjectID string) (*model.SubjectPayload, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set, err := s.source.Load(ctx, subjectID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrSubjectNotFound):
			s.log.Debug().Str("subject", subjectID).Msg("Subject not found")
		case errors.Is(err, catalog.ErrMalformedQuestionSet):
			s.log.Warn().Err(err).Str("subject", subjectID).Msg("Malformed question set")
		default:
			s.log.Error().Err(err).Str("subject", subjectID).Msg("Failed to load question set")
		}
		return nil, err
	}

	subject := set.Subject
	subject.TotalQuestions = len(set.Questions)
	return &model.SubjectPayload{Subject: subject, Questions: set.Questions}, nil
}

// Prewarm loads every listed subject once so a caching source holds them
// before traffic arrives. Failures are logged and counted, never fatal.
func (s *SubjectService) Prewarm(ctx context.Context) (loaded, failed int) {
	subjects, err := s.GetAll(ctx)
	if err != nil {
		return 0, 0
	}
	for _, subj := range subjects {
		if _, err := s.GetQuestionSet(ctx, subj.ID); err != nil {
			failed++
			continue
		}
		loaded++
	}
	s.log.Info().Int("loaded", loaded).Int("failed", failed).Msg("Catalog prewarmed")
	return loaded, failed
}

func (s *SubjectService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
