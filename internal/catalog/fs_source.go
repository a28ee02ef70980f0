package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/model"
)

// IndexFile lists the subjects of a filesystem catalog.
const IndexFile = "catalog.json"

type index struct {
	Subjects []model.Subject `json:"subjects"`
}

// FSSource reads question files from a directory tree with a catalog.json
// index at its root.
type FSSource struct {
	fsys fs.FS
	log  zerolog.Logger
}

// NewFSSource creates a source over fsys.
func NewFSSource(fsys fs.FS, log zerolog.Logger) *FSSource {
	return &FSSource{
		fsys: fsys,
		log:  log.With().Str("component", "fs_catalog").Logger(),
	}
}

func (s *FSSource) List(ctx context.Context) ([]model.Subject, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, fail("", err)
	}
	return idx.Subjects, nil
}

func (s *FSSource) Load(ctx context.Context, subjectID string) (*model.QuestionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(subjectID, err)
	}

	idx, err := s.readIndex()
	if err != nil {
		return nil, fail(subjectID, err)
	}

	var subject *model.Subject
	for i := range idx.Subjects {
		if idx.Subjects[i].ID == subjectID {
			subject = &idx.Subjects[i]
			break
		}
	}
	if subject == nil {
		return nil, fail(subjectID, ErrSubjectNotFound)
	}

	file := subject.File
	if file == "" {
		file = subject.ID + ".json"
	}
	data, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fail(subjectID, fmt.Errorf("%w: %s is missing", ErrSubjectNotFound, file))
		}
		return nil, fail(subjectID, fmt.Errorf("read %s: %w", file, err))
	}

	set, err := Decode(*subject, data)
	if err != nil {
		s.log.Warn().Err(err).Str("subject", subjectID).Str("file", file).Msg("Rejected question file")
		return nil, fail(subjectID, err)
	}

	s.log.Debug().Str("subject", subjectID).Int("questions", len(set.Questions)).Msg("Question set loaded")
	return set, nil
}

func (s *FSSource) readIndex() (*index, error) {
	data, err := fs.ReadFile(s.fsys, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IndexFile, err)
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedQuestionSet, IndexFile, err)
	}
	return &idx, nil
}
