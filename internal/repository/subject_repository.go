package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-player/internal/model"
)

// SubjectRepository reads the subjects table.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

const subjectColumns = `s.id, s.name, s.description, s.difficulty, s.duration,
	(SELECT COUNT(*) FROM questions q WHERE q.subject_id = s.id)`

func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+subjectColumns+` FROM subjects s ORDER BY s.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Difficulty, &s.Duration, &s.TotalQuestions); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// GetByID returns pgx.ErrNoRows when the subject does not exist.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var s model.Subject
	err := r.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects s WHERE s.id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.Difficulty, &s.Duration, &s.TotalQuestions)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
