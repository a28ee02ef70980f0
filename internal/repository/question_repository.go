package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-player/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySubject returns a subject's questions in exam order.
func (r *QuestionRepository) ListBySubject(ctx context.Context, subjectID string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.qid, q.question, q.optiona, q.optionb, q.optionc, q.optiond, q.answer, q.marks, q.duration, s.name
		 FROM questions q JOIN subjects s ON s.id = q.subject_id
		 WHERE q.subject_id = $1
		 ORDER BY q.position`, subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.QID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.Answer, &q.Marks, &q.Duration, &q.Subject); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceSet upserts the subject and swaps in its questions in one
// transaction.
func (r *QuestionRepository) ReplaceSet(ctx context.Context, set *model.QuestionSet) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	s := set.Subject
	if _, err := tx.Exec(ctx,
		`INSERT INTO subjects (id, name, description, difficulty, duration)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description,
		     difficulty = EXCLUDED.difficulty, duration = EXCLUDED.duration, updated_at = NOW()`,
		s.ID, s.Name, s.Description, s.Difficulty, s.Duration,
	); err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE subject_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	rows := make([][]any, len(set.Questions))
	for i, q := range set.Questions {
		rows[i] = []any{s.ID, string(q.QID), i, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			string(q.Answer), q.Marks, q.Duration}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"subject_id", "qid", "position", "question", "optiona", "optionb", "optionc", "optiond",
			"answer", "marks", "duration"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}

	return tx.Commit(ctx)
}
