package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pbaille/cfaprep/internal/domain"
)

const questionColumns = `id, level, topic, subtopic, difficulty, stem, option_a, option_b,
	option_c, correct_answer, explanation, los, sources, generation_job_id, created_by, created_at`

// QuestionFilter narrows ListQuestions
type QuestionFilter struct {
	Level      string
	Topic      string
	Difficulty string
	Limit      int
	Offset     int
}

// SaveQuestions inserts questions in one transaction, filling IDs and timestamps
func (s *Store) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	t := now()
	for i := range questions {
		q := &questions[i]
		q.ID = newID()
		q.CreatedAt = t

		sources, err := encodeJSON(nonNil(q.Sources))
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			q.ID, q.Level, q.Topic, q.Subtopic, q.Difficulty, q.Stem, q.OptionA, q.OptionB,
			q.OptionC, q.CorrectAnswer, q.Explanation, q.LOS, sources, q.GenerationJobID,
			q.CreatedBy, q.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetQuestion retrieves a question by ID
func (s *Store) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, notFound(err, "question")
	}
	return q, nil
}

// ListQuestions returns questions in insertion order
func (s *Store) ListQuestions(ctx context.Context, f QuestionFilter) ([]domain.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE 1=1"
	var args []any
	if f.Level != "" {
		query += " AND level = ?"
		args = append(args, f.Level)
	}
	if f.Topic != "" {
		query += " AND topic = ?"
		args = append(args, f.Topic)
	}
	if f.Difficulty != "" {
		query += " AND difficulty = ?"
		args = append(args, f.Difficulty)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " ORDER BY created_at, id LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// CountQuestionsCreatedBy counts questions a user generated since the given time
func (s *Store) CountQuestionsCreatedBy(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM questions WHERE created_by = ? AND created_at >= ?",
		userID, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var (
		q       domain.Question
		sources string
	)
	if err := row.Scan(&q.ID, &q.Level, &q.Topic, &q.Subtopic, &q.Difficulty, &q.Stem,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.CorrectAnswer, &q.Explanation, &q.LOS,
		&sources, &q.GenerationJobID, &q.CreatedBy, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &q.Sources); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}
	return &q, nil
}
