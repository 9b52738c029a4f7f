package store

import (
	"context"
	"fmt"

	"github.com/pbaille/cfaprep/internal/domain"
)

// RecordAttempt stores a user's answer to a question
func (s *Store) RecordAttempt(ctx context.Context, a *domain.Attempt) error {
	a.ID = newID()
	a.CreatedAt = now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO attempts (id, user_id, question_id, selected, correct, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, a.QuestionID, a.Selected, a.Correct, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Progress aggregates a user's attempts per topic
func (s *Store) Progress(ctx context.Context, userID string) (*domain.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.topic, COUNT(*), SUM(a.correct)
		FROM attempts a
		JOIN questions q ON q.id = a.question_id
		WHERE a.user_id = ?
		GROUP BY q.topic
		ORDER BY q.topic`, userID)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	defer rows.Close()

	progress := &domain.Progress{Topics: []domain.TopicProgress{}}
	for rows.Next() {
		var tp domain.TopicProgress
		if err := rows.Scan(&tp.Topic, &tp.Attempts, &tp.Correct); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		tp.Accuracy = ratio(tp.Correct, tp.Attempts)
		progress.Topics = append(progress.Topics, tp)
		progress.TotalAttempts += tp.Attempts
		progress.TotalCorrect += tp.Correct
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	progress.Accuracy = ratio(progress.TotalCorrect, progress.TotalAttempts)
	return progress, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
