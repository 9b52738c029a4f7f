package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// CurriculumTopic is one topic area of an exam level
type CurriculumTopic struct {
	Level     string   `json:"level"`
	Name      string   `json:"name"`
	WeightMin float64  `json:"weight_min"`
	WeightMax float64  `json:"weight_max"`
	Readings  []string `json:"readings,omitempty"`
}

// ReplaceCurriculum swaps the stored topic map for the given topics
func (s *Store) ReplaceCurriculum(ctx context.Context, topics []CurriculumTopic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM curriculum_topics"); err != nil {
		return fmt.Errorf("clear curriculum: %w", err)
	}

	for _, t := range topics {
		readings, err := encodeJSON(nonNil(t.Readings))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO curriculum_topics (level, name, weight_min, weight_max, readings) VALUES (?, ?, ?, ?, ?)",
			t.Level, t.Name, t.WeightMin, t.WeightMax, readings,
		); err != nil {
			return fmt.Errorf("insert topic %s/%s: %w", t.Level, t.Name, err)
		}
	}

	return tx.Commit()
}

// ListCurriculum returns topics, optionally for one level
func (s *Store) ListCurriculum(ctx context.Context, level string) ([]CurriculumTopic, error) {
	query := "SELECT level, name, weight_min, weight_max, readings FROM curriculum_topics"
	var args []any
	if level != "" {
		query += " WHERE level = ?"
		args = append(args, level)
	}
	query += " ORDER BY level, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list curriculum: %w", err)
	}
	defer rows.Close()

	var topics []CurriculumTopic
	for rows.Next() {
		var (
			t        CurriculumTopic
			readings string
		)
		if err := rows.Scan(&t.Level, &t.Name, &t.WeightMin, &t.WeightMax, &readings); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		if err := json.Unmarshal([]byte(readings), &t.Readings); err != nil {
			return nil, fmt.Errorf("decode readings: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// TopicKnown reports whether the curriculum is empty (nothing to check
// against) or contains the level/topic pair.
func (s *Store) TopicKnown(ctx context.Context, level, topic string) (bool, error) {
	var total, match int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN level = ? AND name = ? THEN 1 ELSE 0 END), 0)
		FROM curriculum_topics`, level, topic,
	).Scan(&total, &match)
	if err != nil {
		return false, fmt.Errorf("check topic: %w", err)
	}
	return total == 0 || match > 0, nil
}
