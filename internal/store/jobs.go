package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pbaille/cfaprep/internal/domain"
)

const jobColumns = "id, kind, status, input, result_id, error, created_at, updated_at, completed_at"

// JobFilter narrows ListJobs
type JobFilter struct {
	Kind   string
	Status string
	Limit  int
}

// CreateJob records a new generation job in the processing state
func (s *Store) CreateJob(ctx context.Context, kind string, input any) (*domain.GenerationJob, error) {
	encoded, err := encodeJSON(input)
	if err != nil {
		return nil, err
	}

	t := now()
	job := &domain.GenerationJob{
		ID:        newID(),
		Kind:      kind,
		Status:    domain.JobProcessing,
		Input:     encoded,
		CreatedAt: t,
		UpdatedAt: t,
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO generation_jobs (id, kind, status, input, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		job.ID, job.Kind, job.Status, job.Input, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// CompleteJob marks a job completed with the ID of what it produced
func (s *Store) CompleteJob(ctx context.Context, id, resultID string) error {
	return s.finishJob(ctx, id, domain.JobCompleted, resultID, "")
}

// FailJob marks a job failed with an error message
func (s *Store) FailJob(ctx context.Context, id, message string) error {
	return s.finishJob(ctx, id, domain.JobFailed, "", message)
}

func (s *Store) finishJob(ctx context.Context, id, status, resultID, message string) error {
	t := now()
	res, err := s.db.ExecContext(ctx,
		"UPDATE generation_jobs SET status = ?, result_id = ?, error = ?, updated_at = ?, completed_at = ? WHERE id = ?",
		status, resultID, message, t, t, id,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job: %w", ErrNotFound)
	}
	return nil
}

// GetJob retrieves a job by ID
func (s *Store) GetJob(ctx context.Context, id string) (*domain.GenerationJob, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM generation_jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err != nil {
		return nil, notFound(err, "job")
	}
	return job, nil
}

// ListJobs returns jobs newest first
func (s *Store) ListJobs(ctx context.Context, f JobFilter) ([]domain.GenerationJob, error) {
	query := "SELECT " + jobColumns + " FROM generation_jobs WHERE 1=1"
	var args []any
	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, f.Kind)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	var (
		job         domain.GenerationJob
		completedAt sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.Kind, &job.Status, &job.Input, &job.ResultID, &job.Error,
		&job.CreatedAt, &job.UpdatedAt, &completedAt); err != nil {
		return nil, err
	}
	job.CompletedAt = nullTime(completedAt)
	return &job, nil
}
