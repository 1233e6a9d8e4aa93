package pipeline

import (
	"context"
	"fmt"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

// RunRepository handles database operations for job run tracking
type RunRepository interface {
	Start(ctx context.Context, run domain.JobRun) error
	Finish(ctx context.Context, run domain.JobRun) error
	Recent(ctx context.Context, job string, limit int) ([]domain.JobRun, error)
}

type runRepository struct {
	db *sqlstore.DB
}

// NewRunRepository creates a new job run repository
func NewRunRepository(db *sqlstore.DB) RunRepository {
	return &runRepository{db: db}
}

// Start records a new run
func (r *runRepository) Start(ctx context.Context, run domain.JobRun) error {
	query := r.db.Rebind(`
		INSERT INTO job_runs (id, job, status, rows_written, started_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.Job, run.Status, run.Rows, run.StartedAt); err != nil {
		return fmt.Errorf("error recording job run: %w", err)
	}
	return nil
}

// Finish stores the outcome of a run
func (r *runRepository) Finish(ctx context.Context, run domain.JobRun) error {
	query := r.db.Rebind(`
		UPDATE job_runs
		SET status = ?, rows_written = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query, run.Status, run.Rows, run.ErrorMessage, run.FinishedAt, run.ID); err != nil {
		return fmt.Errorf("error finishing job run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first. An empty job matches every
// job.
func (r *runRepository) Recent(ctx context.Context, job string, limit int) ([]domain.JobRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, job, status, rows_written, error_message, started_at, finished_at
		FROM job_runs`
	var args []any
	if job != "" {
		query += ` WHERE job = ?`
		args = append(args, job)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	var runs []domain.JobRun
	if err := r.db.SelectContext(ctx, &runs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error listing job runs: %w", err)
	}
	return runs, nil
}
