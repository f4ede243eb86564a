package crawljob

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository persists crawl jobs.
type Repository interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]Job, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, pages, blocked int) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO crawl_jobs (urls, query, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, pq.Array(job.URLs), job.Query, job.Status).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save crawl job: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Job, error) {
	query := `
		SELECT id, urls, query, status, pages, blocked, error, created_at, updated_at
		FROM crawl_jobs
		WHERE id = $1`

	var job Job
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, pq.Array(&job.URLs), &job.Query, &job.Status,
		&job.Pages, &job.Blocked, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get crawl job %s: %w", id, err)
	}
	return &job, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Job, error) {
	query := `
		SELECT id, urls, query, status, pages, blocked, error, created_at, updated_at
		FROM crawl_jobs
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(
			&job.ID, pq.Array(&job.URLs), &job.Query, &job.Status,
			&job.Pages, &job.Blocked, &job.Error, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *PostgresRepo) MarkRunning(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, StatusRunning)
}

func (r *PostgresRepo) MarkCompleted(ctx context.Context, id string, pages, blocked int) error {
	query := `
		UPDATE crawl_jobs
		SET status = $2, pages = $3, blocked = $4, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, StatusCompleted, pages, blocked); err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", id, err)
	}
	return nil
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE crawl_jobs
		SET status = $2, error = $3, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, StatusFailed, reason); err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	return nil
}

func (r *PostgresRepo) setStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE crawl_jobs
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to set job %s status %s: %w", id, status, err)
	}
	return nil
}
