package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the job_runs audit trail.
type Store struct {
	db DB
}

// NewStore creates a job-run store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const runColumns = `id, job_name, status, source, started_at, finished_at, duration_ms, items_processed, error_text, metadata`

// InsertRunning records the start of a run.
func (s *Store) InsertRunning(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	_, err := s.db.Exec(ctx, `
		INSERT INTO job_runs (id, job_name, status, source, started_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.JobName, string(run.Status), string(run.Source), run.StartedAt, run.Metadata)
	if err != nil {
		return fmt.Errorf("jobs: insert running: %w", err)
	}
	return nil
}

// MarkCompleted closes a run as successful.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID, duration time.Duration, items int) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		UPDATE job_runs
		SET status = 'COMPLETED', finished_at = $1, duration_ms = $2, items_processed = $3
		WHERE id = $4`, now, duration.Milliseconds(), items, id)
	if err != nil {
		return fmt.Errorf("jobs: mark completed: %w", err)
	}
	return nil
}

// MarkFailed closes a run with the error text.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, duration time.Duration, errText string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		UPDATE job_runs
		SET status = 'FAILED', finished_at = $1, duration_ms = $2, error_text = $3
		WHERE id = $4`, now, duration.Milliseconds(), errText, id)
	if err != nil {
		return fmt.Errorf("jobs: mark failed: %w", err)
	}
	return nil
}

// MarkAbandoned closes a stuck RUNNING row so the schedule is never
// permanently wedged by one dead run.
func (s *Store) MarkAbandoned(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		UPDATE job_runs
		SET status = 'FAILED', finished_at = $1, error_text = 'abandoned: exceeded job timeout'
		WHERE id = $2 AND status = 'RUNNING'`, now, id)
	if err != nil {
		return fmt.Errorf("jobs: mark abandoned: %w", err)
	}
	return nil
}

// FindRunning returns the most recent RUNNING row for a job, or nil.
// This row, not any in-memory flag, is the durable truth the stuck-job
// check trusts.
func (s *Store) FindRunning(ctx context.Context, jobName string) (*Run, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+runColumns+`
		FROM job_runs
		WHERE job_name = $1 AND status = 'RUNNING'
		ORDER BY started_at DESC LIMIT 1`, jobName)
	if err != nil {
		return nil, fmt.Errorf("jobs: find running: %w", err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Recent returns the last n runs for a job, newest first.
func (s *Store) Recent(ctx context.Context, jobName string, n int) ([]Run, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+runColumns+`
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC LIMIT $2`, jobName, n)
	if err != nil {
		return nil, fmt.Errorf("jobs: recent: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]Run, error) {
	var result []Run
	for rows.Next() {
		var r Run
		var status, source string
		err := rows.Scan(
			&r.ID, &r.JobName, &status, &source, &r.StartedAt, &r.FinishedAt,
			&r.DurationMS, &r.ItemsProcessed, &r.ErrorText, &r.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("jobs: scan run: %w", err)
		}
		r.Status = RunStatus(status)
		r.Source = Source(source)
		result = append(result, r)
	}
	return result, rows.Err()
}
