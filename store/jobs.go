package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hugobastidas/pdf-loan-splitter/dbopen"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one end-to-end processing run over a single submitted PDF.
// The ID is assigned at submission time, independent of the table rowid.
type Job struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	SourcePath       string     `json:"-"`
	Status           Status     `json:"status"`
	TotalPages       int        `json:"total_pages"`
	ProcessedPages   int        `json:"processed_pages"`
	DocumentsCreated int        `json:"documents_created"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	ProcessingTime   time.Duration `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

const jobColumns = `id, filename, source_path, status, total_pages, processed_pages,
	documents_created, error_message, processing_ms, created_at, started_at, completed_at`

// CreateJob inserts a new PENDING job.
func (s *Store) CreateJob(ctx context.Context, id, filename, sourcePath string) (*Job, error) {
	now := time.Now()
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO jobs (id, filename, source_path, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, filename, sourcePath, StatusPending, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("store: create job: %w", err)
	}
	return &Job{
		ID:         id,
		Filename:   filename,
		SourcePath: sourcePath,
		Status:     StatusPending,
		CreatedAt:  now,
	}, nil
}

// ClaimNext atomically claims the oldest PENDING job and transitions it to
// PROCESSING, recording the start time and resetting progress counters.
// Returns nil, nil when nothing is pending. The atomic claim guarantees
// at-most-one worker per job.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	var job *Job
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRow(`
			SELECT id FROM jobs
			WHERE status = ?
			ORDER BY created_at ASC, rowid ASC
			LIMIT 1
		`, StatusPending)

		var id string
		if err := row.Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}

		now := time.Now()
		res, err := tx.Exec(`
			UPDATE jobs
			SET status = ?, started_at = ?, processed_pages = 0,
				documents_created = 0, total_pages = 0
			WHERE id = ? AND status = ?
		`, StatusProcessing, now.Unix(), id, StatusPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Another worker got there first.
			return nil
		}

		j, err := scanJob(tx.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
		if err != nil {
			return err
		}
		job = j
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: claim job: %w", err)
	}
	return job, nil
}

// GetJob fetches one job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get job: %w", err)
	}
	return j, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list jobs: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// SetTotalPages records the page count once rasterization succeeds.
func (s *Store) SetTotalPages(ctx context.Context, id string, n int) error {
	_, err := dbopen.Exec(ctx, s.db, `
		UPDATE jobs SET total_pages = ? WHERE id = ? AND status = ?
	`, n, id, StatusProcessing)
	return err
}

// UpdateProgress records how many pages have been analyzed so far. Progress
// is monotonic: a stale update from an out-of-order analysis worker never
// lowers the counter.
func (s *Store) UpdateProgress(ctx context.Context, id string, processedPages int) error {
	_, err := dbopen.Exec(ctx, s.db, `
		UPDATE jobs SET processed_pages = MAX(processed_pages, ?)
		WHERE id = ? AND status = ?
	`, processedPages, id, StatusProcessing)
	return err
}

// CompleteJob transitions PROCESSING → COMPLETED, recording final counters
// and elapsed time. Returns ErrNotProcessing if the job is not PROCESSING.
func (s *Store) CompleteJob(ctx context.Context, id string, processedPages, documentsCreated int, elapsed time.Duration) error {
	res, err := dbopen.Exec(ctx, s.db, `
		UPDATE jobs
		SET status = ?, processed_pages = ?, documents_created = ?,
			processing_ms = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`, StatusCompleted, processedPages, documentsCreated,
		elapsed.Milliseconds(), time.Now().Unix(), id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("store: complete job: %w", err)
	}
	return requireOneRow(res)
}

// FailJob transitions PROCESSING → FAILED with a single human-readable
// error message. Counters already written reflect partial progress and are
// not rolled back. Returns ErrNotProcessing if the job is not PROCESSING.
func (s *Store) FailJob(ctx context.Context, id, errMsg string, elapsed time.Duration) error {
	res, err := dbopen.Exec(ctx, s.db, `
		UPDATE jobs
		SET status = ?, error_message = ?, processing_ms = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`, StatusFailed, errMsg, elapsed.Milliseconds(), time.Now().Unix(), id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("store: fail job: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotProcessing
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j             Job
		processingMS  int64
		createdAt     int64
		startedAt     sql.NullInt64
		completedAt   sql.NullInt64
	)
	err := row.Scan(
		&j.ID, &j.Filename, &j.SourcePath, &j.Status,
		&j.TotalPages, &j.ProcessedPages, &j.DocumentsCreated,
		&j.ErrorMessage, &processingMS, &createdAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	j.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	j.CreatedAt = time.Unix(createdAt, 0)
	if startedAt.Valid {
		t := time.Unix(startedAt.Int64, 0)
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		j.CompletedAt = &t
	}
	return &j, nil
}
