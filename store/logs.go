package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hugobastidas/pdf-loan-splitter/dbopen"
)

// LogEntry is one append-only processing log record for a job.
type LogEntry struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendLog records one processing log line. Entries are never updated or
// deleted.
func (s *Store) AppendLog(ctx context.Context, jobID, level, message string) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO processing_logs (job_id, level, message, created_at)
		VALUES (?, ?, ?, ?)
	`, jobID, level, message, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: append log: %w", err)
	}
	return nil
}

// ListLogs returns a job's log entries in append order.
func (s *Store) ListLogs(ctx context.Context, jobID string) ([]*LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, level, message, created_at
		FROM processing_logs
		WHERE job_id = ?
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("store: list logs: %w", err)
	}
	defer rows.Close()

	var entries []*LogEntry
	for rows.Next() {
		var (
			e         LogEntry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.JobID, &e.Level, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("store: list logs: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
