// Package store persists jobs, split documents, and processing logs in
// SQLite. It owns the job state machine: PENDING → PROCESSING → COMPLETED
// or FAILED, one-directional. Terminal rows are never mutated again; the
// transition statements guard on the current status so a stale writer
// gets ErrNotProcessing instead of clobbering a finished job.
package store

import (
	"database/sql"
	"errors"
)

// Schema creates all tables. Applied by Init; idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	source_path TEXT NOT NULL,
	status TEXT NOT NULL,
	total_pages INTEGER NOT NULL DEFAULT 0,
	processed_pages INTEGER NOT NULL DEFAULT 0,
	documents_created INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	processing_ms INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	started_at INTEGER,
	completed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);

CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL REFERENCES jobs(id),
	document_type TEXT NOT NULL,
	barcode_value TEXT NOT NULL DEFAULT '',
	barcode_type TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	file_path TEXT NOT NULL,
	page_start INTEGER NOT NULL,
	page_end INTEGER NOT NULL,
	total_pages INTEGER NOT NULL,
	has_blank_pages INTEGER NOT NULL DEFAULT 0,
	ocr_text TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_job ON documents(job_id);

CREATE TABLE IF NOT EXISTS processing_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_job ON processing_logs(job_id);
`

var (
	// ErrNotFound is returned when a job or document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrNotProcessing is returned when a terminal transition is attempted
	// on a job that is not currently PROCESSING.
	ErrNotProcessing = errors.New("store: job not in processing state")
)

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// New creates a Store backed by the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema if it doesn't exist.
func (s *Store) Init() error {
	_, err := s.db.Exec(Schema)
	return err
}
