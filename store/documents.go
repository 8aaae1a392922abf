package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hugobastidas/pdf-loan-splitter/classify"
	"github.com/hugobastidas/pdf-loan-splitter/dbopen"
)

// Document is one classified split artifact produced from a job.
// Immutable once written.
type Document struct {
	ID            int64                 `json:"id"`
	JobID         string                `json:"job_id"`
	Type          classify.DocumentType `json:"document_type"`
	BarcodeValue  string                `json:"barcode_value,omitempty"`
	BarcodeType   string                `json:"barcode_type,omitempty"`
	Filename      string                `json:"filename"`
	FilePath      string                `json:"-"`
	PageStart     int                   `json:"page_start"`
	PageEnd       int                   `json:"page_end"`
	TotalPages    int                   `json:"total_pages"`
	HasBlankPages bool                  `json:"has_blank_pages"`
	OCRText       string                `json:"ocr_text,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ocrExcerptLimit caps the stored OCR text per document.
const ocrExcerptLimit = 1000

// InsertDocument persists one document row and increments the owning job's
// documents_created counter in the same transaction.
func (s *Store) InsertDocument(ctx context.Context, d *Document) error {
	if len(d.OCRText) > ocrExcerptLimit {
		d.OCRText = d.OCRText[:ocrExcerptLimit]
	}
	d.CreatedAt = time.Now()

	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO documents (job_id, document_type, barcode_value, barcode_type,
				filename, file_path, page_start, page_end, total_pages,
				has_blank_pages, ocr_text, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, d.JobID, string(d.Type), d.BarcodeValue, d.BarcodeType,
			d.Filename, d.FilePath, d.PageStart, d.PageEnd, d.TotalPages,
			boolToInt(d.HasBlankPages), d.OCRText, d.CreatedAt.Unix())
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		d.ID = id

		_, err = tx.Exec(`
			UPDATE jobs SET documents_created = documents_created + 1
			WHERE id = ? AND status = ?
		`, d.JobID, StatusProcessing)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: insert document: %w", err)
	}
	return nil
}

// GetDocument fetches one document by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a job's documents in creation order.
func (s *Store) ListDocuments(ctx context.Context, jobID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE job_id = ?
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list documents: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

const documentColumns = `id, job_id, document_type, barcode_value, barcode_type,
	filename, file_path, page_start, page_end, total_pages, has_blank_pages,
	ocr_text, created_at`

func scanDocument(row rowScanner) (*Document, error) {
	var (
		d         Document
		docType   string
		hasBlank  int
		createdAt int64
	)
	err := row.Scan(
		&d.ID, &d.JobID, &docType, &d.BarcodeValue, &d.BarcodeType,
		&d.Filename, &d.FilePath, &d.PageStart, &d.PageEnd, &d.TotalPages,
		&hasBlank, &d.OCRText, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	d.Type = classify.DocumentType(docType)
	d.HasBlankPages = hasBlank != 0
	d.CreatedAt = time.Unix(createdAt, 0)
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
