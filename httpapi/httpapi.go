// Package httpapi is the HTTP surface of the splitter: PDF upload, job
// status, processing logs, and document download. Handlers are thin; all
// processing happens in the worker pool, so a successful upload only means
// the job is queued.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hugobastidas/pdf-loan-splitter/config"
	"github.com/hugobastidas/pdf-loan-splitter/store"
)

var pdfMagic = []byte("%PDF-")

// Service serves the job API on top of the store.
type Service struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// New creates the API service.
func New(cfg *config.Config, s *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, store: s, logger: logger}
}

// RegisterHTTP mounts the API routes on the router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Post("/api/v1/jobs", s.handleUpload)
	r.Get("/api/v1/jobs", s.handleListJobs)
	r.Get("/api/v1/jobs/{job_id}", s.handleGetJob)
	r.Get("/api/v1/jobs/{job_id}/logs", s.handleJobLogs)
	r.Get("/api/v1/jobs/{job_id}/documents", s.handleJobDocuments)
	r.Get("/api/v1/documents/{document_id}/download", s.handleDownload)
	r.Get("/healthz", s.handleHealth)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload receives a multipart PDF ("file" field), stores it under the
// input directory, and queues a PENDING job.
// POST /api/v1/jobs
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadSize {
		http.Error(w, fmt.Sprintf("Upload exceeds %d bytes", s.cfg.MaxUploadSize),
			http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("Upload exceeds %d bytes", s.cfg.MaxUploadSize),
				http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Multipart field 'file' required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." ||
		!strings.EqualFold(filepath.Ext(filename), ".pdf") {
		http.Error(w, "Only .pdf files are accepted", http.StatusBadRequest)
		return
	}

	magic := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, magic); err != nil || !bytes.Equal(magic, pdfMagic) {
		http.Error(w, "File is not a PDF", http.StatusBadRequest)
		return
	}

	jobID := uuid.NewString()
	sourcePath := filepath.Join(s.cfg.InputDir(), jobID+".pdf")
	if err := s.savePDF(sourcePath, magic, file); err != nil {
		s.logger.Error("save upload failed", "error", err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}

	job, err := s.store.CreateJob(r.Context(), jobID, filename, sourcePath)
	if err != nil {
		s.logger.Error("create job failed", "error", err)
		os.Remove(sourcePath)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("job queued", "job_id", jobID, "filename", filename)
	writeJSON(w, http.StatusCreated, job)
}

// savePDF writes the already-consumed magic bytes followed by the rest of
// the upload stream.
func (s *Service) savePDF(path string, magic []byte, rest io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(magic), rest)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}

// GET /api/v1/jobs?limit=N
func (s *Service) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	jobs, err := s.store.ListJobs(r.Context(), limit)
	if err != nil {
		s.logger.Error("list jobs failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GET /api/v1/jobs/{job_id}
func (s *Service) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.Context(), chi.URLParam(r, "job_id"))
	if err == store.ErrNotFound {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get job failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /api/v1/jobs/{job_id}/logs
func (s *Service) handleJobLogs(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := s.store.GetJob(r.Context(), jobID); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.logger.Error("get job failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	logs, err := s.store.ListLogs(r.Context(), jobID)
	if err != nil {
		s.logger.Error("list logs failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []*store.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// GET /api/v1/jobs/{job_id}/documents
func (s *Service) handleJobDocuments(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if _, err := s.store.GetJob(r.Context(), jobID); err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.logger.Error("get job failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	docs, err := s.store.ListDocuments(r.Context(), jobID)
	if err != nil {
		s.logger.Error("list documents failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// GET /api/v1/documents/{document_id}/download
func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "document_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid document_id", http.StatusBadRequest)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err == store.ErrNotFound {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("get document failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(doc.FilePath)
	if err != nil {
		s.logger.Error("open document file failed", "path", doc.FilePath, "error", err)
		http.Error(w, "Document file missing", http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.Filename))
	http.ServeContent(w, r, doc.Filename, doc.CreatedAt, f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
