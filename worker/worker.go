// Package worker runs the job queue: it claims pending jobs from the store
// (atomically, so at most one worker ever owns a job), drives the pipeline,
// and records the terminal transition. A job that enters PROCESSING always
// reaches COMPLETED or FAILED — pipeline errors, panics, and timeouts all
// funnel into FailJob.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hugobastidas/pdf-loan-splitter/config"
	"github.com/hugobastidas/pdf-loan-splitter/pipeline"
	"github.com/hugobastidas/pdf-loan-splitter/store"
)

// Runner is the pipeline surface the worker drives. *pipeline.Pipeline
// implements it; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, jobID, sourcePath, outputDir string, hooks pipeline.Hooks) (*pipeline.Result, error)
}

// Pool polls for pending jobs and processes them on cfg.Workers goroutines.
type Pool struct {
	cfg    *config.Config
	store  *store.Store
	runner Runner
	logger *slog.Logger
}

// New creates a worker pool.
func New(cfg *config.Config, s *store.Store, runner Runner, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{cfg: cfg, store: s, runner: runner, logger: logger}
}

// Start launches the polling loops. They stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		go p.loop(ctx, i)
	}
	p.logger.Info("worker pool started", "workers", p.cfg.Workers)
}

func (p *Pool) loop(ctx context.Context, id int) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

// drain processes pending jobs until the queue is empty.
func (p *Pool) drain(ctx context.Context) {
	for {
		ok, err := p.ProcessOne(ctx)
		if err != nil {
			p.logger.Error("claim failed", "error", err)
			return
		}
		if !ok || ctx.Err() != nil {
			return
		}
	}
}

// ProcessOne claims and processes a single pending job. It reports whether
// a job was claimed; the job's own outcome lands in the store, not in the
// returned error.
func (p *Pool) ProcessOne(ctx context.Context) (bool, error) {
	job, err := p.store.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	p.process(ctx, job)
	return true, nil
}

func (p *Pool) process(ctx context.Context, job *store.Job) {
	start := time.Now()
	logger := p.logger.With("job_id", job.ID, "filename", job.Filename)
	logger.Info("job claimed")

	if err := p.store.AppendLog(ctx, job.ID, "INFO",
		fmt.Sprintf("processing started: %s", job.Filename)); err != nil {
		logger.Error("append log failed", "error", err)
	}

	res, err := p.runGuarded(ctx, job)

	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job failed", "error", err, "elapsed", elapsed)
		if ferr := p.store.FailJob(ctx, job.ID, err.Error(), elapsed); ferr != nil {
			logger.Error("record failure failed", "error", ferr)
		}
		if lerr := p.store.AppendLog(ctx, job.ID, "ERROR",
			fmt.Sprintf("processing failed: %s", err.Error())); lerr != nil {
			logger.Error("append log failed", "error", lerr)
		}
		return
	}

	if err := p.store.CompleteJob(ctx, job.ID, res.ProcessedPages, len(res.Documents), elapsed); err != nil {
		logger.Error("record completion failed", "error", err)
		return
	}
	if err := p.store.AppendLog(ctx, job.ID, "INFO",
		fmt.Sprintf("processing completed: %d documents from %d pages in %s",
			len(res.Documents), res.TotalPages, elapsed.Round(time.Millisecond))); err != nil {
		logger.Error("append log failed", "error", err)
	}
	logger.Info("job completed",
		"documents", len(res.Documents),
		"pages", res.TotalPages,
		"elapsed", elapsed)
}

// runGuarded executes the pipeline under the advisory job timeout and a
// catch-all panic boundary, so every claimed job reaches a terminal state.
func (p *Pool) runGuarded(ctx context.Context, job *store.Job) (res *pipeline.Result, err error) {
	runCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	outputDir := p.cfg.OutputDir(job.ID)
	if mkErr := os.MkdirAll(outputDir, 0o755); mkErr != nil {
		return nil, fmt.Errorf("create output dir: %w", mkErr)
	}

	var totalOnce sync.Once
	hooks := pipeline.Hooks{
		OnProgress: func(hctx context.Context, processed, total int) {
			totalOnce.Do(func() {
				if uerr := p.store.SetTotalPages(hctx, job.ID, total); uerr != nil {
					p.logger.Error("set total pages failed", "job_id", job.ID, "error", uerr)
				}
			})
			if processed > 0 {
				if uerr := p.store.UpdateProgress(hctx, job.ID, processed); uerr != nil {
					p.logger.Error("update progress failed", "job_id", job.ID, "error", uerr)
				}
			}
		},
		OnDocument: func(hctx context.Context, d pipeline.OutputDocument) error {
			return p.store.InsertDocument(hctx, &store.Document{
				JobID:         job.ID,
				Type:          d.Type,
				BarcodeValue:  d.BarcodeValue,
				BarcodeType:   d.BarcodeType,
				Filename:      d.Filename,
				FilePath:      d.FilePath,
				PageStart:     d.StartPage,
				PageEnd:       d.EndPage,
				TotalPages:    len(d.Pages),
				HasBlankPages: d.HasBlankPages,
				OCRText:       d.OCRText,
			})
		},
	}

	res, err = p.runner.Run(runCtx, job.ID, job.SourcePath, outputDir, hooks)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("job timeout after %s: %w", p.cfg.JobTimeout, err)
		}
		return nil, err
	}
	return res, nil
}
