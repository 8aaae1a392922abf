// Package pipeline orchestrates one job run: rasterize the source PDF,
// analyze pages, segment on separator barcodes, classify, and write one
// sub-PDF per document.
//
// Page analysis fans out over a bounded worker group but results are
// reassembled by page index, so segmentation always sees pages in strict
// ascending order. Per-page failures degrade to content pages; job-level
// failures (unreadable source, output write) abort the run with an error
// the caller turns into a FAILED job.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hugobastidas/pdf-loan-splitter/classify"
	"github.com/hugobastidas/pdf-loan-splitter/pagescan"
	"github.com/hugobastidas/pdf-loan-splitter/raster"
	"github.com/hugobastidas/pdf-loan-splitter/segment"
	"github.com/hugobastidas/pdf-loan-splitter/splitpdf"
)

// OutputDocument is one classified sub-PDF produced by a run.
type OutputDocument struct {
	Type          classify.DocumentType
	BarcodeValue  string
	BarcodeType   string
	Filename      string
	FilePath      string
	StartPage     int
	EndPage       int
	Pages         []int
	HasBlankPages bool
	OCRText       string
}

// Result summarizes a completed run.
type Result struct {
	TotalPages     int
	ProcessedPages int
	BlankPages     int
	SeparatorPages int
	Documents      []OutputDocument
}

// Hooks let the caller observe the run as it progresses. Both are optional.
// OnDocument is invoked once per written sub-PDF, in order; an error from it
// aborts the run.
type Hooks struct {
	OnProgress func(ctx context.Context, processedPages, totalPages int)
	OnDocument func(ctx context.Context, doc OutputDocument) error
}

func (h Hooks) progress(ctx context.Context, processed, total int) {
	if h.OnProgress != nil {
		h.OnProgress(ctx, processed, total)
	}
}

// Config configures a Pipeline.
type Config struct {
	Rasterizer raster.Rasterizer
	Writer     splitpdf.Writer
	Analyzer   *pagescan.Analyzer
	Classifier *classify.Classifier

	// DPI for page rasterization. Default 300.
	DPI int

	// AnalysisWorkers bounds concurrent page analysis. Default 4.
	AnalysisWorkers int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.AnalysisWorkers <= 0 {
		c.AnalysisWorkers = 4
	}
	if c.Classifier == nil {
		c.Classifier = classify.New(nil)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline drives the segmentation and classification stages for one job at
// a time. Safe for concurrent use across jobs.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg}
}

// Run processes one source PDF end to end, writing sub-PDFs into outputDir.
// The returned error, if any, describes the first unrecoverable failure;
// documents already written stay on disk (no rollback).
func (p *Pipeline) Run(ctx context.Context, jobID, sourcePath, outputDir string, hooks Hooks) (*Result, error) {
	logger := p.cfg.Logger.With("job_id", jobID)

	doc, err := p.cfg.Rasterizer.Open(ctx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source pdf: %w", err)
	}
	defer doc.Close()

	total := doc.PageCount()
	logger.Info("source opened", "pages", total)
	hooks.progress(ctx, 0, total)

	analyses, err := p.analyzePages(ctx, logger, doc, total, hooks)
	if err != nil {
		return nil, err
	}

	res := &Result{TotalPages: total, ProcessedPages: total}
	for _, a := range analyses {
		switch a.Label() {
		case pagescan.LabelBlank:
			res.BlankPages++
		case pagescan.LabelSeparator:
			res.SeparatorPages++
		}
	}

	segs, err := segment.Split(analyses)
	if err != nil {
		return nil, fmt.Errorf("segment pages: %w", err)
	}
	logger.Info("segmentation done",
		"documents", len(segs),
		"separators", res.SeparatorPages,
		"blank_pages", res.BlankPages)

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	for i, seg := range segs {
		out, err := p.emitDocument(ctx, sourcePath, outputDir, base, i+1, seg, analyses)
		if err != nil {
			return nil, err
		}
		if hooks.OnDocument != nil {
			if err := hooks.OnDocument(ctx, out); err != nil {
				return nil, fmt.Errorf("record document %d (%s): %w", i+1, out.Filename, err)
			}
		}
		res.Documents = append(res.Documents, out)
	}

	return res, nil
}

// analyzePages renders pages in order and analyzes them on a bounded worker
// group. Rendering stays sequential (the renderer is not concurrency-safe);
// the group's limit throttles it so at most AnalysisWorkers page images are
// in flight. Results land in an index-addressed slice, which restores
// ascending page order for the segmenter.
func (p *Pipeline) analyzePages(ctx context.Context, logger *slog.Logger, doc raster.Document, total int, hooks Hooks) ([]pagescan.Analysis, error) {
	analyses := make([]pagescan.Analysis, total)
	var processed atomic.Int64

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.AnalysisWorkers)

	for i := 0; i < total; i++ {
		pageNr := i + 1

		img, err := doc.Render(ctx, pageNr, p.cfg.DPI)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Degraded page: analyzed as content with empty text.
			logger.Warn("render failed", "page", pageNr, "error", err)
			img = nil
		}

		idx := i
		eg.Go(func() error {
			analyses[idx] = p.cfg.Analyzer.Analyze(gctx, pageNr, img)
			hooks.progress(gctx, int(processed.Add(1)), total)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("analyze pages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}

// emitDocument classifies one segmented document and writes its sub-PDF.
func (p *Pipeline) emitDocument(ctx context.Context, sourcePath, outputDir, base string, docNum int, seg segment.Document, analyses []pagescan.Analysis) (OutputDocument, error) {
	var texts []string
	for _, pageNr := range seg.Pages {
		if t := analyses[pageNr-1].Text; t != "" {
			texts = append(texts, t)
		}
	}
	ocrText := strings.Join(texts, " ")

	out := OutputDocument{
		Type:          p.cfg.Classifier.Classify(seg.BarcodeValue, ocrText),
		BarcodeValue:  seg.BarcodeValue,
		BarcodeType:   seg.BarcodeType,
		Filename:      fmt.Sprintf("%s_doc_%d.pdf", base, docNum),
		StartPage:     seg.StartPage,
		EndPage:       seg.EndPage,
		Pages:         seg.Pages,
		HasBlankPages: seg.HasBlankPages,
		OCRText:       ocrText,
	}
	out.FilePath = filepath.Join(outputDir, out.Filename)

	if err := p.cfg.Writer.WriteSubPDF(ctx, sourcePath, seg.Pages, out.FilePath); err != nil {
		return OutputDocument{}, fmt.Errorf("write document %d (%s): %w", docNum, out.Filename, err)
	}
	return out, nil
}
