// Package splitpdf writes sub-PDFs: given the source PDF and a list of page
// indices, it collects exactly those pages into a new file. The production
// implementation uses pdfcpu; the pipeline depends only on the Writer
// interface so tests can substitute fakes.
package splitpdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Writer emits one sub-PDF containing the given 1-based pages of the source,
// in the order given.
type Writer interface {
	WriteSubPDF(ctx context.Context, sourcePath string, pages []int, destPath string) error
}

// WriterFunc adapts a function to the Writer interface.
type WriterFunc func(ctx context.Context, sourcePath string, pages []int, destPath string) error

func (f WriterFunc) WriteSubPDF(ctx context.Context, sourcePath string, pages []int, destPath string) error {
	return f(ctx, sourcePath, pages, destPath)
}

// PdfcpuWriter is the production Writer.
type PdfcpuWriter struct{}

// New constructs a PdfcpuWriter.
func New() *PdfcpuWriter {
	return &PdfcpuWriter{}
}

func (w *PdfcpuWriter) WriteSubPDF(ctx context.Context, sourcePath string, pages []int, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("splitpdf: no pages selected for %s", destPath)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("splitpdf: mkdir: %w", err)
	}

	sel := make([]string, len(pages))
	for i, p := range pages {
		if p < 1 {
			return fmt.Errorf("splitpdf: invalid page index %d", p)
		}
		sel[i] = strconv.Itoa(p)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.CollectFile(sourcePath, destPath, sel, conf); err != nil {
		return fmt.Errorf("splitpdf: collect pages into %s: %w", destPath, err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF. Used to sanity-check the
// source before rasterization.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("splitpdf: page count of %s: %w", path, err)
	}
	return n, nil
}
