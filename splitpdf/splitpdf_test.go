package splitpdf

import (
	"context"
	"path/filepath"
	"testing"
)

func TestWriteSubPDFNoPages(t *testing.T) {
	w := New()
	err := w.WriteSubPDF(context.Background(), "in.pdf", nil, filepath.Join(t.TempDir(), "out.pdf"))
	if err == nil {
		t.Fatal("expected error for empty page selection")
	}
}

func TestWriteSubPDFInvalidPage(t *testing.T) {
	w := New()
	err := w.WriteSubPDF(context.Background(), "in.pdf", []int{0}, filepath.Join(t.TempDir(), "out.pdf"))
	if err == nil {
		t.Fatal("expected error for page index 0")
	}
}

func TestWriteSubPDFMissingSource(t *testing.T) {
	dir := t.TempDir()
	w := New()
	err := w.WriteSubPDF(context.Background(), filepath.Join(dir, "missing.pdf"), []int{1}, filepath.Join(dir, "out.pdf"))
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestWriteSubPDFCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New()
	if err := w.WriteSubPDF(ctx, "in.pdf", []int{1}, "out.pdf"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPageCountMissingFile(t *testing.T) {
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
