// Package raster defines the page-image source capability: an ordered
// sequence of rasterized pages for a PDF at a configured resolution. The
// production implementation renders through go-fitz (MuPDF); tests use
// in-memory fakes.
package raster

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Rasterizer produces page images for a PDF document.
type Rasterizer interface {
	// Open prepares the document at path for rendering.
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open PDF yielding page images. Pages are 1-based.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// Render rasterizes page n (1-based) at the given DPI.
	Render(ctx context.Context, n int, dpi int) (image.Image, error)
	// Close releases rendering resources.
	Close() error
}

// FitzRasterizer renders pages with MuPDF.
type FitzRasterizer struct{}

// NewFitz constructs the production rasterizer.
func NewFitz() *FitzRasterizer {
	return &FitzRasterizer{}
}

func (r *FitzRasterizer) Open(ctx context.Context, path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) Render(ctx context.Context, n int, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 || n > d.doc.NumPage() {
		return nil, fmt.Errorf("raster: page %d out of range [1,%d]", n, d.doc.NumPage())
	}
	// go-fitz pages are 0-based.
	img, err := d.doc.ImageDPI(n-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("raster: render page %d: %w", n, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
