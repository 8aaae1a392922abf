// Package ocr defines the text-recognition capability consumed by the page
// analyzer. The tesseract subpackage provides the production engine; tests
// substitute fakes.
package ocr

import (
	"context"
	"image"
)

// Engine recognizes text in a page image.
type Engine interface {
	// Recognize returns the raw extracted text for img in the given
	// language (a Tesseract language code, e.g. "spa").
	Recognize(ctx context.Context, img image.Image, language string) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image, language string) (string, error)

func (f EngineFunc) Recognize(ctx context.Context, img image.Image, language string) (string, error) {
	return f(ctx, img, language)
}
