// Package tesseract implements ocr.Engine over the gosseract Tesseract
// binding.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine performs OCR through a Tesseract client. A fresh client is created
// per Recognize call: gosseract clients are not safe for concurrent use and
// page analysis runs in parallel.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

// Recognize runs OCR on img and returns the trimmed plain text.
func (e *Engine) Recognize(ctx context.Context, img image.Image, language string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("tesseract: encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("tesseract: set image: %w", err)
	}
	if language != "" {
		if err := c.SetLanguage(language); err != nil {
			return "", fmt.Errorf("tesseract: set language %q: %w", language, err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("tesseract: set page seg mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}
