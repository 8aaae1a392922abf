// Package pagescan analyzes individual PDF page images: blank detection,
// barcode decoding, and OCR fallback. Analysis of one page is a pure
// function of its image, so distinct pages may be analyzed concurrently.
//
// Per-page failures never propagate: a page whose analysis breaks degrades
// to a content page with empty text, because a single unreadable page must
// not fail an otherwise-good bundle.
package pagescan

import (
	"context"
	"image"
	"image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"github.com/hugobastidas/pdf-loan-splitter/barcode"
	"github.com/hugobastidas/pdf-loan-splitter/ocr"
)

// Label classifies an analyzed page.
type Label string

const (
	LabelSeparator Label = "separator"
	LabelBlank     Label = "blank"
	LabelContent   Label = "content"
)

// Analysis is the per-page result. Exactly one of barcode value, extracted
// text, or plain blankness holds; a page that is both blank and carries a
// decoded barcode labels as separator (barcode wins).
type Analysis struct {
	Index        int // 1-based position in the source PDF
	IsBlank      bool
	BarcodeValue string
	BarcodeType  string
	Text         string
	Degraded     bool // analysis failed; page treated as content with empty text
}

// Label derives the page label: separator if a barcode was decoded, else
// blank if the white ratio cleared the threshold, else content.
func (a Analysis) Label() Label {
	switch {
	case a.BarcodeValue != "":
		return LabelSeparator
	case a.IsBlank:
		return LabelBlank
	default:
		return LabelContent
	}
}

// Config configures an Analyzer.
type Config struct {
	// BlankThreshold is the white-pixel ratio at or above which a page is
	// blank. Default 0.98.
	BlankThreshold float64

	// WhiteCutoff is the 8-bit luminance at or above which a pixel counts
	// as white. Default 240.
	WhiteCutoff uint8

	// Language is the OCR language code. Default "spa".
	Language string

	// Decoder recognizes separator barcodes. Required.
	Decoder barcode.Decoder

	// Engine extracts text from barcode-less content pages. Required.
	Engine ocr.Engine

	// Logger for per-page warnings.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BlankThreshold <= 0 || c.BlankThreshold > 1 {
		c.BlankThreshold = 0.98
	}
	if c.WhiteCutoff == 0 {
		c.WhiteCutoff = 240
	}
	if c.Language == "" {
		c.Language = "spa"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Analyzer computes page analyses. Safe for concurrent use across pages.
type Analyzer struct {
	cfg Config
}

// New creates an Analyzer with the given configuration.
func New(cfg Config) *Analyzer {
	cfg.defaults()
	return &Analyzer{cfg: cfg}
}

// Analyze computes the analysis for one page image. A nil image (the page
// could not be rendered) degrades to content with empty text. OCR runs only
// when no barcode was decoded, to save cost.
func (a *Analyzer) Analyze(ctx context.Context, index int, img image.Image) Analysis {
	an := Analysis{Index: index}

	if img == nil {
		a.cfg.Logger.Warn("page image unavailable, treating as content",
			"page", index)
		an.Degraded = true
		return an
	}

	an.IsBlank = a.WhiteRatio(img) >= a.cfg.BlankThreshold

	sym, err := a.cfg.Decoder.Decode(img)
	if err != nil {
		a.cfg.Logger.Warn("barcode decode failed", "page", index, "error", err)
	}
	if sym != nil {
		an.BarcodeValue = sym.Value
		an.BarcodeType = sym.Format
		return an
	}

	if an.IsBlank {
		return an
	}

	text, err := a.cfg.Engine.Recognize(ctx, img, a.cfg.Language)
	if err != nil {
		a.cfg.Logger.Warn("ocr failed, keeping page with empty text",
			"page", index, "error", err)
		an.Degraded = true
		return an
	}
	an.Text = text
	return an
}

// maxBlankTestDim bounds the image size used for the blank test. A 300 DPI
// A4 render is ~8.7M pixels; the white ratio is stable on a downscale.
const maxBlankTestDim = 1200

// WhiteRatio returns the fraction of pixels whose luminance is at or above
// the white cutoff.
func (a *Analyzer) WhiteRatio(img image.Image) float64 {
	img = shrink(img, maxBlankTestDim)

	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 1
	}

	white := 0
	cutoff := a.cfg.WhiteCutoff
	for _, y := range gray.Pix {
		if y >= cutoff {
			white++
		}
	}
	return float64(white) / float64(total)
}

// shrink downscales img so neither dimension exceeds max.
func shrink(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	scale := float64(max) / float64(w)
	if h > w {
		scale = float64(max) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
