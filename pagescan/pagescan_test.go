package pagescan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/hugobastidas/pdf-loan-splitter/barcode"
	"github.com/hugobastidas/pdf-loan-splitter/ocr"
)

func whitePage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// inkPage returns a white page with the top fraction painted black.
func inkPage(w, h int, inked float64) *image.Gray {
	img := whitePage(w, h)
	dark := int(float64(h) * inked)
	for y := 0; y < dark; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return img
}

func noBarcode(img image.Image) (*barcode.Symbol, error) { return nil, nil }

func fixedBarcode(value, format string) barcode.DecoderFunc {
	return func(img image.Image) (*barcode.Symbol, error) {
		return &barcode.Symbol{Value: value, Format: format}, nil
	}
}

func fixedText(text string) ocr.EngineFunc {
	return func(ctx context.Context, img image.Image, lang string) (string, error) {
		return text, nil
	}
}

func TestAnalyzeContentPage(t *testing.T) {
	a := New(Config{
		Decoder: barcode.DecoderFunc(noBarcode),
		Engine:  fixedText("hola mundo"),
	})

	an := a.Analyze(context.Background(), 3, inkPage(100, 100, 0.5))
	if an.Index != 3 {
		t.Errorf("index = %d", an.Index)
	}
	if an.IsBlank {
		t.Error("half-inked page reported blank")
	}
	if an.Text != "hola mundo" {
		t.Errorf("text = %q", an.Text)
	}
	if got := an.Label(); got != LabelContent {
		t.Errorf("label = %q, want content", got)
	}
}

func TestAnalyzeBlankPage(t *testing.T) {
	ocrCalled := false
	a := New(Config{
		Decoder: barcode.DecoderFunc(noBarcode),
		Engine: ocr.EngineFunc(func(ctx context.Context, img image.Image, lang string) (string, error) {
			ocrCalled = true
			return "", nil
		}),
	})

	an := a.Analyze(context.Background(), 1, whitePage(100, 100))
	if !an.IsBlank {
		t.Fatal("fully white page not blank")
	}
	if an.Label() != LabelBlank {
		t.Fatalf("label = %q", an.Label())
	}
	if ocrCalled {
		t.Error("blank page must not be OCR'd")
	}
}

func TestAnalyzeSeparatorSkipsOCR(t *testing.T) {
	ocrCalled := false
	a := New(Config{
		Decoder: fixedBarcode("CEDULA_001", "CODE_128"),
		Engine: ocr.EngineFunc(func(ctx context.Context, img image.Image, lang string) (string, error) {
			ocrCalled = true
			return "should not run", nil
		}),
	})

	an := a.Analyze(context.Background(), 1, inkPage(100, 100, 0.3))
	if an.BarcodeValue != "CEDULA_001" || an.BarcodeType != "CODE_128" {
		t.Fatalf("barcode = %q/%q", an.BarcodeValue, an.BarcodeType)
	}
	if an.Label() != LabelSeparator {
		t.Fatalf("label = %q", an.Label())
	}
	if ocrCalled {
		t.Error("OCR must be skipped when a barcode is present")
	}
	if an.Text != "" {
		t.Errorf("text = %q, want empty", an.Text)
	}
}

// A page that is both blank and carries a barcode labels as separator.
func TestBlankWithBarcodeIsSeparator(t *testing.T) {
	a := New(Config{
		Decoder: fixedBarcode("CERT_002", "QR_CODE"),
		Engine:  fixedText(""),
	})

	an := a.Analyze(context.Background(), 1, whitePage(100, 100))
	if !an.IsBlank {
		t.Fatal("expected blank")
	}
	if an.Label() != LabelSeparator {
		t.Fatalf("label = %q, want separator", an.Label())
	}
}

func TestAnalyzeNilImageDegrades(t *testing.T) {
	a := New(Config{
		Decoder: barcode.DecoderFunc(noBarcode),
		Engine:  fixedText("x"),
	})

	an := a.Analyze(context.Background(), 4, nil)
	if !an.Degraded {
		t.Fatal("expected degraded analysis")
	}
	if an.Label() != LabelContent {
		t.Fatalf("label = %q, want content", an.Label())
	}
	if an.Text != "" {
		t.Errorf("text = %q", an.Text)
	}
}

func TestOCRFailureDegrades(t *testing.T) {
	a := New(Config{
		Decoder: barcode.DecoderFunc(noBarcode),
		Engine: ocr.EngineFunc(func(ctx context.Context, img image.Image, lang string) (string, error) {
			return "", errors.New("tesseract exploded")
		}),
	})

	an := a.Analyze(context.Background(), 2, inkPage(100, 100, 0.5))
	if !an.Degraded {
		t.Fatal("expected degraded analysis")
	}
	if an.Label() != LabelContent {
		t.Fatalf("label = %q", an.Label())
	}
}

// Decoder machinery errors are absorbed: the page falls through to OCR.
func TestBarcodeErrorFallsBackToOCR(t *testing.T) {
	a := New(Config{
		Decoder: barcode.DecoderFunc(func(img image.Image) (*barcode.Symbol, error) {
			return nil, errors.New("camera on fire")
		}),
		Engine: fixedText("contenido"),
	})

	an := a.Analyze(context.Background(), 1, inkPage(100, 100, 0.5))
	if an.Label() != LabelContent {
		t.Fatalf("label = %q", an.Label())
	}
	if an.Text != "contenido" {
		t.Errorf("text = %q", an.Text)
	}
}

func TestWhiteRatioThreshold(t *testing.T) {
	a := New(Config{
		BlankThreshold: 0.98,
		Decoder:        barcode.DecoderFunc(noBarcode),
		Engine:         fixedText(""),
	})

	// 99.5% white clears a 0.98 threshold.
	if r := a.WhiteRatio(inkPage(200, 200, 0.005)); r < 0.98 {
		t.Errorf("ratio = %v, want >= 0.98", r)
	}
	// Half ink does not.
	if r := a.WhiteRatio(inkPage(200, 200, 0.5)); r > 0.6 {
		t.Errorf("ratio = %v, want ~0.5", r)
	}
}

func TestWhiteRatioLargeImageDownscaled(t *testing.T) {
	a := New(Config{
		Decoder: barcode.DecoderFunc(noBarcode),
		Engine:  fixedText(""),
	})

	// Larger than maxBlankTestDim on both axes; ratio must survive scaling.
	r := a.WhiteRatio(whitePage(2500, 3300))
	if r < 0.99 {
		t.Errorf("ratio = %v, want ~1.0", r)
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.defaults()
	if c.BlankThreshold != 0.98 || c.WhiteCutoff != 240 || c.Language != "spa" {
		t.Fatalf("defaults = %+v", c)
	}
}
