package barcode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
)

// ZXingDecoder decodes barcodes with the gozxing multi-format reader
// (1D symbologies, QR, DataMatrix, PDF417, Aztec).
type ZXingDecoder struct{}

// NewZXing constructs the production decoder.
func NewZXing() *ZXingDecoder {
	return &ZXingDecoder{}
}

// Decode returns the first symbol the reader finds, or (nil, nil) when the
// page carries none. The multi-format reader stops at the first successful
// decode, which gives the deterministic first-in-scan-order policy.
func (d *ZXingDecoder) Decode(img image.Image) (*Symbol, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("barcode: bitmap: %w", err)
	}

	reader := gozxing.NewMultiFormatReader()
	result, err := reader.DecodeWithoutHints(bmp)
	if err != nil {
		if _, notFound := err.(gozxing.NotFoundException); notFound {
			return nil, nil
		}
		if _, format := err.(gozxing.FormatException); format {
			return nil, nil
		}
		if _, checksum := err.(gozxing.ChecksumException); checksum {
			return nil, nil
		}
		return nil, fmt.Errorf("barcode: decode: %w", err)
	}

	return &Symbol{
		Value:  result.GetText(),
		Format: result.GetBarcodeFormat().String(),
	}, nil
}
