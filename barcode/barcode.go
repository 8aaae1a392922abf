// Package barcode defines the barcode-decoding capability used to recognize
// separator pages, plus the production decoder backed by gozxing.
package barcode

import "image"

// Symbol is one decoded barcode.
type Symbol struct {
	Value  string
	Format string
}

// Decoder attempts to decode a barcode from a page image. A page without a
// decodable barcode yields (nil, nil); errors are reserved for failures of
// the decoding machinery itself.
//
// When a page carries several symbols the decoder must pick one
// deterministically. Policy: first symbol in scan order wins.
type Decoder interface {
	Decode(img image.Image) (*Symbol, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(img image.Image) (*Symbol, error)

func (f DecoderFunc) Decode(img image.Image) (*Symbol, error) {
	return f(img)
}
