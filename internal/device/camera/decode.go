package camera

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/abhisek/tapcart/internal/scan"
)

// Decoder recognises QR codes and the common 1D symbologies printed on
// student cards and product labels. A Decoder is not safe for concurrent use.
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		readers: []gozxing.Reader{
			qrcode.NewQRCodeReader(),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewEAN13Reader(),
			oned.NewUPCAReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode tries every reader on img. It returns scan.ErrNotFound when no
// reader finds a code, and the first non-miss error when one fails
// differently (checksum or format errors).
func (d *Decoder) Decode(img image.Image) (*scan.Decoded, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize frame: %w", err)
	}

	var firstErr error
	for _, r := range d.readers {
		res, err := r.Decode(bmp, d.hints)
		if err == nil {
			return &scan.Decoded{Text: res.GetText(), Format: res.GetBarcodeFormat().String()}, nil
		}
		if !isNotFound(err) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, scan.ErrNotFound
}

// DecodeImage decodes a single still image.
func DecodeImage(img image.Image) (*scan.Decoded, error) {
	return NewDecoder().Decode(img)
}

func isNotFound(err error) bool {
	var nf gozxing.NotFoundException
	return errors.As(err, &nf)
}
