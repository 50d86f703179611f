package scanner

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode means the frame held no QR code. It is never shown to the operator.
var ErrNoCode = errors.New("no QR code in frame")

// Decoder extracts QR text from a frame.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(img image.Image) (string, error)

func (f DecoderFunc) Decode(img image.Image) (string, error) { return f(img) }

// QRDecoder decodes QR codes with gozxing. Frames wider than MaxWidth are
// downscaled first.
type QRDecoder struct {
	MaxWidth int
}

func (d QRDecoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoCode
	}
	if d.MaxWidth > 0 && img.Bounds().Dx() > d.MaxWidth {
		img = imaging.Resize(img, d.MaxWidth, 0, imaging.Linear)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("QR scan error: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		if _, ok := err.(gozxing.NotFoundException); ok {
			return "", ErrNoCode
		}
		return "", fmt.Errorf("QR scan error: %w", err)
	}
	return res.GetText(), nil
}
