package heifgainmap

import (
	"bytes"
	"fmt"
	"image"

	_ "golang.org/x/image/tiff" // Register TIFF decoder.
)

// DecodeTIFF decodes an 8 or 16-bit integer TIFF into a buffer normalized to [0, 1].
func DecodeTIFF(data []byte) (*Buffer, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
	}
	if format != "tiff" {
		return nil, fmt.Errorf("%w: expected tiff, got %s", ErrInputRead, format)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: invalid TIFF dimensions", ErrInputRead)
	}
	return BufferFromImage(img), nil
}
