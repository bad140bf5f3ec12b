package heifgainmap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder.
	_ "image/png"  // Register PNG decoder.
	"io"

	"github.com/nfnt/resize"
)

// DecodeImage reads a PNG, JPEG, TIFF (see tiff.go) or scanline OpenEXR image.
// Integer images are normalized to [0, 1], EXR samples are passed through.
// The result has 3 channels, or 1 for grayscale sources.
func DecodeImage(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err == nil && binary.LittleEndian.Uint32(magic) == exrMagic {
		data, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
		}
		b, err := DecodeEXR(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
		}
		return b, nil
	}

	img, _, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
	}
	return BufferFromImage(img), nil
}

// DecodeImageBytes is DecodeImage over an in-memory file.
func DecodeImageBytes(data []byte) (*Buffer, error) {
	return DecodeImage(bytes.NewReader(data))
}

// BufferFromImage converts img into a float buffer normalized to [0, 1].
func BufferFromImage(img image.Image) *Buffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if isGrayImage(img) {
		out := NewBuffer(w, h, 1)
		parallelRows(h, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < w; x++ {
					g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
					out.Pix[y*w+x] = float32(g.Y) / 65535.0
				}
			}
		})
		return out
	}

	out := NewBuffer(w, h, 3)
	parallelRows(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				r, g, b2 := unpremultiplied(img.At(b.Min.X+x, b.Min.Y+y))
				i := (y*w + x) * 3
				out.Pix[i] = r
				out.Pix[i+1] = g
				out.Pix[i+2] = b2
			}
		}
	})
	return out
}

// ResampleGainMap scales a decoded gain map image to width × height with
// bilinear interpolation and converts it to a float buffer. Grayscale gain
// maps produce a single channel buffer.
func ResampleGainMap(img image.Image, width, height int) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil gainmap", ErrInputRead)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", ErrInvalidBuffer, width, height)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	}
	out := BufferFromImage(img)
	if out.Width != width || out.Height != height {
		return nil, fmt.Errorf("%w: resampled gainmap is %dx%d, want %dx%d", ErrShapeMismatch, out.Width, out.Height, width, height)
	}
	return out, nil
}

// DecodeGainMap reads a gain map image and resamples it to width × height.
func DecodeGainMap(r io.Reader, width, height int) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
	}
	return ResampleGainMap(img, width, height)
}

func unpremultiplied(c color.Color) (float32, float32, float32) {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return float32(n.R) / 65535.0, float32(n.G) / 65535.0, float32(n.B) / 65535.0
}

func isGrayImage(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}
