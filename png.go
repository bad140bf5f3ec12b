package heifgainmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
)

// CICP holds ITU-T H.273 coding-independent code points.
type CICP struct {
	ColorPrimaries          uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
	VideoFullRange          uint8
}

// CICPBT2020PQ tags full range RGB with BT.2020 primaries and the PQ transfer.
var CICPBT2020PQ = CICP{ColorPrimaries: 9, TransferCharacteristics: 16, MatrixCoefficients: 0, VideoFullRange: 1}

// CICPFor derives code points from a profile, ok is false when no code point fits.
func CICPFor(p OutputProfile) (CICP, bool) {
	c := CICP{VideoFullRange: 1}
	if p.Range == RangeLimited {
		c.VideoFullRange = 0
	}
	switch p.Gamut {
	case GamutSRGB:
		c.ColorPrimaries = 1
	case GamutBT2020:
		c.ColorPrimaries = 9
	case GamutDisplayP3:
		c.ColorPrimaries = 12
	default:
		return c, false
	}
	switch p.Transfer {
	case TransferLinear:
		c.TransferCharacteristics = 8
	case TransferSRGB:
		c.TransferCharacteristics = 13
	case TransferPQ:
		c.TransferCharacteristics = 16
	}
	if p.Encoding == EncodingY4M {
		c.MatrixCoefficients = 9
	}
	return c, true
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// WritePNG writes RGB code value planes as an opaque PNG. depth is 8 or 16;
// 8-bit planes must already hold values in [0, 255]. A cICP chunk is added
// after IHDR when cicp is not nil.
func WritePNG(w io.Writer, planes [3][]uint16, width, height, depth int, cicp *CICP) error {
	n := width * height
	for _, p := range planes {
		if len(p) != n {
			return fmt.Errorf("%w: plane has %d samples, want %d", ErrInvalidBuffer, len(p), n)
		}
	}

	var img image.Image
	switch depth {
	case 16:
		out := image.NewRGBA64(image.Rect(0, 0, width, height))
		for i := 0; i < n; i++ {
			out.SetRGBA64(i%width, i/width, color.RGBA64{R: planes[0][i], G: planes[1][i], B: planes[2][i], A: 0xffff})
		}
		img = out
	case 8:
		out := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < n; i++ {
			out.SetRGBA(i%width, i/width, color.RGBA{R: uint8(planes[0][i]), G: uint8(planes[1][i]), B: uint8(planes[2][i]), A: 0xff})
		}
		img = out
	default:
		return fmt.Errorf("unsupported PNG bit depth %d", depth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	data := buf.Bytes()
	if cicp != nil {
		var err error
		if data, err = insertCICPChunk(data, *cicp); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return nil
}

func insertCICPChunk(data []byte, c CICP) ([]byte, error) {
	if len(data) < len(pngSignature)+8 || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, errors.New("not a PNG stream")
	}
	pos := len(pngSignature)
	if string(data[pos+4:pos+8]) != "IHDR" {
		return nil, errors.New("PNG does not start with IHDR")
	}
	ihdrEnd := pos + 12 + int(binary.BigEndian.Uint32(data[pos:pos+4]))
	if ihdrEnd > len(data) {
		return nil, errors.New("truncated IHDR chunk")
	}

	chunk := make([]byte, 0, 16)
	chunk = binary.BigEndian.AppendUint32(chunk, 4)
	chunk = append(chunk, "cICP"...)
	chunk = append(chunk, c.ColorPrimaries, c.TransferCharacteristics, c.MatrixCoefficients, c.VideoFullRange)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}
