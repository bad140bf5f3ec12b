// Package y4m writes single frame YUV4MPEG2 streams with planar 4:4:4 samples.
package y4m

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Header describes a 4:4:4 stream.
type Header struct {
	Width, Height int
	// BitDepth is 8, 10, 12 or 16. Samples above 8 bits are stored as 16-bit little endian.
	BitDepth int
	Limited  bool
}

// String renders the stream header line including the trailing newline.
func (h Header) String() string {
	cs, xs := "444", "444"
	if h.BitDepth > 8 {
		cs = fmt.Sprintf("444p%d", h.BitDepth)
		xs = fmt.Sprintf("444P%d", h.BitDepth)
	}
	rng := "FULL"
	if h.Limited {
		rng = "LIMITED"
	}
	return fmt.Sprintf("YUV4MPEG2 W%d H%d F1:1 Ip A1:1 C%s XYSCSS=%s XCOLORRANGE=%s\n", h.Width, h.Height, cs, xs, rng)
}

func (h Header) validate() error {
	if h.Width <= 0 || h.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", h.Width, h.Height)
	}
	switch h.BitDepth {
	case 8, 10, 12, 16:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d", h.BitDepth)
	}
}

const frameMarker = "FRAME\n"

// WriteFrame writes the stream header and one frame made of the Y, Cb and Cr planes.
func WriteFrame(w io.Writer, h Header, planes [3][]uint16) error {
	if err := h.validate(); err != nil {
		return err
	}
	n := h.Width * h.Height
	for i, p := range planes {
		if len(p) != n {
			return fmt.Errorf("plane %d has %d samples, want %d", i, len(p), n)
		}
	}

	bw := bufio.NewWriterSize(w, 1<<16)
	if _, err := bw.WriteString(h.String()); err != nil {
		return err
	}
	if _, err := bw.WriteString(frameMarker); err != nil {
		return err
	}

	var sample [2]byte
	for _, p := range planes {
		for _, v := range p {
			if h.BitDepth == 8 {
				if v > 0xff {
					return errors.New("8-bit sample out of range")
				}
				if err := bw.WriteByte(byte(v)); err != nil {
					return err
				}
				continue
			}
			binary.LittleEndian.PutUint16(sample[:], v)
			if _, err := bw.Write(sample[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
