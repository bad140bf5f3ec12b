package heifgainmap

import (
	"fmt"
)

// Buffer is a dense height × width × channels float32 pixel buffer.
// Pix is row-major with interleaved channels.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(width, height, channels int) *Buffer {
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Filled returns a buffer with every sample set to v.
func Filled(width, height, channels int, v float32) *Buffer {
	b := NewBuffer(width, height, channels)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels}
	out.Pix = append([]float32(nil), b.Pix...)
	return out
}

// SameSize reports whether o has the same spatial dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// At returns the sample of channel c at x, y; coordinates are clamped to the buffer.
func (b *Buffer) At(x, y, c int) float32 {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= b.Width {
		x = b.Width - 1
	}
	if y >= b.Height {
		y = b.Height - 1
	}
	return b.Pix[(y*b.Width+x)*b.Channels+c]
}

// Set stores v into channel c at x, y.
func (b *Buffer) Set(x, y, c int, v float32) {
	b.Pix[(y*b.Width+x)*b.Channels+c] = v
}

func (b *Buffer) validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width <= 0 || b.Height <= 0 || b.Channels <= 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidBuffer, b.Width, b.Height, b.Channels)
	}
	if len(b.Pix) != b.Width*b.Height*b.Channels {
		return fmt.Errorf("%w: %d samples for %dx%dx%d", ErrInvalidBuffer, len(b.Pix), b.Width, b.Height, b.Channels)
	}
	return nil
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%dx%dx%d", b.Width, b.Height, b.Channels)
}
