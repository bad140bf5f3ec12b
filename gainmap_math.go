package heifgainmap

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Composite applies a gain map to a linear base buffer: out = base * p.Base^gain.
//
// The gain map is assumed to be stored linearly and the exponential blend is an
// approximation of how Apple renders HDR photos; it is kept for output
// compatibility, not because it is known to be photometrically right.
//
// gain must have the spatial size of base and either 1 channel (applied to all
// base channels) or as many channels as base.
func Composite(base, gain *Buffer, p GainMapParameters) (*Buffer, error) {
	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	if err := gain.validate(); err != nil {
		return nil, fmt.Errorf("gainmap: %w", err)
	}
	if !base.SameSize(gain) {
		return nil, fmt.Errorf("%w: gainmap %dx%d, base %dx%d", ErrShapeMismatch, gain.Width, gain.Height, base.Width, base.Height)
	}
	if gain.Channels != 1 && gain.Channels != base.Channels {
		return nil, fmt.Errorf("%w: gainmap has %d channels, base has %d", ErrShapeMismatch, gain.Channels, base.Channels)
	}

	out := NewBuffer(base.Width, base.Height, base.Channels)
	ch := base.Channels
	parallelRows(base.Height, func(start, end int) {
		for px := start * base.Width; px < end*base.Width; px++ {
			i := px * ch
			if gain.Channels == 1 {
				k := gainFactor(p.Base, gain.Pix[px])
				for c := 0; c < ch; c++ {
					out.Pix[i+c] = base.Pix[i+c] * k
				}
				continue
			}
			for c := 0; c < ch; c++ {
				out.Pix[i+c] = base.Pix[i+c] * gainFactor(p.Base, gain.Pix[i+c])
			}
		}
	})
	return out, nil
}

func gainFactor(base, g float32) float32 {
	if g == 0 {
		return 1
	}
	return math32.Pow(base, g)
}
