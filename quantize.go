package heifgainmap

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// ChannelKind selects the scale and offset rule of a plane.
type ChannelKind int

const (
	// ChannelLuma is used for Y' and for every R'G'B' channel.
	ChannelLuma ChannelKind = iota
	// ChannelChroma is used for Cb' and Cr'.
	ChannelChroma
)

// QuantizeRule maps a normalized value to a code value: round(v*Scale+Offset) clipped to [Min, Max].
type QuantizeRule struct {
	Scale, Offset float64
	Min, Max      float64
}

// Quantizer converts float samples to integer code values.
// Ties are rounded half to even.
type Quantizer struct {
	BitDepth int
	Range    SignalRange
}

// NewQuantizer validates the bit depth.
func NewQuantizer(bitDepth int, r SignalRange) (Quantizer, error) {
	switch bitDepth {
	case 8, 10, 12, 16:
	default:
		return Quantizer{}, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	return Quantizer{BitDepth: bitDepth, Range: r}, nil
}

// Rule returns the mapping for a channel kind.
//
// Limited range follows ITU-R BT.2100: luma 219·2^(n-8) + 16·2^(n-8) clipped
// to [16, 235]·2^(n-8), chroma 224·2^(n-8) + 128·2^(n-8) clipped to
// [16, 240]·2^(n-8). For 12 bits that is 3504+256 in [256, 3760] and
// 3584+2048 in [256, 3840].
func (q Quantizer) Rule(kind ChannelKind) QuantizeRule {
	n := q.BitDepth
	top := float64(int(1)<<n - 1)
	if q.Range == RangeFull {
		r := QuantizeRule{Scale: top, Min: 0, Max: top}
		if kind == ChannelChroma {
			r.Offset = float64(int(1) << (n - 1))
		}
		return r
	}
	k := float64(int(1) << (n - 8))
	if kind == ChannelChroma {
		return QuantizeRule{Scale: 224 * k, Offset: 128 * k, Min: 16 * k, Max: 240 * k}
	}
	return QuantizeRule{Scale: 219 * k, Offset: 16 * k, Min: 16 * k, Max: 235 * k}
}

// Code maps a single sample. NaN maps to the lower bound.
//
// Scale and offset are applied in float32 with a rounding step after each
// operation, so codes match float32 array arithmetic (v *= scale; v += offset;
// round half to even; clip) bit for bit.
func (r QuantizeRule) Code(v float32) uint16 {
	if v != v {
		return uint16(r.Min)
	}
	// Explicit conversions keep the compiler from fusing into an FMA.
	x := float32(v * float32(r.Scale))
	x = float32(x + float32(r.Offset))
	return uint16(clamp(math.RoundToEven(float64(x)), r.Min, r.Max))
}

// Quantize splits a 3 channel buffer into code value planes.
// When chroma is true channels 1 and 2 use the chroma rule.
func (q Quantizer) Quantize(src *Buffer, chroma bool) ([3][]uint16, error) {
	var planes [3][]uint16
	if err := src.validate(); err != nil {
		return planes, err
	}
	if src.Channels != 3 {
		return planes, fmt.Errorf("%w: quantizer needs 3 channels, got %d", ErrInvalidBuffer, src.Channels)
	}
	rules := [3]QuantizeRule{q.Rule(ChannelLuma), q.Rule(ChannelLuma), q.Rule(ChannelLuma)}
	if chroma {
		rules[1] = q.Rule(ChannelChroma)
		rules[2] = q.Rule(ChannelChroma)
	}
	n := src.Width * src.Height
	for c := range planes {
		planes[c] = make([]uint16, n)
	}
	parallelRows(src.Height, func(start, end int) {
		for px := start * src.Width; px < end*src.Width; px++ {
			i := px * 3
			planes[0][px] = rules[0].Code(src.Pix[i])
			planes[1][px] = rules[1].Code(src.Pix[i+1])
			planes[2][px] = rules[2].Code(src.Pix[i+2])
		}
	})
	return planes, nil
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
