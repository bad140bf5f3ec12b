package heifgainmap

import (
	"fmt"
	"sync"

	"github.com/chewxy/math32"
)

// Analyze estimates MaxCLL and MaxFALL of a linear RGB buffer.
// Luminance is the dot product of each pixel with weights; both results are
// multiplied by scale (use 1 for scene referenced values).
//
// A NaN sample makes both results NaN.
//
// This is not the CTA-861.3 definition, which takes the max of R, G, B per
// pixel and averages over frames; it is an estimate for a single still.
func Analyze(src *Buffer, weights [3]float32, scale float32) (FrameStatistics, error) {
	if err := src.validate(); err != nil {
		return FrameStatistics{}, err
	}
	if src.Channels != 3 {
		return FrameStatistics{}, fmt.Errorf("%w: luminance needs 3 channels, got %d", ErrInvalidBuffer, src.Channels)
	}

	var (
		mu      sync.Mutex
		maxY    float32
		sumY    float64
		started bool
		hasNaN  bool
	)
	rowLen := src.Width * 3
	parallelRows(src.Height, func(start, end int) {
		var (
			bandMax float32
			bandSum float64
			bandNaN bool
			first   = true
		)
		for i := start * rowLen; i < end*rowLen; i += 3 {
			y := weights[0]*src.Pix[i] + weights[1]*src.Pix[i+1] + weights[2]*src.Pix[i+2]
			if math32.IsNaN(y) {
				bandNaN = true
				continue
			}
			if first || y > bandMax {
				bandMax = y
				first = false
			}
			bandSum += float64(y)
		}
		mu.Lock()
		if !first && (!started || bandMax > maxY) {
			maxY = bandMax
			started = true
		}
		hasNaN = hasNaN || bandNaN
		sumY += bandSum
		mu.Unlock()
	})

	if hasNaN {
		nan := math32.NaN()
		return FrameStatistics{MaxCLL: nan, MaxFALL: nan}, nil
	}
	n := float64(src.Width * src.Height)
	return FrameStatistics{
		MaxCLL:  maxY * scale,
		MaxFALL: float32(sumY/n) * scale,
	}, nil
}
