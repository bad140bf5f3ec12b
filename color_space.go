package heifgainmap

import "fmt"

// ColorMatrix is a 3×3 linear transform applied to column vectors.
type ColorMatrix [3][3]float32

// IdentityMatrix returns the identity transform.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m · v.
func (m ColorMatrix) Mul(r, g, b float32) (float32, float32, float32) {
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

// ApplyMatrix returns a new buffer with m applied to every pixel of a 3 channel buffer.
func ApplyMatrix(src *Buffer, m ColorMatrix) (*Buffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	if src.Channels != 3 {
		return nil, fmt.Errorf("%w: matrix needs 3 channels, got %d", ErrInvalidBuffer, src.Channels)
	}
	dst := NewBuffer(src.Width, src.Height, 3)
	rowLen := src.Width * 3
	parallelRows(src.Height, func(start, end int) {
		for i := start * rowLen; i < end*rowLen; i += 3 {
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = m.Mul(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
		}
	})
	return dst, nil
}

// ToYCbCr converts non-linear R'G'B' to Y'Cb'Cr' using a non-constant luminance matrix.
// Channel order of the result is Y', Cb', Cr'.
func ToYCbCr(src *Buffer, m ColorMatrix) (*Buffer, error) {
	return ApplyMatrix(src, m)
}

// Chromaticity presets for container tags.
var (
	chromaticitiesSRGB = Chromaticities{
		RedX: 0.64, RedY: 0.33,
		GreenX: 0.30, GreenY: 0.60,
		BlueX: 0.15, BlueY: 0.06,
		WhiteX: 0.3127, WhiteY: 0.3290,
	}
	chromaticitiesDisplayP3 = Chromaticities{
		RedX: 0.680, RedY: 0.320,
		GreenX: 0.265, GreenY: 0.690,
		BlueX: 0.150, BlueY: 0.060,
		WhiteX: 0.3127, WhiteY: 0.3290,
	}
	chromaticitiesBT2020 = Chromaticities{
		RedX: 0.708, RedY: 0.292,
		GreenX: 0.170, GreenY: 0.797,
		BlueX: 0.131, BlueY: 0.046,
		WhiteX: 0.3127, WhiteY: 0.3290,
	}
	// ACES AP0 primaries, TB-2014-004; white point TB-2018-001.
	chromaticitiesACES = Chromaticities{
		RedX: 0.73470, RedY: 0.26530,
		GreenX: 0.00000, GreenY: 1.00000,
		BlueX: 0.00010, BlueY: -0.07700,
		WhiteX: 0.32168, WhiteY: 0.33767,
	}
)

// ChromaticitiesFor returns the primaries and white point of g.
func ChromaticitiesFor(g ColorGamut) Chromaticities {
	switch g {
	case GamutDisplayP3:
		return chromaticitiesDisplayP3
	case GamutBT2020:
		return chromaticitiesBT2020
	case GamutACES2065:
		return chromaticitiesACES
	default:
		return chromaticitiesSRGB
	}
}

// ParseGamut maps a gamut name as printed by ColorGamut.String.
func ParseGamut(s string) (ColorGamut, error) {
	for _, g := range []ColorGamut{GamutDisplayP3, GamutSRGB, GamutBT2020, GamutACES2065} {
		if g.String() == s {
			return g, nil
		}
	}
	switch s {
	case "scrgb":
		return GamutSRGB, nil
	case "aces":
		return GamutACES2065, nil
	case "p3":
		return GamutDisplayP3, nil
	}
	return GamutUnspecified, fmt.Errorf("unknown gamut %q", s)
}
