package heifgainmap

import (
	"github.com/chewxy/math32"
)

// withSign reapplies the sign of v to a magnitude; zero stays zero and NaN propagates.
func withSign(v, mag float32) float32 {
	switch {
	case v > 0:
		return mag
	case v < 0:
		return -mag
	case v == 0:
		return 0
	default:
		return v
	}
}

// srgbEOTF decodes sRGB / Display P3 / scRGB code values, odd-symmetric around zero.
func srgbEOTF(v float32) float32 {
	a := math32.Abs(v)
	if a <= srgbDecodeThreshold {
		return withSign(v, a/srgbLinearSlope)
	}
	return withSign(v, math32.Pow((a+srgbOffset)/srgbScale, srgbGamma))
}

// srgbOETF is the inverse of srgbEOTF.
func srgbOETF(v float32) float32 {
	a := math32.Abs(v)
	if a <= srgbEncodeThreshold {
		return withSign(v, a*srgbLinearSlope)
	}
	return withSign(v, srgbScale*math32.Pow(a, 1/srgbGamma)-srgbOffset)
}

// oetf maps luminance in cd/m² to a PQ signal, odd-symmetric around zero.
func (c PQCurve) oetf(v float32) float32 {
	y := math32.Abs(v) / c.MaxNits
	ym1 := math32.Pow(y, c.M1)
	return withSign(v, math32.Pow((c.C1+c.C2*ym1)/(1+c.C3*ym1), c.M2))
}

// eotf maps a PQ signal back to luminance in cd/m².
func (c PQCurve) eotf(v float32) float32 {
	e := math32.Pow(math32.Abs(v), 1/c.M2)
	num := e - c.C1
	if num < 0 {
		num = 0
	}
	return withSign(v, c.MaxNits*math32.Pow(num/(c.C2-c.C3*e), 1/c.M1))
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
