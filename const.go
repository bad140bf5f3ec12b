package heifgainmap

const (
	pqMaxNits = 10000.0

	// defaultReferenceWhite is the luminance of diffuse white, consistent with BT.709 viewing.
	defaultReferenceWhite = 100.0
	// pngReferenceWhite matches the SDR white most desktop compositors use for PNG HDR stills.
	pngReferenceWhite = 80.0

	// defaultGainBase matches the scRGB headroom of 8x SDR white.
	defaultGainBase = 8.0
	hlgGainBase     = 12.0
)

// sRGB piecewise EOTF constants, shared by Display P3 and scRGB.
const (
	srgbDecodeThreshold = 0.04045
	srgbEncodeThreshold = 0.0031308
	srgbLinearSlope     = 12.92
	srgbOffset          = 0.055
	srgbScale           = 1.055
	srgbGamma           = 2.4
)

// PQCurve holds SMPTE ST 2084 constants.
type PQCurve struct {
	M1, M2     float32
	C1, C2, C3 float32
	// MaxNits is the luminance that encodes to 1.0.
	MaxNits float32
}

// Constants groups every matrix and curve coefficient the pipeline uses.
// It is built once and passed to the Engine; values are copied, never shared.
type Constants struct {
	DisplayP3ToACES2065 ColorMatrix
	DisplayP3ToSCRGB    ColorMatrix
	DisplayP3ToBT2020   ColorMatrix
	// DisplayP3ToY is the Y row of Display P3 to CIE XYZ.
	DisplayP3ToY [3]float32
	// BT2100YCbCr is the non-constant luminance R'G'B' to Y'Cb'Cr' matrix.
	BT2100YCbCr ColorMatrix
	PQ          PQCurve
}

// DefaultConstants returns the coefficients for Display P3 sources.
func DefaultConstants() Constants {
	return Constants{
		DisplayP3ToACES2065: ColorMatrix{
			{0.5189335, 0.28625659, 0.19480993},
			{0.073859383, 0.81984516, 0.10629545},
			{-0.00030701137, 0.0438070503, 0.95649996},
		},
		DisplayP3ToSCRGB: ColorMatrix{
			{1.22494018, -0.224940176, 0},
			{-0.042056955, 1.04205695, 0},
			{-0.019637555, -0.078636046, 1.09827360},
		},
		DisplayP3ToBT2020: ColorMatrix{
			{0.75383303, 0.19859737, 0.047569597},
			{0.045743849, 0.9417772, 0.012478931},
			{-0.00121034035, 0.017601717, 0.9836086},
		},
		DisplayP3ToY: [3]float32{0.22897456, 0.69173852, 0.07928691},
		// ITU-R BT.2100, Table 6.
		BT2100YCbCr: ColorMatrix{
			{0.2627, 0.6780, 0.0593},
			{-0.2627 / 1.8814, -0.6780 / 1.8814, 0.5},
			{0.5, -0.6780 / 1.4746, -0.0593 / 1.4746},
		},
		PQ: PQCurve{
			M1:      2610.0 / 16384,
			M2:      2523.0 / 4096 * 128,
			C1:      3424.0 / 4096,
			C2:      2413.0 / 4096 * 32,
			C3:      2392.0 / 4096 * 32,
			MaxNits: pqMaxNits,
		},
	}
}

// PrimariesFromDisplayP3 returns the Display P3 to g conversion matrix.
func (c Constants) PrimariesFromDisplayP3(g ColorGamut) (ColorMatrix, bool) {
	switch g {
	case GamutDisplayP3:
		return IdentityMatrix(), true
	case GamutSRGB:
		return c.DisplayP3ToSCRGB, true
	case GamutBT2020:
		return c.DisplayP3ToBT2020, true
	case GamutACES2065:
		return c.DisplayP3ToACES2065, true
	default:
		return ColorMatrix{}, false
	}
}
