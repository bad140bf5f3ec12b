package heifgainmap

// ColorGamut identifies an RGB primary set.
type ColorGamut int

const (
	GamutUnspecified ColorGamut = iota
	GamutDisplayP3
	GamutSRGB // scRGB shares sRGB primaries.
	GamutBT2020
	GamutACES2065
)

func (g ColorGamut) String() string {
	switch g {
	case GamutDisplayP3:
		return "display-p3"
	case GamutSRGB:
		return "srgb"
	case GamutBT2020:
		return "bt2020"
	case GamutACES2065:
		return "aces2065-1"
	default:
		return "unspecified"
	}
}

// TransferCurve identifies a transfer function pair.
type TransferCurve int

const (
	TransferLinear TransferCurve = iota
	TransferSRGB
	TransferPQ
)

func (t TransferCurve) String() string {
	switch t {
	case TransferSRGB:
		return "srgb"
	case TransferPQ:
		return "pq"
	default:
		return "linear"
	}
}

// Encoding selects the output container and with it the tail of the pipeline.
type Encoding int

const (
	// EncodingEXR produces a linear float buffer.
	EncodingEXR Encoding = iota
	// EncodingPNG produces full range RGB code values.
	EncodingPNG
	// EncodingY4M produces planar Y'Cb'Cr' code values.
	EncodingY4M
)

func (e Encoding) String() string {
	switch e {
	case EncodingPNG:
		return "png"
	case EncodingY4M:
		return "y4m"
	default:
		return "exr"
	}
}

// SignalRange is the code value range convention.
type SignalRange int

const (
	RangeFull SignalRange = iota
	RangeLimited
)

func (r SignalRange) String() string {
	if r == RangeLimited {
		return "limited"
	}
	return "full"
}

// Chromaticities are CIE xy coordinates of the primaries and white point,
// in the order OpenEXR stores them.
type Chromaticities struct {
	RedX, RedY     float32
	GreenX, GreenY float32
	BlueX, BlueY   float32
	WhiteX, WhiteY float32
}

// Floats returns rx, ry, gx, gy, bx, by, wx, wy.
func (c Chromaticities) Floats() [8]float32 {
	return [8]float32{c.RedX, c.RedY, c.GreenX, c.GreenY, c.BlueX, c.BlueY, c.WhiteX, c.WhiteY}
}

// GainMapParameters controls how strongly the gain map boosts the base image.
type GainMapParameters struct {
	// Base is the exponent base, output = input * Base^gain.
	Base float32
}

// OutputProfile describes a target encoding.
type OutputProfile struct {
	Name     string
	Encoding Encoding
	// Gamut is the destination primary set, the source is always Display P3.
	Gamut          ColorGamut
	// Chromaticities tags EXR output, nil leaves the attribute out.
	Chromaticities *Chromaticities
	Transfer       TransferCurve
	// BitDepth is 8, 10, 12 or 16; 0 keeps float samples.
	BitDepth int
	Range    SignalRange
	// ReferenceWhite maps linear 1.0 to this luminance in cd/m² before PQ encoding.
	ReferenceWhite float32
	GainMap        GainMapParameters
	// StatsScale multiplies MaxCLL/MaxFALL, 1 reports scene referenced values.
	StatsScale float32
	// Compression is used by EXR outputs.
	Compression EXRCompression
}

// FrameStatistics holds content light level estimates of one frame.
type FrameStatistics struct {
	MaxCLL  float32
	MaxFALL float32
}

// Result is the output of one pipeline run.
type Result struct {
	Profile OutputProfile
	Stats   FrameStatistics
	// Linear is set for float outputs, or holds the encoded float buffer
	// right before quantization otherwise.
	Linear *Buffer
	// Planes holds quantized channel planes when Profile.BitDepth > 0.
	Planes [3][]uint16
}
