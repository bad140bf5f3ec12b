package heifgainmap

import (
	"fmt"
	"sort"
)

// Built-in profile names.
const (
	ProfileEXR      = "exr"
	ProfileSCRGB    = "scrgb"
	ProfileSCRGBHLG = "scrgb-hlg"
	ProfileACES     = "aces"
	ProfilePNG      = "png"
	ProfileY4M      = "y4m"
	ProfileY4M10    = "y4m10"
)

func linearProfile(name string, g ColorGamut, gainBase float32) OutputProfile {
	return OutputProfile{
		Name:           name,
		Encoding:       EncodingEXR,
		Gamut:          g,
		Chromaticities: chromaticitiesTag(g),
		Transfer:       TransferLinear,
		Range:          RangeFull,
		ReferenceWhite: defaultReferenceWhite,
		GainMap:        GainMapParameters{Base: gainBase},
		StatsScale:     1,
		Compression:    EXRCompressionZIP,
	}
}

func pqProfile(name string, enc Encoding, depth int, r SignalRange, refWhite float32) OutputProfile {
	return OutputProfile{
		Name:           name,
		Encoding:       enc,
		Gamut:          GamutBT2020,
		Chromaticities: chromaticitiesTag(GamutBT2020),
		Transfer:       TransferPQ,
		BitDepth:       depth,
		Range:          r,
		ReferenceWhite: refWhite,
		GainMap:        GainMapParameters{Base: defaultGainBase},
		StatsScale:     refWhite,
	}
}

func chromaticitiesTag(g ColorGamut) *Chromaticities {
	c := ChromaticitiesFor(g)
	return &c
}

// Profiles returns the built-in output profiles keyed by name.
// exr and scrgb share the pixel pipeline; exr output carries no chromaticities
// attribute, so readers assume the OpenEXR default (BT.709 primaries).
func Profiles() map[string]OutputProfile {
	exr := linearProfile(ProfileEXR, GamutSRGB, defaultGainBase)
	exr.Chromaticities = nil

	return map[string]OutputProfile{
		ProfileEXR:      exr,
		ProfileSCRGB:    linearProfile(ProfileSCRGB, GamutSRGB, defaultGainBase),
		ProfileSCRGBHLG: linearProfile(ProfileSCRGBHLG, GamutSRGB, hlgGainBase),
		ProfileACES:     linearProfile(ProfileACES, GamutACES2065, defaultGainBase),
		ProfilePNG:      pqProfile(ProfilePNG, EncodingPNG, 16, RangeFull, pngReferenceWhite),
		ProfileY4M:      pqProfile(ProfileY4M, EncodingY4M, 12, RangeLimited, defaultReferenceWhite),
		ProfileY4M10:    pqProfile(ProfileY4M10, EncodingY4M, 10, RangeLimited, defaultReferenceWhite),
	}
}

// ProfileByName looks name up in set, falling back to the built-in profiles when set is nil.
func ProfileByName(set map[string]OutputProfile, name string) (OutputProfile, error) {
	if set == nil {
		set = Profiles()
	}
	p, ok := set[name]
	if !ok {
		return OutputProfile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// ProfileNames returns sorted keys of set.
func ProfileNames(set map[string]OutputProfile) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the profile can drive the pipeline.
func (p OutputProfile) Validate() error {
	if _, ok := DefaultConstants().PrimariesFromDisplayP3(p.Gamut); !ok {
		return fmt.Errorf("profile %q: unsupported gamut %s", p.Name, p.Gamut)
	}
	if p.GainMap.Base <= 0 {
		return fmt.Errorf("profile %q: gain base must be positive", p.Name)
	}
	if p.Transfer == TransferPQ && p.ReferenceWhite <= 0 {
		return fmt.Errorf("profile %q: reference white must be positive", p.Name)
	}
	switch p.Encoding {
	case EncodingEXR:
		if p.BitDepth != 0 {
			return fmt.Errorf("profile %q: exr output is float, bit depth must be 0", p.Name)
		}
	case EncodingPNG:
		if p.BitDepth != 8 && p.BitDepth != 16 {
			return fmt.Errorf("profile %q: png bit depth must be 8 or 16", p.Name)
		}
	case EncodingY4M:
		if p.BitDepth == 0 {
			return fmt.Errorf("profile %q: y4m output needs a bit depth", p.Name)
		}
	default:
		return fmt.Errorf("profile %q: unknown encoding %d", p.Name, p.Encoding)
	}
	if p.BitDepth != 0 {
		if _, err := NewQuantizer(p.BitDepth, p.Range); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}
