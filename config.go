package heifgainmap

import (
	"fmt"
	"io"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// ProfileConfig is the TOML form of an OutputProfile.
//
//	[profile.hdr10]
//	encoding = "y4m"
//	gamut = "bt2020"
//	transfer = "pq"
//	bit_depth = 10
//	range = "limited"
//	reference_white = 203
type ProfileConfig struct {
	Base           string  `toml:"base"`
	Encoding       string  `toml:"encoding"`
	Gamut          string  `toml:"gamut"`
	Transfer       string  `toml:"transfer"`
	BitDepth       *int    `toml:"bit_depth"`
	Range          string  `toml:"range"`
	ReferenceWhite float32 `toml:"reference_white"`
	GainBase       float32 `toml:"gain_base"`
	StatsScale     float32 `toml:"stats_scale"`
	Compression    string  `toml:"compression"`
}

type profilesFile struct {
	Profile map[string]ProfileConfig `toml:"profile"`
}

// LoadProfiles reads TOML profile definitions and merges them over the built-in set.
// A profile may name a built-in profile as base and override single fields.
// Without stats_scale, PQ profiles report statistics at their reference white
// and other profiles report scene referenced values.
func LoadProfiles(r io.Reader) (map[string]OutputProfile, error) {
	var f profilesFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	set := Profiles()
	for _, name := range sortedKeys(f.Profile) {
		p, err := f.Profile[name].apply(name, set)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		set[name] = p
	}
	return set, nil
}

func (c ProfileConfig) apply(name string, set map[string]OutputProfile) (OutputProfile, error) {
	p := OutputProfile{
		Name:           name,
		ReferenceWhite: defaultReferenceWhite,
		GainMap:        GainMapParameters{Base: defaultGainBase},
		StatsScale:     1,
	}
	if c.Base != "" {
		b, ok := set[c.Base]
		if !ok {
			return p, fmt.Errorf("profile %q: %w: base %q", name, ErrUnknownProfile, c.Base)
		}
		p = b
		p.Name = name
	}

	var err error
	if c.Encoding != "" {
		if p.Encoding, err = ParseEncoding(c.Encoding); err != nil {
			return p, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if c.Gamut != "" {
		if p.Gamut, err = ParseGamut(c.Gamut); err != nil {
			return p, fmt.Errorf("profile %q: %w", name, err)
		}
		p.Chromaticities = chromaticitiesTag(p.Gamut)
	}
	if c.Transfer != "" {
		if p.Transfer, err = ParseTransfer(c.Transfer); err != nil {
			return p, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if c.BitDepth != nil {
		p.BitDepth = *c.BitDepth
	}
	if c.Range != "" {
		if p.Range, err = ParseRange(c.Range); err != nil {
			return p, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if c.ReferenceWhite != 0 {
		p.ReferenceWhite = c.ReferenceWhite
	}
	if c.GainBase != 0 {
		p.GainMap.Base = c.GainBase
	}
	switch {
	case c.StatsScale != 0:
		p.StatsScale = c.StatsScale
	case p.Transfer == TransferPQ:
		// PQ outputs are display referenced, report statistics at the encoding white.
		p.StatsScale = p.ReferenceWhite
	default:
		p.StatsScale = 1
	}
	if c.Compression != "" {
		if p.Compression, err = ParseEXRCompression(c.Compression); err != nil {
			return p, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return p, nil
}

// ParseEncoding maps "exr", "png" or "y4m".
func ParseEncoding(s string) (Encoding, error) {
	for _, e := range []Encoding{EncodingEXR, EncodingPNG, EncodingY4M} {
		if e.String() == s {
			return e, nil
		}
	}
	return EncodingEXR, fmt.Errorf("unknown encoding %q", s)
}

// ParseTransfer maps "linear", "srgb" or "pq".
func ParseTransfer(s string) (TransferCurve, error) {
	for _, t := range []TransferCurve{TransferLinear, TransferSRGB, TransferPQ} {
		if t.String() == s {
			return t, nil
		}
	}
	return TransferLinear, fmt.Errorf("unknown transfer %q", s)
}

// ParseRange maps "full" or "limited".
func ParseRange(s string) (SignalRange, error) {
	switch s {
	case "full":
		return RangeFull, nil
	case "limited":
		return RangeLimited, nil
	}
	return RangeFull, fmt.Errorf("unknown range %q", s)
}

func sortedKeys(m map[string]ProfileConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
