package heifgainmap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfiles(t *testing.T) {
	set, err := LoadProfiles(strings.NewReader(`
[profile.hdr10]
base = "y4m"
bit_depth = 10
reference_white = 203.0
stats_scale = 203.0

[profile.p3png]
encoding = "png"
gamut = "display-p3"
transfer = "pq"
bit_depth = 8
range = "full"

[profile.acesfast]
base = "aces"
compression = "none"
gain_base = 12.0
`))
	require.NoError(t, err)

	for _, name := range []string{ProfileEXR, ProfileY4M, ProfilePNG} {
		assert.Contains(t, set, name)
	}

	p := set["hdr10"]
	assert.Equal(t, "hdr10", p.Name)
	assert.Equal(t, EncodingY4M, p.Encoding)
	assert.Equal(t, 10, p.BitDepth)
	assert.Equal(t, RangeLimited, p.Range)
	assert.Equal(t, float32(203), p.ReferenceWhite)
	assert.Equal(t, float32(203), p.StatsScale)
	assert.Equal(t, GamutBT2020, p.Gamut)

	p = set["p3png"]
	assert.Equal(t, EncodingPNG, p.Encoding)
	assert.Equal(t, GamutDisplayP3, p.Gamut)
	require.NotNil(t, p.Chromaticities)
	assert.Equal(t, ChromaticitiesFor(GamutDisplayP3), *p.Chromaticities)
	assert.Equal(t, p.ReferenceWhite, p.StatsScale)
	assert.Equal(t, float32(defaultReferenceWhite), p.ReferenceWhite)
	assert.Equal(t, float32(defaultGainBase), p.GainMap.Base)

	p = set["acesfast"]
	assert.Equal(t, EXRCompressionNone, p.Compression)
	assert.Equal(t, float32(12), p.GainMap.Base)
	assert.Equal(t, GamutACES2065, p.Gamut)

	// Built-ins are not modified by overrides.
	assert.Equal(t, 12, set[ProfileY4M].BitDepth)
}

func TestLoadProfiles_StatsScaleFollowsReferenceWhite(t *testing.T) {
	set, err := LoadProfiles(strings.NewReader(`
[profile.hdr10]
base = "y4m"
reference_white = 203.0

[profile.plain]
encoding = "y4m"
gamut = "bt2020"
transfer = "pq"
bit_depth = 10
range = "limited"
reference_white = 203.0

[profile.linear]
base = "y4m"
encoding = "exr"
transfer = "linear"
bit_depth = 0
`))
	require.NoError(t, err)

	assert.Equal(t, float32(203), set["hdr10"].StatsScale)
	assert.Equal(t, float32(203), set["plain"].StatsScale)
	assert.Equal(t, float32(1), set["linear"].StatsScale)

	res, err := NewEngine(DefaultConstants()).Run(context.Background(), Filled(2, 2, 3, 1), NewBuffer(2, 2, 1), set["hdr10"])
	require.NoError(t, err)
	assert.InDelta(t, 203, res.Stats.MaxCLL, 1e-3)
}

func TestLoadProfiles_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field":    "[profile.x]\nbase = \"exr\"\ncolour = \"red\"\n",
		"bad gamut":        "[profile.x]\nbase = \"exr\"\ngamut = \"xyz\"\n",
		"exr with depth":   "[profile.x]\nbase = \"exr\"\nbit_depth = 12\n",
		"missing gamut":    "[profile.x]\nencoding = \"exr\"\n",
		"bad compression":  "[profile.x]\nbase = \"exr\"\ncompression = \"b44\"\n",
		"bad toml":         "[profile.x\n",
		"png without bits": "[profile.x]\nbase = \"png\"\nbit_depth = 0\n",
	} {
		_, err := LoadProfiles(strings.NewReader(doc))
		assert.Error(t, err, name)
	}

	_, err := LoadProfiles(strings.NewReader("[profile.x]\nbase = \"nope\"\n"))
	assert.True(t, errors.Is(err, ErrUnknownProfile), err)
}

func TestParseEnums(t *testing.T) {
	e, err := ParseEncoding("y4m")
	require.NoError(t, err)
	assert.Equal(t, EncodingY4M, e)

	tc, err := ParseTransfer("pq")
	require.NoError(t, err)
	assert.Equal(t, TransferPQ, tc)

	r, err := ParseRange("limited")
	require.NoError(t, err)
	assert.Equal(t, RangeLimited, r)

	_, err = ParseEncoding("heic")
	assert.Error(t, err)
	_, err = ParseTransfer("hlg")
	assert.Error(t, err)
	_, err = ParseRange("narrow")
	assert.Error(t, err)
}
