package heifgainmap

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEXR_RoundTrip(t *testing.T) {
	src := NewBuffer(7, 37, 3)
	for i := range src.Pix {
		src.Pix[i] = float32(i%23)*0.37 - 1.5
	}
	src.Pix[5] = 12345.678
	src.Pix[6] = -0.0001

	chr := ChromaticitiesFor(GamutACES2065)
	for _, c := range []EXRCompression{EXRCompressionNone, EXRCompressionZIPS, EXRCompressionZIP} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteEXR(&buf, src, EXROptions{Compression: c, Chromaticities: &chr, ColorSpace: "Linear"}))

			out, h, err := DecodeEXRWithHeader(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, 7, h.Width)
			assert.Equal(t, 37, h.Height)
			assert.Equal(t, c, h.Compression)
			require.NotNil(t, h.Chromaticities)
			assert.Equal(t, chr, *h.Chromaticities)
			assert.Equal(t, src.Pix, out.Pix)
		})
	}
}

func TestWriteEXR_Header(t *testing.T) {
	var buf bytes.Buffer
	chr := ChromaticitiesFor(GamutSRGB)
	require.NoError(t, WriteEXR(&buf, Filled(2, 2, 3, 1), EXROptions{Compression: EXRCompressionZIP, Chromaticities: &chr}))

	data := buf.Bytes()
	assert.Equal(t, uint32(exrMagic), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:8]))
	assert.Contains(t, buf.String(), "chromaticities\x00chromaticities\x00")
	assert.NotContains(t, buf.String(), "oiio:ColorSpace")
}

func TestWriteEXR_Untagged(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEXR(&buf, Filled(3, 2, 3, 0.5), EXROptions{ColorSpace: "Linear"}))
	assert.NotContains(t, buf.String(), "chromaticities")

	out, h, err := DecodeEXRWithHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Nil(t, h.Chromaticities)
	assert.Equal(t, Filled(3, 2, 3, 0.5).Pix, out.Pix)
}

func TestWriteEXR_Rejects(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteEXR(&buf, NewBuffer(2, 2, 1), EXROptions{}), ErrInvalidBuffer)
	assert.Error(t, WriteEXR(&buf, NewBuffer(2, 2, 3), EXROptions{Compression: 4}))
}

func TestShufflePredictorInverse(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i*37 + 11)
	}
	packed := shuffleBytes(raw)
	applyPredictor(packed)
	undoPredictor(packed)
	assert.Equal(t, raw, unshuffleBytes(packed))
}

func TestHalfToFloat32(t *testing.T) {
	assert.Equal(t, float32(1), halfToFloat32(0x3c00))
	assert.Equal(t, float32(-2), halfToFloat32(0xc000))
	assert.Equal(t, float32(65504), halfToFloat32(0x7bff))
	assert.True(t, math.IsInf(float64(halfToFloat32(0x7c00)), 1))
}

func TestParseEXRCompression(t *testing.T) {
	c, err := ParseEXRCompression("zips")
	require.NoError(t, err)
	assert.Equal(t, EXRCompressionZIPS, c)

	_, err = ParseEXRCompression("piz")
	assert.Error(t, err)
}
