package heifgainmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMatrix_Linear(t *testing.T) {
	c := DefaultConstants()
	x := testRamp(6, 5, 3, 2)
	y := testRamp(6, 5, 3, -1.5)
	const alpha, beta = float32(0.7), float32(-1.3)

	mix := NewBuffer(6, 5, 3)
	for i := range mix.Pix {
		mix.Pix[i] = alpha*x.Pix[i] + beta*y.Pix[i]
	}

	for _, m := range []ColorMatrix{c.DisplayP3ToACES2065, c.DisplayP3ToSCRGB, c.DisplayP3ToBT2020, c.BT2100YCbCr} {
		got, err := ApplyMatrix(mix, m)
		require.NoError(t, err)
		mx, err := ApplyMatrix(x, m)
		require.NoError(t, err)
		my, err := ApplyMatrix(y, m)
		require.NoError(t, err)
		for i := range got.Pix {
			assert.InDelta(t, alpha*mx.Pix[i]+beta*my.Pix[i], got.Pix[i], 1e-5)
		}
	}
}

func TestApplyMatrix_Coefficients(t *testing.T) {
	c := DefaultConstants()
	basis := &Buffer{Width: 3, Height: 1, Channels: 3, Pix: []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}}

	got, err := ApplyMatrix(basis, c.DisplayP3ToBT2020)
	require.NoError(t, err)
	// Columns of the matrix.
	assert.Equal(t, []float32{
		0.75383303, 0.045743849, -0.00121034035,
		0.19859737, 0.9417772, 0.017601717,
		0.047569597, 0.012478931, 0.9836086,
	}, got.Pix)
}

func TestApplyMatrix_RejectsChannels(t *testing.T) {
	_, err := ApplyMatrix(NewBuffer(2, 2, 1), IdentityMatrix())
	assert.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestToYCbCr_NeutralChroma(t *testing.T) {
	c := DefaultConstants()
	for _, v := range []float32{0, 0.1, 0.5, 1} {
		out, err := ToYCbCr(Filled(1, 1, 3, v), c.BT2100YCbCr)
		require.NoError(t, err)
		assert.InDelta(t, v, out.Pix[0], 1e-6)
		assert.InDelta(t, 0, out.Pix[1], 1e-6)
		assert.InDelta(t, 0, out.Pix[2], 1e-6)
	}
}

func TestPrimariesFromDisplayP3(t *testing.T) {
	c := DefaultConstants()
	m, ok := c.PrimariesFromDisplayP3(GamutACES2065)
	assert.True(t, ok)
	assert.Equal(t, c.DisplayP3ToACES2065, m)

	m, ok = c.PrimariesFromDisplayP3(GamutDisplayP3)
	assert.True(t, ok)
	assert.Equal(t, IdentityMatrix(), m)

	_, ok = c.PrimariesFromDisplayP3(GamutUnspecified)
	assert.False(t, ok)
}

func TestParseGamut(t *testing.T) {
	for in, want := range map[string]ColorGamut{
		"bt2020":     GamutBT2020,
		"aces":       GamutACES2065,
		"aces2065-1": GamutACES2065,
		"scrgb":      GamutSRGB,
		"display-p3": GamutDisplayP3,
	} {
		g, err := ParseGamut(in)
		require.NoError(t, err)
		assert.Equal(t, want, g, in)
	}
	_, err := ParseGamut("xyz")
	assert.Error(t, err)
}
