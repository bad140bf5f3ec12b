package heifgainmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	w := DefaultConstants().DisplayP3ToY

	st, err := Analyze(Filled(4, 4, 3, 1), w, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1, st.MaxCLL, 1e-6)
	assert.InDelta(t, 1, st.MaxFALL, 1e-6)

	b := NewBuffer(2, 2, 3)
	b.Set(1, 1, 0, 2)
	b.Set(1, 1, 1, 2)
	b.Set(1, 1, 2, 2)
	st, err = Analyze(b, w, 100)
	require.NoError(t, err)
	assert.InDelta(t, 200, st.MaxCLL, 1e-4)
	assert.InDelta(t, 50, st.MaxFALL, 1e-3)
}

func TestAnalyze_NegativeFrame(t *testing.T) {
	st, err := Analyze(Filled(3, 3, 3, -0.5), DefaultConstants().DisplayP3ToY, 1)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, st.MaxCLL, 1e-6)
	assert.InDelta(t, -0.5, st.MaxFALL, 1e-6)
}

func TestAnalyze_LargeImage(t *testing.T) {
	b := NewBuffer(50, 300, 3)
	b.Set(49, 299, 1, 10)
	st, err := Analyze(b, [3]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(10), st.MaxCLL)
	assert.InDelta(t, 10.0/(50*300), st.MaxFALL, 1e-7)
}

func TestAnalyze_RejectsChannels(t *testing.T) {
	_, err := Analyze(NewBuffer(2, 2, 1), DefaultConstants().DisplayP3ToY, 1)
	assert.ErrorIs(t, err, ErrInvalidBuffer)
}

func TestAnalyze_NaNPropagates(t *testing.T) {
	w := DefaultConstants().DisplayP3ToY
	for _, row := range []int{0, minRowsPerWorker, 63} {
		b := Filled(8, 64, 3, 0.25)
		b.Set(0, row, 1, float32(math.NaN()))
		for i := 0; i < 10; i++ {
			st, err := Analyze(b, w, 100)
			require.NoError(t, err)
			assert.True(t, math.IsNaN(float64(st.MaxCLL)), "row %d", row)
			assert.True(t, math.IsNaN(float64(st.MaxFALL)), "row %d", row)
		}
	}
}
