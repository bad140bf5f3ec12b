package heifgainmap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Containers(t *testing.T) {
	e := NewEngine(DefaultConstants())
	base := testRamp(5, 3, 3, 1)
	gain := testRamp(5, 3, 1, 2)

	for name, prefix := range map[string]string{
		ProfileEXR:   "\x76\x2f\x31\x01",
		ProfileACES:  "\x76\x2f\x31\x01",
		ProfilePNG:   "\x89PNG\r\n\x1a\n",
		ProfileY4M:   "YUV4MPEG2 W5 H3 F1:1 Ip A1:1 C444p12 ",
		ProfileY4M10: "YUV4MPEG2 W5 H3 F1:1 Ip A1:1 C444p10 ",
	} {
		t.Run(name, func(t *testing.T) {
			res, err := e.Run(context.Background(), base, gain, mustProfile(t, name))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, res))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(prefix)), "%q", buf.Bytes()[:len(prefix)])
		})
	}
}

func TestWrite_EXRKeepsLinear(t *testing.T) {
	e := NewEngine(DefaultConstants())
	res, err := e.Run(context.Background(), testRamp(4, 20, 3, 1), testRamp(4, 20, 1, 1), mustProfile(t, ProfileACES))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res))
	back, h, err := DecodeEXRWithHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, res.Linear.Pix, back.Pix)
	assert.Equal(t, ChromaticitiesFor(GamutACES2065), *h.Chromaticities)
	assert.Contains(t, buf.String(), "oiio:ColorSpace\x00string\x00")
}

func TestWrite_EXRChromaticitiesPerProfile(t *testing.T) {
	e := NewEngine(DefaultConstants())
	for name, tagged := range map[string]bool{ProfileEXR: false, ProfileSCRGB: true, ProfileACES: true} {
		res, err := e.Run(context.Background(), Filled(2, 2, 3, 0.5), NewBuffer(2, 2, 1), mustProfile(t, name))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, res))
		_, h, err := DecodeEXRWithHeader(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, tagged, h.Chromaticities != nil, name)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	e := NewEngine(DefaultConstants())
	res, err := e.Run(context.Background(), Filled(2, 2, 3, 0.5), NewBuffer(2, 2, 1), mustProfile(t, ProfileY4M))
	require.NoError(t, err)

	path := filepath.Join(dir, "out.y4m")
	require.NoError(t, WriteFile(path, res))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Header, frame marker and three 12-bit planes of 4 samples.
	assert.Len(t, data, len("YUV4MPEG2 W2 H2 F1:1 Ip A1:1 C444p12 XYSCSS=444P12 XCOLORRANGE=LIMITED\n")+6+3*4*2)

	bad := *res
	bad.Planes[2] = bad.Planes[2][:1]
	failed := filepath.Join(dir, "bad.y4m")
	err = WriteFile(failed, &bad)
	assert.ErrorIs(t, err, ErrOutputWrite)
	_, statErr := os.Stat(failed)
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, Write(&bytes.Buffer{}, nil), ErrOutputWrite)
}
