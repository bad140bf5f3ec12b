package y4m_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/heifgainmap/internal/y4m"
)

func TestWriteFrame(t *testing.T) {
	h := y4m.Header{Width: 2, Height: 1, BitDepth: 12, Limited: true}
	var buf bytes.Buffer
	require.NoError(t, y4m.WriteFrame(&buf, h, [3][]uint16{{256, 3760}, {2048, 0x0102}, {3840, 1}}))

	want := "YUV4MPEG2 W2 H1 F1:1 Ip A1:1 C444p12 XYSCSS=444P12 XCOLORRANGE=LIMITED\nFRAME\n"
	assert.Equal(t, want, buf.String()[:len(want)])
	assert.Equal(t, []byte{
		0x00, 0x01, 0xb0, 0x0e,
		0x00, 0x08, 0x02, 0x01,
		0x00, 0x0f, 0x01, 0x00,
	}, buf.Bytes()[len(want):])
}

func TestWriteFrame_8Bit(t *testing.T) {
	h := y4m.Header{Width: 1, Height: 2, BitDepth: 8}
	assert.Equal(t, "YUV4MPEG2 W1 H2 F1:1 Ip A1:1 C444 XYSCSS=444 XCOLORRANGE=FULL\n", h.String())

	var buf bytes.Buffer
	require.NoError(t, y4m.WriteFrame(&buf, h, [3][]uint16{{1, 2}, {3, 4}, {5, 6}}))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf.Bytes()[len(h.String())+len("FRAME\n"):])

	buf.Reset()
	assert.Error(t, y4m.WriteFrame(&buf, h, [3][]uint16{{1, 256}, {3, 4}, {5, 6}}))
}

func TestWriteFrame_Rejects(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, y4m.WriteFrame(&buf, y4m.Header{Width: 1, Height: 1, BitDepth: 9}, [3][]uint16{{1}, {1}, {1}}))
	assert.Error(t, y4m.WriteFrame(&buf, y4m.Header{Width: 2, Height: 1, BitDepth: 10}, [3][]uint16{{1}, {1}, {1}}))
	assert.Zero(t, buf.Len())
}
