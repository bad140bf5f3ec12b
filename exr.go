package heifgainmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const exrMagic = 20000630

// EXRCompression is an OpenEXR scanline compression method.
type EXRCompression byte

const (
	EXRCompressionNone EXRCompression = 0
	EXRCompressionZIPS EXRCompression = 2
	EXRCompressionZIP  EXRCompression = 3
)

func (c EXRCompression) String() string {
	switch c {
	case EXRCompressionNone:
		return "none"
	case EXRCompressionZIPS:
		return "zips"
	case EXRCompressionZIP:
		return "zip"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

func (c EXRCompression) supported() bool {
	return c == EXRCompressionNone || c == EXRCompressionZIPS || c == EXRCompressionZIP
}

// blockLines is the number of scanlines stored per chunk.
func (c EXRCompression) blockLines() int {
	if c == EXRCompressionZIP {
		return 16
	}
	return 1
}

// ParseEXRCompression maps "none", "zips" or "zip".
func ParseEXRCompression(s string) (EXRCompression, error) {
	for _, c := range []EXRCompression{EXRCompressionNone, EXRCompressionZIPS, EXRCompressionZIP} {
		if c.String() == s {
			return c, nil
		}
	}
	return EXRCompressionNone, fmt.Errorf("unknown OpenEXR compression %q", s)
}

const (
	exrPixelUint  = 0
	exrPixelHalf  = 1
	exrPixelFloat = 2
)

const (
	exrChanOther = -2
	exrChanY     = -1
	exrChanR     = 0
	exrChanG     = 1
	exrChanB     = 2
)

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
	role      int
}

// EXRHeader is the subset of OpenEXR header attributes this package reads.
type EXRHeader struct {
	Width, Height  int
	MinY           int
	Compression    EXRCompression
	Chromaticities *Chromaticities
	channels       []exrChannel
}

// DecodeEXR decodes a single part scanline OpenEXR file into a 3 channel buffer.
// Y-only images are expanded to gray RGB.
func DecodeEXR(data []byte) (*Buffer, error) {
	out, _, err := DecodeEXRWithHeader(data)
	return out, err
}

// DecodeEXRWithHeader is DecodeEXR that also returns the parsed header.
func DecodeEXRWithHeader(data []byte) (*Buffer, *EXRHeader, error) {
	r := bytes.NewReader(data)
	h, err := readEXRHeader(r)
	if err != nil {
		return nil, nil, err
	}

	lines := h.Compression.blockLines()
	blockCount := (h.Height + lines - 1) / lines
	offsets := make([]uint64, blockCount)
	for i := range offsets {
		if offsets[i], err = readU64(r); err != nil {
			return nil, nil, err
		}
	}

	out := NewBuffer(h.Width, h.Height, 3)
	for _, off := range offsets {
		if off == 0 {
			continue
		}
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, nil, err
		}
		y, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		dataSize, err := readI32(r)
		if err != nil {
			return nil, nil, err
		}
		if dataSize < 0 || int64(dataSize) > int64(r.Len()) {
			return nil, nil, errors.New("invalid OpenEXR block size")
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, nil, err
		}

		startY := int(y) - h.MinY
		if startY < 0 || startY >= h.Height {
			return nil, nil, errors.New("OpenEXR scanline out of bounds")
		}
		n := lines
		if startY+n > h.Height {
			n = h.Height - startY
		}
		unpacked, err := exrDecompress(h.Compression, raw, exrExpectedBlockBytes(h.Width, n, h.channels))
		if err != nil {
			return nil, nil, err
		}
		if err := exrDecodeBlock(out, h.channels, startY, h.Width, n, unpacked); err != nil {
			return nil, nil, err
		}
	}
	return out, h, nil
}

func readEXRHeader(r *bytes.Reader) (*EXRHeader, error) {
	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != exrMagic {
		return nil, errors.New("not an OpenEXR file")
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	switch {
	case version&0x00000200 != 0:
		return nil, errors.New("tiled OpenEXR not supported")
	case version&0x00000800 != 0:
		return nil, errors.New("multipart OpenEXR not supported")
	case version&0x00000400 != 0:
		return nil, errors.New("deep OpenEXR not supported")
	}

	h := &EXRHeader{Compression: EXRCompressionNone}
	var window []byte
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		size, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if size < 0 || int64(size) > int64(r.Len()) {
			return nil, errors.New("invalid EXR attribute size")
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, errors.New("unexpected channels attribute type")
			}
			if h.channels, err = parseEXRChannels(payload); err != nil {
				return nil, err
			}
		case "dataWindow":
			if typ != "box2i" || len(payload) != 16 {
				return nil, errors.New("invalid dataWindow attribute")
			}
			window = payload
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return nil, errors.New("invalid compression attribute")
			}
			h.Compression = EXRCompression(payload[0])
		case "chromaticities":
			if typ != "chromaticities" || len(payload) != 32 {
				return nil, errors.New("invalid chromaticities attribute")
			}
			var f [8]float32
			for i := range f {
				f[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
			}
			h.Chromaticities = &Chromaticities{f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7]}
		case "tiles":
			return nil, errors.New("tiled OpenEXR not supported")
		}
	}

	if len(h.channels) == 0 {
		return nil, errors.New("OpenEXR missing channels")
	}
	if !hasRGBOrY(h.channels) {
		return nil, errors.New("OpenEXR missing R/G/B or Y channels")
	}
	if window == nil {
		return nil, errors.New("OpenEXR missing dataWindow")
	}
	for _, ch := range h.channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return nil, errors.New("OpenEXR subsampled channels are not supported")
		}
	}
	if !h.Compression.supported() {
		return nil, fmt.Errorf("unsupported OpenEXR compression %d", byte(h.Compression))
	}

	minX := int32(binary.LittleEndian.Uint32(window[0:4]))
	minY := int32(binary.LittleEndian.Uint32(window[4:8]))
	maxX := int32(binary.LittleEndian.Uint32(window[8:12]))
	maxY := int32(binary.LittleEndian.Uint32(window[12:16]))
	h.Width = int(maxX-minX) + 1
	h.Height = int(maxY-minY) + 1
	h.MinY = int(minY)
	if h.Width <= 0 || h.Height <= 0 {
		return nil, errors.New("invalid OpenEXR dimensions")
	}
	return h, nil
}

func parseEXRChannels(data []byte) ([]exrChannel, error) {
	r := bytes.NewReader(data)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if pixelType != exrPixelHalf && pixelType != exrPixelFloat && pixelType != exrPixelUint {
			return nil, fmt.Errorf("unsupported OpenEXR pixel type %d", pixelType)
		}
		if _, err := r.ReadByte(); err != nil {
			return nil, err
		}
		if _, err := r.Seek(3, io.SeekCurrent); err != nil {
			return nil, err
		}
		xSampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ySampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		role := exrChanOther
		switch strings.ToUpper(name) {
		case "R":
			role = exrChanR
		case "G":
			role = exrChanG
		case "B":
			role = exrChanB
		case "Y":
			role = exrChanY
		}
		channels = append(channels, exrChannel{
			name:      name,
			pixelType: pixelType,
			xSampling: xSampling,
			ySampling: ySampling,
			role:      role,
		})
	}
	return channels, nil
}

func exrExpectedBlockBytes(width, lines int, channels []exrChannel) int {
	total := 0
	for _, ch := range channels {
		bpp := 0
		switch ch.pixelType {
		case exrPixelHalf:
			bpp = 2
		case exrPixelFloat, exrPixelUint:
			bpp = 4
		}
		total += width * lines * bpp
	}
	return total
}

func exrDecompress(compression EXRCompression, data []byte, expected int) ([]byte, error) {
	switch compression {
	case EXRCompressionNone:
		if expected > 0 && len(data) != expected {
			return nil, errors.New("unexpected OpenEXR block size")
		}
		return data, nil
	case EXRCompressionZIPS, EXRCompressionZIP:
		// Writers store a chunk raw when compression does not pay off.
		if len(data) == expected {
			return data, nil
		}
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		uncompressed, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if expected > 0 && len(uncompressed) != expected {
			return nil, errors.New("unexpected OpenEXR decompressed size")
		}
		if len(uncompressed)%2 != 0 {
			return nil, errors.New("invalid OpenEXR ZIP payload size")
		}
		undoPredictor(uncompressed)
		return unshuffleBytes(uncompressed), nil
	default:
		return nil, errors.New("unsupported OpenEXR compression")
	}
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

func unshuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[2*i] = data[i]
		out[2*i+1] = data[i+n]
	}
	return out
}

func exrDecodeBlock(dst *Buffer, channels []exrChannel, startY, width, lines int, data []byte) error {
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			bpp := 0
			switch ch.pixelType {
			case exrPixelHalf:
				bpp = 2
			case exrPixelFloat, exrPixelUint:
				bpp = 4
			default:
				return errors.New("unsupported OpenEXR channel pixel type")
			}
			lineBytes := width * bpp
			if offset+lineBytes > len(data) {
				return errors.New("OpenEXR block truncated")
			}
			line := data[offset : offset+lineBytes]
			offset += lineBytes

			switch ch.role {
			case exrChanR, exrChanG, exrChanB, exrChanY:
				if err := exrApplyLine(dst, ch.role, y, width, ch.pixelType, line); err != nil {
					return err
				}
			default:
				continue
			}
		}
	}
	return nil
}

func exrApplyLine(dst *Buffer, role int, y, width int, pixelType int32, line []byte) error {
	for x := 0; x < width; x++ {
		var v float32
		switch pixelType {
		case exrPixelHalf:
			off := x * 2
			v = halfToFloat32(binary.LittleEndian.Uint16(line[off : off+2]))
		case exrPixelFloat:
			off := x * 4
			v = math.Float32frombits(binary.LittleEndian.Uint32(line[off : off+4]))
		case exrPixelUint:
			off := x * 4
			v = float32(binary.LittleEndian.Uint32(line[off : off+4]))
		default:
			return errors.New("unsupported OpenEXR pixel type")
		}
		idx := (y*dst.Width + x) * dst.Channels
		switch role {
		case exrChanR:
			dst.Pix[idx] = v
		case exrChanG:
			dst.Pix[idx+1] = v
		case exrChanB:
			dst.Pix[idx+2] = v
		case exrChanY:
			dst.Pix[idx] = v
			dst.Pix[idx+1] = v
			dst.Pix[idx+2] = v
		}
	}
	return nil
}

func hasRGBOrY(channels []exrChannel) bool {
	for _, ch := range channels {
		if ch.role == exrChanR || ch.role == exrChanG || ch.role == exrChanB || ch.role == exrChanY {
			return true
		}
	}
	return false
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp = exp + (127 - 15)
	mant <<= 13
	bits := (sign << 31) | (uint32(exp) << 23) | uint32(mant)
	return math.Float32frombits(bits)
}
