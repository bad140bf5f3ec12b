package heifgainmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// EXROptions controls OpenEXR output.
type EXROptions struct {
	Compression    EXRCompression
	// Chromaticities is written when not nil.
	Chromaticities *Chromaticities
	// ColorSpace is stored as the oiio:ColorSpace string attribute when not empty.
	ColorSpace string
}

// channel names in the alphabetical order OpenEXR requires, mapped to buffer channels.
var exrOutputChannels = [3]struct {
	name string
	src  int
}{{"B", 2}, {"G", 1}, {"R", 0}}

// WriteEXR writes a 3 channel buffer as a single part scanline OpenEXR file
// with 32-bit float R, G, B channels.
func WriteEXR(w io.Writer, b *Buffer, opt EXROptions) error {
	if err := b.validate(); err != nil {
		return err
	}
	if b.Channels != 3 {
		return fmt.Errorf("%w: OpenEXR writer needs 3 channels, got %d", ErrInvalidBuffer, b.Channels)
	}
	if !opt.Compression.supported() {
		return fmt.Errorf("unsupported OpenEXR compression %s", opt.Compression)
	}

	var hdr bytes.Buffer
	putU32(&hdr, exrMagic)
	putU32(&hdr, 2) // version 2, single part scanline

	var chlist bytes.Buffer
	for _, ch := range exrOutputChannels {
		chlist.WriteString(ch.name)
		chlist.WriteByte(0)
		putU32(&chlist, exrPixelFloat)
		chlist.Write([]byte{0, 0, 0, 0}) // pLinear + reserved
		putU32(&chlist, 1)
		putU32(&chlist, 1)
	}
	chlist.WriteByte(0)
	writeEXRAttr(&hdr, "channels", "chlist", chlist.Bytes())

	if opt.Chromaticities != nil {
		var chr bytes.Buffer
		for _, v := range opt.Chromaticities.Floats() {
			putF32(&chr, v)
		}
		writeEXRAttr(&hdr, "chromaticities", "chromaticities", chr.Bytes())
	}
	writeEXRAttr(&hdr, "compression", "compression", []byte{byte(opt.Compression)})

	var box bytes.Buffer
	putU32(&box, 0)
	putU32(&box, 0)
	putU32(&box, uint32(b.Width-1))
	putU32(&box, uint32(b.Height-1))
	writeEXRAttr(&hdr, "dataWindow", "box2i", box.Bytes())
	writeEXRAttr(&hdr, "displayWindow", "box2i", box.Bytes())
	writeEXRAttr(&hdr, "lineOrder", "lineOrder", []byte{0})
	if opt.ColorSpace != "" {
		writeEXRAttr(&hdr, "oiio:ColorSpace", "string", []byte(opt.ColorSpace))
	}

	var f bytes.Buffer
	putF32(&f, 1)
	writeEXRAttr(&hdr, "pixelAspectRatio", "float", f.Bytes())
	writeEXRAttr(&hdr, "screenWindowCenter", "v2f", make([]byte, 8))
	writeEXRAttr(&hdr, "screenWindowWidth", "float", f.Bytes())
	hdr.WriteByte(0)

	lines := opt.Compression.blockLines()
	blockCount := (b.Height + lines - 1) / lines
	blocks := make([][]byte, blockCount)
	errs := make([]error, blockCount)
	parallelRows(blockCount, func(start, end int) {
		for i := start; i < end; i++ {
			blocks[i], errs[i] = exrEncodeBlock(b, i*lines, lines, opt.Compression)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	offset := uint64(hdr.Len() + 8*blockCount)
	for i := range blocks {
		putU64(&hdr, offset)
		offset += uint64(8 + len(blocks[i]))
	}
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	var chunk [8]byte
	for i, data := range blocks {
		binary.LittleEndian.PutUint32(chunk[0:4], uint32(i*lines))
		binary.LittleEndian.PutUint32(chunk[4:8], uint32(len(data)))
		if _, err := w.Write(chunk[:]); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
	}
	return nil
}

func exrEncodeBlock(b *Buffer, startY, lines int, compression EXRCompression) ([]byte, error) {
	if startY+lines > b.Height {
		lines = b.Height - startY
	}
	raw := make([]byte, 0, lines*b.Width*4*3)
	var sample [4]byte
	for y := startY; y < startY+lines; y++ {
		for _, ch := range exrOutputChannels {
			for x := 0; x < b.Width; x++ {
				binary.LittleEndian.PutUint32(sample[:], math.Float32bits(b.Pix[(y*b.Width+x)*3+ch.src]))
				raw = append(raw, sample[:]...)
			}
		}
	}
	if compression == EXRCompressionNone {
		return raw, nil
	}

	packed := shuffleBytes(raw)
	applyPredictor(packed)
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write(packed); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if zbuf.Len() >= len(raw) {
		return raw, nil
	}
	return zbuf.Bytes(), nil
}

// shuffleBytes is the inverse of unshuffleBytes: even bytes first, then odd bytes.
func shuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[i] = data[2*i]
		out[i+n] = data[2*i+1]
	}
	return out
}

// applyPredictor is the inverse of undoPredictor.
func applyPredictor(data []byte) {
	if len(data) == 0 {
		return
	}
	prev := data[0]
	for i := 1; i < len(data); i++ {
		cur := data[i]
		data[i] = byte(int(cur) - int(prev) + 128)
		prev = cur
	}
}

func writeEXRAttr(w *bytes.Buffer, name, typ string, value []byte) {
	w.WriteString(name)
	w.WriteByte(0)
	w.WriteString(typ)
	w.WriteByte(0)
	putU32(w, uint32(len(value)))
	w.Write(value)
}

func putU32(w *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

func putU64(w *bytes.Buffer, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.Write(buf[:])
}

func putF32(w *bytes.Buffer, v float32) {
	putU32(w, math.Float32bits(v))
}
