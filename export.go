package heifgainmap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vearutop/heifgainmap/internal/y4m"
)

// Write serializes a pipeline result into the container of its profile.
func Write(w io.Writer, res *Result) error {
	if res == nil || res.Linear == nil {
		return fmt.Errorf("%w: empty result", ErrOutputWrite)
	}
	p := res.Profile
	width, height := res.Linear.Width, res.Linear.Height

	switch p.Encoding {
	case EncodingEXR:
		return WriteEXR(w, res.Linear, EXROptions{
			Compression:    p.Compression,
			Chromaticities: p.Chromaticities,
			ColorSpace:     "Linear",
		})
	case EncodingPNG:
		var tag *CICP
		if c, ok := CICPFor(p); ok {
			tag = &c
		}
		return WritePNG(w, res.Planes, width, height, p.BitDepth, tag)
	case EncodingY4M:
		h := y4m.Header{Width: width, Height: height, BitDepth: p.BitDepth, Limited: p.Range == RangeLimited}
		if err := y4m.WriteFrame(w, h, res.Planes); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown encoding %d", ErrOutputWrite, p.Encoding)
	}
}

// WriteFile writes res to path, removing the partial file on failure.
func WriteFile(path string, res *Result) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrOutputWrite, cerr)
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	return Write(f, res)
}

// ReadFiles decodes the base image and the gain map, resampling the gain map to the base size.
func ReadFiles(basePath, gainmapPath string) (*Buffer, *Buffer, error) {
	bf, err := os.Open(filepath.Clean(basePath))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInputRead, err)
	}
	defer bf.Close()
	base, err := DecodeImage(bf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", basePath, err)
	}
	if base.Channels != 3 {
		base = expandGray(base)
	}

	gf, err := os.Open(filepath.Clean(gainmapPath))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInputRead, err)
	}
	defer gf.Close()
	gain, err := DecodeGainMap(gf, base.Width, base.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", gainmapPath, err)
	}
	return base, gain, nil
}

func expandGray(b *Buffer) *Buffer {
	out := NewBuffer(b.Width, b.Height, 3)
	for i, v := range b.Pix {
		out.Pix[i*3] = v
		out.Pix[i*3+1] = v
		out.Pix[i*3+2] = v
	}
	return out
}
