package heifgainmap

import (
	"context"
	"fmt"
	"time"
)

// Engine runs the reconstruction pipeline for any OutputProfile.
type Engine struct {
	consts Constants

	// CheckFinite rejects inputs with NaN or Inf samples instead of letting them saturate.
	CheckFinite bool
	// OnStage, if set, is called after every stage.
	OnStage func(stage string, elapsed time.Duration)
}

// NewEngine creates an engine bound to a set of constants.
func NewEngine(c Constants) *Engine {
	return &Engine{consts: c}
}

// Constants returns a copy of the engine constants.
func (e *Engine) Constants() Constants {
	return e.consts
}

// Run reconstructs the HDR image from a display encoded Display P3 base and a
// gain map already resampled to the base size, and encodes it for profile.
func (e *Engine) Run(ctx context.Context, base, gain *Buffer, profile OutputProfile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	if err := gain.validate(); err != nil {
		return nil, fmt.Errorf("gainmap: %w", err)
	}
	if base.Channels != 3 {
		return nil, fmt.Errorf("%w: base image has %d channels, want 3", ErrInvalidBuffer, base.Channels)
	}
	if !base.SameSize(gain) {
		return nil, fmt.Errorf("%w: gainmap %dx%d, base %dx%d", ErrShapeMismatch, gain.Width, gain.Height, base.Width, base.Height)
	}
	if e.CheckFinite {
		if err := checkFinite("base", base); err != nil {
			return nil, err
		}
		if err := checkFinite("gainmap", gain); err != nil {
			return nil, err
		}
	}

	res := &Result{Profile: profile}
	st := stager{ctx: ctx, onStage: e.OnStage}

	linear, err := st.run("decode", func() (*Buffer, error) {
		return DecodeTransfer(base, TransferSRGB, e.consts.PQ)
	})
	if err != nil {
		return nil, err
	}

	hdr, err := st.run("composite", func() (*Buffer, error) {
		return Composite(linear, gain, profile.GainMap)
	})
	if err != nil {
		return nil, err
	}

	scale := profile.StatsScale
	if scale == 0 {
		scale = 1
	}
	if _, err := st.run("analyze", func() (*Buffer, error) {
		res.Stats, err = Analyze(hdr, e.consts.DisplayP3ToY, scale)
		return hdr, err
	}); err != nil {
		return nil, err
	}

	m, _ := e.consts.PrimariesFromDisplayP3(profile.Gamut)
	out, err := st.run("primaries", func() (*Buffer, error) {
		return ApplyMatrix(hdr, m)
	})
	if err != nil {
		return nil, err
	}

	if profile.Transfer == TransferPQ {
		if out, err = st.run("scale", func() (*Buffer, error) {
			return ScaleBuffer(out, profile.ReferenceWhite)
		}); err != nil {
			return nil, err
		}
	}

	if out, err = st.run("encode", func() (*Buffer, error) {
		return EncodeTransfer(out, profile.Transfer, e.consts.PQ)
	}); err != nil {
		return nil, err
	}

	ycc := profile.Encoding == EncodingY4M
	if ycc {
		if out, err = st.run("ycbcr", func() (*Buffer, error) {
			return ToYCbCr(out, e.consts.BT2100YCbCr)
		}); err != nil {
			return nil, err
		}
	}
	res.Linear = out

	if profile.BitDepth > 0 {
		q, err := NewQuantizer(profile.BitDepth, profile.Range)
		if err != nil {
			return nil, err
		}
		if _, err := st.run("quantize", func() (*Buffer, error) {
			res.Planes, err = q.Quantize(out, ycc)
			return out, err
		}); err != nil {
			return nil, err
		}
	}

	return res, nil
}

type stager struct {
	ctx     context.Context
	onStage func(stage string, elapsed time.Duration)
}

func (s stager) run(name string, fn func() (*Buffer, error)) (*Buffer, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	b, err := fn()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if s.onStage != nil {
		s.onStage(name, time.Since(start))
	}
	return b, nil
}

func checkFinite(name string, b *Buffer) error {
	for i, v := range b.Pix {
		if !isFinite(v) {
			px := i / b.Channels
			return fmt.Errorf("%w: %s at %d,%d", ErrNonFinite, name, px%b.Width, px/b.Width)
		}
	}
	return nil
}
