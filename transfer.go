package heifgainmap

import "fmt"

// DecodeTransfer removes curve from every sample of src and returns linear values.
// PQ decoding yields cd/m²; divide by the reference white to get relative values.
func DecodeTransfer(src *Buffer, curve TransferCurve, pq PQCurve) (*Buffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	dst := NewBuffer(src.Width, src.Height, src.Channels)
	switch curve {
	case TransferLinear:
		copy(dst.Pix, src.Pix)
	case TransferSRGB:
		mapSamples(dst, src, srgbEOTF)
	case TransferPQ:
		mapSamples(dst, src, pq.eotf)
	default:
		return nil, fmt.Errorf("unsupported transfer curve %d", curve)
	}
	return dst, nil
}

// EncodeTransfer applies curve to linear samples of src.
// PQ input is expected in cd/m², see ScaleBuffer.
func EncodeTransfer(src *Buffer, curve TransferCurve, pq PQCurve) (*Buffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	dst := NewBuffer(src.Width, src.Height, src.Channels)
	switch curve {
	case TransferLinear:
		copy(dst.Pix, src.Pix)
	case TransferSRGB:
		mapSamples(dst, src, srgbOETF)
	case TransferPQ:
		mapSamples(dst, src, pq.oetf)
	default:
		return nil, fmt.Errorf("unsupported transfer curve %d", curve)
	}
	return dst, nil
}

// ScaleBuffer returns src multiplied by k.
func ScaleBuffer(src *Buffer, k float32) (*Buffer, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	dst := NewBuffer(src.Width, src.Height, src.Channels)
	mapSamples(dst, src, func(v float32) float32 { return v * k })
	return dst, nil
}
