// Package quant implements the affine int8 quantization used by quantized
// stickified tensors:
//
//	q = clamp(round(r/scale + zeroPoint), -128, 127)
//	r = (q - zeroPoint) * scale
//
// Rounding is half away from zero.
package quant

import (
	"fmt"
	"math"

	"github.com/born-ml/stick/internal/status"
)

// Params holds the quantization parameters of a tensor.
type Params struct {
	Scale     float32 `json:"scale"`
	ZeroPoint float32 `json:"zero_point"`
}

// NewParams validates scale and zeroPoint and returns them as Params.
func NewParams(scale, zeroPoint float32) (Params, error) {
	p := Params{Scale: scale, ZeroPoint: zeroPoint}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate reports ErrInvalidOffset for a zero or non-finite scale or a
// non-finite zero point.
func (p Params) Validate() error {
	s := float64(p.Scale)
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return status.Newf(status.ErrInvalidOffset, "scale must be finite and non-zero, got %g", p.Scale)
	}
	z := float64(p.ZeroPoint)
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return status.Newf(status.ErrInvalidOffset, "zero point must be finite, got %g", p.ZeroPoint)
	}
	return nil
}

// Quantize maps r to int8. p must be valid.
func (p Params) Quantize(r float32) int8 {
	return clamp(r/p.Scale+p.ZeroPoint, math.MinInt8, math.MaxInt8)
}

// Dequantize maps q back to a real value.
func (p Params) Dequantize(q int8) float32 {
	return (float32(q) - p.ZeroPoint) * p.Scale
}

// Requantize returns the value r becomes after a quantize/dequantize round
// trip.
func (p Params) Requantize(r float32) float32 {
	return p.Dequantize(p.Quantize(r))
}

// String formats p for logs.
func (p Params) String() string {
	return fmt.Sprintf("scale=%g zero_point=%g", p.Scale, p.ZeroPoint)
}

// clamp rounds v half away from zero and clamps it to [lo, hi]. NaN maps to
// lo.
func clamp(v float32, lo, hi float32) int8 {
	r := float32(math.Round(float64(v)))
	if !(r > lo) {
		return int8(lo)
	}
	if r > hi {
		return int8(hi)
	}
	return int8(r)
}

// Quantize quantizes a single value, failing on invalid parameters.
func Quantize(r, scale, zeroPoint float32) (int8, error) {
	p, err := NewParams(scale, zeroPoint)
	if err != nil {
		return 0, err
	}
	return p.Quantize(r), nil
}

// Dequantize dequantizes a single value, failing on invalid parameters.
func Dequantize(q int8, scale, zeroPoint float32) (float32, error) {
	p, err := NewParams(scale, zeroPoint)
	if err != nil {
		return 0, err
	}
	return p.Dequantize(q), nil
}

// Requantize predicts the value r takes after the hardware's int8 round
// trip.
func Requantize(r, scale, zeroPoint float32) (float32, error) {
	p, err := NewParams(scale, zeroPoint)
	if err != nil {
		return 0, err
	}
	return p.Requantize(r), nil
}

// QuantizeClipped quantizes r and clamps the result to [lo, hi] instead of
// the full int8 range. Bounds outside [-128, 127], non-finite bounds or
// lo > hi are ErrInvalidClippingValue.
func QuantizeClipped(r float32, p Params, lo, hi float32) (int8, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if !(lo >= math.MinInt8 && hi <= math.MaxInt8 && lo <= hi) {
		return 0, status.Newf(status.ErrInvalidClippingValue, "clip range [%g, %g] is not within [-128, 127]", lo, hi)
	}
	return clamp(r/p.Scale+p.ZeroPoint, lo, hi), nil
}

// ParamsFromRange derives parameters that cover [lo, hi]. The range is
// widened to include zero. Symmetric parameters use zero point 0 and map
// the larger magnitude to 127; asymmetric ones spread the range over all
// 256 levels.
func ParamsFromRange(lo, hi float32, symmetric bool) (Params, error) {
	if math.IsNaN(float64(lo)) || math.IsNaN(float64(hi)) || math.IsInf(float64(lo), 0) || math.IsInf(float64(hi), 0) {
		return Params{}, status.Newf(status.ErrInvalidArgument, "range [%g, %g] is not finite", lo, hi)
	}
	if lo > hi {
		return Params{}, status.Newf(status.ErrInvalidArgument, "range minimum %g exceeds maximum %g", lo, hi)
	}
	lo, hi = min(lo, 0), max(hi, 0)
	if lo == hi {
		return Params{Scale: 1}, nil
	}

	if symmetric {
		absMax := max(-lo, hi)
		return NewParams(absMax/math.MaxInt8, 0)
	}

	scale := (hi - lo) / (math.MaxInt8 - math.MinInt8)
	zp := float32(math.Round(float64(math.MinInt8 - lo/scale)))
	zp = min(max(zp, math.MinInt8), math.MaxInt8)
	return NewParams(scale, zp)
}
