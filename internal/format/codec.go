package format

import (
	"math"

	"github.com/born-ml/stick/internal/status"
	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

// Mode selects how values outside the DLFLOAT16 range are handled.
type Mode uint8

// Conversion modes.
const (
	// Strict fails on NaN/Inf (ErrConvertFailure) and on finite magnitudes
	// above MaxFinite (ErrRangeViolation).
	Strict Mode = iota
	// Saturate clips finite magnitudes to MaxFinite and maps NaN/Inf to
	// NINF without failing.
	Saturate
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Saturate {
		return "saturate"
	}
	return "strict"
}

// Wide is the set of IEEE-style element types convertible to and from
// DLFLOAT16.
type Wide interface {
	float32 | float16.Float16 | BFloat16
}

func widen[T Wide](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case float16.Float16:
		return x.Float32()
	case BFloat16:
		return x.Float32()
	}
	panic("unreachable")
}

// ToNative converts v to DLFLOAT16, rounding to nearest with ties to even.
// In Strict mode the returned value is the NINF pattern whenever err is
// non-nil.
func ToNative[T Wide](v T, mode Mode) (DLFloat16, error) {
	f := widen(v)
	d, res := narrow(f)
	switch res {
	case narrowOverflow:
		if mode == Saturate {
			return d&dlfSignMask | MaxFinite, nil
		}
		return d, status.Newf(status.ErrRangeViolation, "%g exceeds DLFLOAT16 range", f)
	case narrowNotFinite:
		if mode == Saturate {
			return NINF, nil
		}
		return d, status.Newf(status.ErrConvertFailure, "%g has no DLFLOAT16 value", f)
	}
	return d, nil
}

// FromNative widens d to T. NINF cannot be widened (ErrConvertFailure);
// values above the FP16 range widen to a signed FP16 infinity together with
// ErrRangeViolation. BFLOAT16 results are truncated toward zero.
func FromNative[T Wide](d DLFloat16) (T, error) {
	var out T
	if d.IsNaN() {
		return narrowWide[T](float32(math.NaN())), status.Newf(status.ErrConvertFailure, "DLFLOAT16 %#04x is NINF", d.Bits())
	}
	f := d.Float32()
	if _, ok := any(out).(float16.Float16); ok && math.Abs(float64(f)) > maxFP16 {
		sign := 1
		if f < 0 {
			sign = -1
		}
		inf := any(float16.Inf(sign)).(T)
		return inf, status.Newf(status.ErrRangeViolation, "%g exceeds FP16 range", f)
	}
	return narrowWide[T](f), nil
}

func narrowWide[T Wide](f float32) T {
	var out T
	switch any(out).(type) {
	case float16.Float16:
		return any(float16.Fromfloat32(f)).(T)
	case BFloat16:
		// Truncated: the nine DLFLOAT16 mantissa bits drop to seven.
		return any(BFloat16(math.Float32bits(f) >> 16)).(T)
	default:
		return any(f).(T)
	}
}

// ConvertMany converts src into dst and returns how many elements were
// converted. The first failing element stops the batch; elements before it
// are converted and the failing one is not written.
func ConvertMany[T Wide](dst []DLFloat16, src []T, mode Mode) (int, error) {
	return ConvertManyStrided(dst, src, 1, mode)
}

// ConvertManyStrided converts every stride-th element of src into the packed
// dst. The number of elements converted is bounded by len(dst).
func ConvertManyStrided[T Wide](dst []DLFloat16, src []T, stride int, mode Mode) (int, error) {
	if stride < 1 {
		return 0, status.Newf(status.ErrInvalidArgument, "stride must be >= 1, got %d", stride)
	}
	n := 0
	for i := 0; i < len(src) && n < len(dst); i += stride {
		d, err := ToNative(src[i], mode)
		if err != nil {
			return n, errors.Wrapf(err, "element %d", n)
		}
		dst[n] = d
		n++
	}
	return n, nil
}

// ConvertManyFromNative widens src into dst and returns how many elements
// were converted.
func ConvertManyFromNative[T Wide](dst []T, src []DLFloat16) (int, error) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		v, err := FromNative[T](src[i])
		if err != nil {
			return i, errors.Wrapf(err, "element %d", i)
		}
		dst[i] = v
	}
	return n, nil
}
