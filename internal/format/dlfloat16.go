// Package format implements the numeric codecs between IEEE-754 single and
// half precision, bfloat16 and the accelerator-native DLFLOAT16 format, plus
// the per-type saturation limits.
//
// DLFLOAT16 layout, most significant bit first:
//
//	s eeeeee mmmmmmmmm
//
// One sign bit, a 6-bit exponent biased by 31 and a 9-bit mantissa with an
// implied leading one. There are no subnormals or infinities: exponent 0 with
// a non-zero mantissa is an ordinary normal number, the all-ones pattern
// (0x7FFF / 0xFFFF) is the single not-a-number encoding ("NINF"), and the
// largest finite magnitude is 0x7FFE = 2^32 * (1 + 510/512).
package format

import (
	"math"
	"strconv"
)

// DLFloat16 is a value in the accelerator-native 16-bit float format.
type DLFloat16 uint16

// Special DLFLOAT16 encodings.
const (
	NINF        DLFloat16 = 0x7FFF // Not-a-number / infinity.
	MaxFinite   DLFloat16 = 0x7FFE // Largest finite magnitude.
	MinPositive DLFloat16 = 0x0001 // Smallest non-zero magnitude.
	NegZero     DLFloat16 = 0x8000
)

const (
	dlfSignMask = 0x8000
	dlfExpBias  = 31
	dlfMantBits = 9
	dlfMantMask = 1<<dlfMantBits - 1
	dlfExpMax   = 63

	// Low FP32 mantissa bits dropped when narrowing 23 -> 9 bits.
	dlfDropBits = 23 - dlfMantBits
	dlfDropMask = 1<<dlfDropBits - 1
	dlfHalf     = 1 << (dlfDropBits - 1)
)

// halfMinPositive is the rounding boundary between zero and MinPositive.
var halfMinPositive = math.Ldexp(1+1.0/512, -dlfExpBias-1)

// narrowResult classifies the outcome of narrowing a float32.
type narrowResult uint8

const (
	narrowOK narrowResult = iota
	narrowOverflow
	narrowNotFinite
)

// narrow rounds f to the nearest DLFLOAT16 value, ties to even. Overflowing
// and non-finite inputs yield the sign-preserving NINF pattern (NaN yields
// positive NINF) together with their classification.
func narrow(f float32) (DLFloat16, narrowResult) {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & dlfSignMask
	exp := int(bits>>23) & 0xFF
	frac := bits & 0x7FFFFF

	if exp == 0xFF {
		if frac != 0 {
			return NINF, narrowNotFinite
		}
		return DLFloat16(sign) | NINF, narrowNotFinite
	}
	if exp == 0 {
		// FP32 zero or subnormal; both are far below MinPositive.
		return DLFloat16(sign), narrowOK
	}

	e := exp - 127 + dlfExpBias
	m := frac >> dlfDropBits
	rem := frac & dlfDropMask
	if rem > dlfHalf || (rem == dlfHalf && m&1 == 1) {
		m++
		if m > dlfMantMask {
			m = 0
			e++
		}
	}

	switch {
	case e > dlfExpMax || (e == dlfExpMax && m == dlfMantMask):
		return DLFloat16(sign) | NINF, narrowOverflow
	case e < 0 || (e == 0 && m == 0):
		if math.Abs(float64(f)) > halfMinPositive {
			return DLFloat16(sign) | MinPositive, narrowOK
		}
		return DLFloat16(sign), narrowOK
	}
	return DLFloat16(sign | uint16(e)<<dlfMantBits | uint16(m)), narrowOK
}

// FromBits returns the DLFLOAT16 with the given encoding.
func FromBits(b uint16) DLFloat16 {
	return DLFloat16(b)
}

// Bits returns the raw encoding.
func (d DLFloat16) Bits() uint16 {
	return uint16(d)
}

// IsNaN reports whether d is the NINF pattern (either sign).
func (d DLFloat16) IsNaN() bool {
	return d&^dlfSignMask == NINF
}

// Float32 widens d exactly. NINF widens to NaN.
func (d DLFloat16) Float32() float32 {
	if d.IsNaN() {
		return float32(math.NaN())
	}
	sign := uint32(d&dlfSignMask) << 16
	if d&^dlfSignMask == 0 {
		return math.Float32frombits(sign)
	}
	e := uint32(d>>dlfMantBits) & 0x3F
	m := uint32(d) & dlfMantMask
	return math.Float32frombits(sign | (e+127-dlfExpBias)<<23 | m<<dlfDropBits)
}

// String prints the widened value.
func (d DLFloat16) String() string {
	return strconv.FormatFloat(float64(d.Float32()), 'g', -1, 32)
}
