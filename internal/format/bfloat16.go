package format

import (
	"math"
	"strconv"
)

// BFloat16 is the upper half of an IEEE-754 binary32: 1 sign bit, 8 exponent
// bits and 7 mantissa bits.
type BFloat16 uint16

// BFloat16FromFloat32 rounds x to the nearest bfloat16, ties to even. NaN
// stays NaN (quieted).
func BFloat16FromFloat32(x float32) BFloat16 {
	bits := math.Float32bits(x)
	if math.IsNaN(float64(x)) {
		return BFloat16(bits>>16 | 0x0040)
	}
	bits += 0x7FFF + (bits>>16)&1
	return BFloat16(bits >> 16)
}

// BFloat16FromBits returns the bfloat16 with the given encoding.
func BFloat16FromBits(b uint16) BFloat16 {
	return BFloat16(b)
}

// Bits returns the raw encoding.
func (b BFloat16) Bits() uint16 {
	return uint16(b)
}

// Float32 widens b exactly.
func (b BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// String prints the widened value.
func (b BFloat16) String() string {
	return strconv.FormatFloat(float64(b.Float32()), 'g', -1, 32)
}
