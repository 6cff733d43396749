// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/stick/internal/format"

// DLFloat16Value is a single native cell: 1 sign bit, 6 exponent bits
// (bias 31) and 9 mantissa bits. 0x7FFF is NINF.
type DLFloat16Value = format.DLFloat16

// BFloat16Value is a bfloat16 element.
type BFloat16Value = format.BFloat16

// Wide is the set of element types convertible to and from DLFLOAT16.
type Wide = format.Wide

// Mode selects how out-of-range values are converted.
type Mode = format.Mode

// Conversion modes.
const (
	Strict   Mode = format.Strict
	Saturate Mode = format.Saturate
)

// ToDLFloat16 converts one value, rounding to nearest even.
func ToDLFloat16[T Wide](v T, mode Mode) (DLFloat16Value, error) {
	return format.ToNative(v, mode)
}

// FromDLFloat16 widens one native cell.
func FromDLFloat16[T Wide](d DLFloat16Value) (T, error) {
	return format.FromNative[T](d)
}
