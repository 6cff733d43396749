// Package tensor provides the descriptor types of the stick engine and the
// generator that derives a transformed (stickified) descriptor from a logical
// one.
package tensor

import (
	"strings"

	"github.com/born-ml/stick/internal/status"
)

// DataType represents the element type of a descriptor.
type DataType int

// Supported data types.
const (
	FP32 DataType = iota
	FP16
	BFloat16
	INT8
	INT32
	DLFloat16
)

// Size returns the byte size of the data type, or 0 if unknown.
func (dt DataType) Size() int {
	switch dt {
	case FP32, INT32:
		return 4
	case FP16, BFloat16, DLFloat16:
		return 2
	case INT8:
		return 1
	default:
		return 0
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case FP32:
		return "FP32"
	case FP16:
		return "FP16"
	case BFloat16:
		return "BFLOAT"
	case INT8:
		return "INT8"
	case INT32:
		return "INT32"
	case DLFloat16:
		return "DLFLOAT16"
	default:
		return "UNKNOWN"
	}
}

// IsFloat reports whether dt is one of the IEEE-style input float types.
func (dt DataType) IsFloat() bool {
	return dt == FP32 || dt == FP16 || dt == BFloat16
}

// ParseDataType parses a data type name as printed by String. A few common
// aliases (float32, bf16, ...) are accepted too.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FP32", "FLOAT32":
		return FP32, nil
	case "FP16", "FLOAT16":
		return FP16, nil
	case "BFLOAT", "BFLOAT16", "BF16":
		return BFloat16, nil
	case "INT8":
		return INT8, nil
	case "INT32":
		return INT32, nil
	case "DLFLOAT16", "DLF16":
		return DLFloat16, nil
	default:
		return 0, status.Newf(status.ErrInvalidType, "unknown data type %q", s)
	}
}
