package format

import (
	"math"

	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
)

const (
	maxFP16 = 65504

	// 0x4FFF as bfloat16: the largest bfloat16 not above MaxFinite.
	maxBF16FromDLF = 8556380160
)

// MaxFinite32 is MaxFinite widened to float32.
var MaxFinite32 = MaxFinite.Float32()

// MaxLimit returns the largest value a cell of type transformed can hold
// once converted to target.
func MaxLimit(transformed, target tensor.DataType) (float64, error) {
	_, hi, err := limits(transformed, target)
	return hi, err
}

// MinLimit returns the smallest value a cell of type transformed can hold
// once converted to target.
func MinLimit(transformed, target tensor.DataType) (float64, error) {
	lo, _, err := limits(transformed, target)
	return lo, err
}

func limits(transformed, target tensor.DataType) (lo, hi float64, err error) {
	switch transformed {
	case tensor.DLFloat16:
		switch target {
		case tensor.FP32:
			m := float64(MaxFinite32)
			return -m, m, nil
		case tensor.FP16:
			return -maxFP16, maxFP16, nil
		case tensor.BFloat16:
			return -maxBF16FromDLF, maxBF16FromDLF, nil
		}
	case tensor.INT8:
		switch target {
		case tensor.FP32, tensor.FP16, tensor.BFloat16, tensor.INT8:
			return math.MinInt8, math.MaxInt8, nil
		}
	case tensor.INT32:
		if target == tensor.INT32 {
			return math.MinInt32, math.MaxInt32, nil
		}
	}
	return 0, 0, status.Newf(status.ErrInvalidType, "no limits for %s as %s", transformed, target)
}
