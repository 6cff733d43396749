package ztensor

import (
	"math"

	"github.com/born-ml/stick/internal/format"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
)

// SliceDim4 returns a copy of slice i of t along the transformed dim4 (the
// outermost logical dim of 4D, NHWC and NCHW tensors, dim2 of 2DS and dim3
// of 3DS tensors). The slice keeps t's concatenation and quantization.
func SliceDim4(t *Tensor, i int) (*Tensor, error) {
	shape := t.pre.Shape()
	switch t.pre.Layout() {
	case tensor.Layout2DS, tensor.Layout3DS, tensor.Layout4D, tensor.NHWC, tensor.NCHW:
		shape[0] = 1
	default:
		return nil, status.Newf(status.ErrInvalidLayout, "%s tensors cannot be sliced", t.pre.Layout())
	}

	// Checked after the layout so 1D..3D tensors report the layout problem.
	n := t.tfrmd.Dim(4)
	if n < 2 {
		return nil, status.Newf(status.ErrInvalidShape, "dim4 must be > 1 to slice, got %d", n)
	}
	if i < 0 || i >= n {
		return nil, status.Newf(status.ErrInvalidShape, "slice %d out of range, dim4 is %d", i, n)
	}
	if !t.transformed {
		return nil, status.Newf(status.ErrInvalidState, "tensor is not transformed")
	}

	pre, err := tensor.NewDescriptor(t.pre.Layout(), t.pre.DType(), shape...)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithConcat(t.concat), WithLogger(t.log)}
	if t.quantized {
		opts = []Option{WithQuantization(t.quant), WithLogger(t.log)}
	}
	out, err := New(t.cfg, pre, opts...)
	if err != nil {
		return nil, err
	}

	size := len(t.buf) / n
	if size != len(out.buf) {
		return nil, status.Newf(status.ErrInvalidBuffer, "slice is %d bytes, expected %d", size, len(out.buf))
	}
	copy(out.buf, t.buf[i*size:(i+1)*size])
	out.transformed = true
	return out, nil
}

// GetRange returns the smallest and largest logical value held by a
// transformed NHWC DLFLOAT16 tensor. Padding cells are not read. min is
// never above -0 and max never below 0.
func GetRange(t *Tensor) (lo, hi float32, err error) {
	if !t.transformed {
		return 0, 0, status.Newf(status.ErrInvalidState, "tensor is not transformed")
	}
	if t.tfrmd.Layout() != tensor.NHWC {
		return 0, 0, status.Newf(status.ErrInvalidLayout, "range needs NHWC, got %s", t.tfrmd.Layout())
	}
	if t.tfrmd.Format() != tensor.FormatFeature {
		return 0, 0, status.Newf(status.ErrInvalidFormat, "range needs %s, got %s", tensor.FormatFeature, t.tfrmd.Format())
	}
	if t.tfrmd.DType() != tensor.DLFloat16 {
		return 0, 0, status.Newf(status.ErrInvalidType, "range needs %s, got %s", tensor.DLFloat16, t.tfrmd.DType())
	}

	lo, hi = float32(math.Copysign(0, -1)), 0
	p := newPlacement(t)
	width := p.dims[3]
	for g := 0; g < t.tfrmd.Gates(); g++ {
		for r := 0; r < p.rows(); r++ {
			l4, l3, l2 := p.row(r)
			for l1 := 0; l1 < width; l1++ {
				v := format.FromBits(byteOrder.Uint16(t.buf[p.offset(g, l4, l3, l2, l1):]))
				if v.IsNaN() {
					return 0, 0, status.Newf(status.ErrConvertFailure, "NINF at element %d of gate %d", r*width+l1, g)
				}
				f := v.Float32()
				lo, hi = min(lo, f), max(hi, f)
			}
		}
	}
	return lo, hi, nil
}
