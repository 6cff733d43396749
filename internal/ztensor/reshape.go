package ztensor

import (
	"github.com/born-ml/stick/internal/parallel"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
	"github.com/born-ml/stick/internal/tensor"
)

// ReshapeStrategy names how Reshape moved the data.
type ReshapeStrategy int

// Reshape strategies, fastest first.
const (
	// ReshapeCopyBuffer copies the whole buffer: both tensors have the same
	// transformed dims.
	ReshapeCopyBuffer ReshapeStrategy = iota
	// ReshapeCopySticks copies whole sticks: both tensors have the same
	// innermost dim.
	ReshapeCopySticks
	// ReshapeCopyCells moves every cell individually.
	ReshapeCopyCells
)

// String returns the strategy name.
func (s ReshapeStrategy) String() string {
	switch s {
	case ReshapeCopyBuffer:
		return "copy-buffer"
	case ReshapeCopySticks:
		return "copy-sticks"
	default:
		return "copy-cells"
	}
}

// Reshape copies the transformed src into the empty dst, which holds the
// same logical elements in row-major order under a different shape. Cells
// are moved as stored, without converting them. src is not modified; on
// success dst is transformed.
func Reshape(src, dst *Tensor) (ReshapeStrategy, error) {
	if n, m := src.pre.NumElements(), dst.pre.NumElements(); n != m {
		return 0, status.Newf(status.ErrInvalidShape, "cannot reshape %d elements %v into %d elements %v",
			n, src.pre.Shape(), m, dst.pre.Shape())
	}

	sl, dl := src.tfrmd.Layout(), dst.tfrmd.Layout()
	if sl != dl {
		return 0, status.Newf(status.ErrInvalidLayout, "cannot reshape %s into %s", sl, dl)
	}
	if (sl != tensor.NHWC && sl != tensor.HWCK) || src.tfrmd.Gates() > 1 || dst.tfrmd.Gates() > 1 {
		return 0, status.Newf(status.ErrInvalidLayout, "reshape needs unconcatenated NHWC or HWCK tensors, got %s", src.tfrmd)
	}
	if src.tfrmd.DType() != dst.tfrmd.DType() {
		return 0, status.Newf(status.ErrInvalidType, "cannot reshape %s into %s", src.tfrmd.DType(), dst.tfrmd.DType())
	}
	if src.quantized && dst.quant != src.quant {
		return 0, status.Newf(status.ErrInvalidOffset, "quantization %s differs from %s", dst.quant, src.quant)
	}
	if !src.transformed || dst.transformed {
		return 0, status.Newf(status.ErrInvalidState, "reshape needs a transformed source and an empty destination")
	}
	if err := src.precheck(); err != nil {
		return 0, err
	}
	if err := dst.precheck(); err != nil {
		return 0, err
	}

	srcDims := tensor.Canonical(src.pre, src.geometry().CellsPerStick())
	dstDims := tensor.Canonical(dst.pre, dst.geometry().CellsPerStick())
	inOrder := rowMajor(src.pre) && rowMajor(dst.pre)

	var strategy ReshapeStrategy
	switch {
	case inOrder && src.tfrmd.Dims() == dst.tfrmd.Dims():
		strategy = ReshapeCopyBuffer
		copy(dst.buf, src.buf)
	case inOrder && srcDims[3] == dstDims[3]:
		strategy = ReshapeCopySticks
		copySticks(src, dst, srcDims, dstDims)
	default:
		strategy = ReshapeCopyCells
		if err := copyCells(src, dst); err != nil {
			return 0, err
		}
	}

	dst.log.Debug("reshaped tensor", "src", src.tfrmd, "dst", dst.tfrmd, "strategy", strategy)
	dst.transformed = true
	return strategy, nil
}

// rowMajor reports whether walking the canonical dims of pre in row-major
// order visits its logical elements in row-major order. NCHW moves C
// innermost and 4DS packs dim3 into dim1, so both reorder unless the moved
// dim is 1.
func rowMajor(pre tensor.Descriptor) bool {
	switch pre.Layout() {
	case tensor.NCHW, tensor.Layout4DS:
		return pre.Dim(3) == 1
	default:
		return true
	}
}

// copySticks zeroes dst and copies dim1 runs stick by stick. Rows are
// visited in the same row-major order on both sides.
func copySticks(src, dst *Tensor, srcDims, dstDims [4]int) {
	sg, dg := src.geometry(), dst.geometry()
	cells := sg.CellsPerStick()
	sticks := stick.CeilDiv(srcDims[3], cells)

	so := odometer{dims: srcDims}
	do := odometer{dims: dstDims}
	rows := srcDims[0] * srcDims[1] * srcDims[2]
	clear(dst.buf)
	for r := 0; r < rows; r++ {
		for s := 0; s < sticks; s++ {
			from := sg.Offset(so.idx[0], so.idx[1], so.idx[2], s*cells)
			to := dg.Offset(do.idx[0], do.idx[1], do.idx[2], s*cells)
			copy(dst.buf[to:to+stick.StickBytes], src.buf[from:from+stick.StickBytes])
		}
		so.nextRow()
		do.nextRow()
	}
}

// copyCells zeroes dst and moves each cell to the position with the same
// logical row-major element number.
func copyCells(src, dst *Tensor) error {
	sp, dp := newPlacement(src), newPlacement(dst)
	size := sp.geo.CellSize
	width := sp.dims[3]

	clear(dst.buf)
	return parallel.For(sp.rows(), func(r int) error {
		l4, l3, l2 := sp.row(r)
		do := odometer{dims: dp.dims}
		do.at(r * width)
		for l1 := 0; l1 < width; l1++ {
			from := sp.offset(0, l4, l3, l2, l1)
			to := dp.offset(0, do.idx[0], do.idx[1], do.idx[2], do.idx[3])
			copy(dst.buf[to:to+size], src.buf[from:from+size])
			do.next()
		}
		return nil
	}, dst.cfg.Parallel)
}
