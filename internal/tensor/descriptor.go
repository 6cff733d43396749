package tensor

import (
	"fmt"

	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
)

// Descriptor is an immutable tensor description. A pre-transformed
// descriptor (from NewDescriptor) carries the logical shape as supplied by
// the application; a transformed descriptor (from Generate and friends)
// carries the padded dims of the stickified buffer.
//
// Dims are stored outermost first as dim4, dim3, dim2, dim1. Dims a layout
// does not use are 1.
type Descriptor struct {
	layout Layout
	format Format
	dtype  DataType
	dims   [4]int
	gates  int
}

// NewDescriptor returns a pre-transformed descriptor. shape lists exactly
// layout.NumDims() dims, outermost first.
func NewDescriptor(layout Layout, dtype DataType, shape ...int) (Descriptor, error) {
	if !layout.IsLogical() {
		return Descriptor{}, status.Newf(status.ErrInvalidLayout, "%s cannot describe a logical tensor", layout)
	}
	if len(shape) != layout.NumDims() {
		return Descriptor{}, status.Newf(status.ErrInvalidShape, "%s needs %d dims, got %d", layout, layout.NumDims(), len(shape))
	}

	d := Descriptor{layout: layout, dtype: dtype, dims: [4]int{1, 1, 1, 1}}
	first := 4 - len(shape)
	for i, n := range shape {
		if n <= 0 {
			return Descriptor{}, status.Newf(status.ErrInvalidShape, "dim%d must be > 0, got %d", 4-first-i, n)
		}
		d.dims[first+i] = n
	}
	return d, nil
}

// Layout returns the layout tag.
func (d Descriptor) Layout() Layout { return d.layout }

// Format returns the stick format. It is only meaningful on transformed
// descriptors.
func (d Descriptor) Format() Format { return d.format }

// DType returns the element type.
func (d Descriptor) DType() DataType { return d.dtype }

// Dims returns dim4, dim3, dim2, dim1.
func (d Descriptor) Dims() [4]int { return d.dims }

// Dim returns dim1..dim4 by axis number.
func (d Descriptor) Dim(axis int) int {
	if axis < 1 || axis > 4 {
		return 0
	}
	return d.dims[4-axis]
}

// Shape returns the populated dims, outermost first.
func (d Descriptor) Shape() []int {
	n := d.layout.NumDims()
	out := make([]int, n)
	copy(out, d.dims[4-n:])
	return out
}

// Gates returns how many gate tensors are packed in the buffer (1 when the
// tensor is not concatenated).
func (d Descriptor) Gates() int {
	if d.gates < 1 {
		return 1
	}
	return d.gates
}

// IsTransformed reports whether d came out of the generator.
func (d Descriptor) IsTransformed() bool {
	return d.gates > 0
}

// NumElements returns the product of the populated dims.
func (d Descriptor) NumElements() uint64 {
	n := uint64(1)
	for _, v := range d.Shape() {
		n *= uint64(v)
	}
	return n
}

// Geometry returns the stick geometry of a transformed descriptor.
func (d Descriptor) Geometry() stick.Geometry {
	g := stick.Geometry{Dims: d.dims, CellSize: d.dtype.Size()}
	if d.format == FormatKernel {
		g.Tiling = stick.Kernel
	}
	if g.CellSize == 0 {
		g.CellSize = 2
	}
	return g
}

// BufferSize returns the stickified buffer size of a transformed descriptor.
func (d Descriptor) BufferSize() uint64 {
	return d.Geometry().BufferSize()
}

// String formats the descriptor for logs and test output.
func (d Descriptor) String() string {
	if !d.IsTransformed() {
		return fmt.Sprintf("%s %s %v", d.layout, d.dtype, d.Shape())
	}
	s := fmt.Sprintf("%s %s %s %v", d.layout, d.format, d.dtype, d.dims)
	if d.gates > 1 {
		s += fmt.Sprintf(" gates=%d", d.gates)
	}
	return s
}

// ElementsMode selects what NumElements counts.
type ElementsMode int

// Element counting modes.
const (
	// ElementsAll counts every cell of the padded transformed dims.
	ElementsAll ElementsMode = iota
	// ElementsConcatSingle counts the logical elements of one gate.
	ElementsConcatSingle
	// ElementsConcatWithoutPad counts the logical elements of all gates.
	ElementsConcatWithoutPad
)

// NumElements counts the elements of a tensor described by its
// pre-transformed and transformed descriptors.
func NumElements(pre, tfrmd Descriptor, mode ElementsMode) uint64 {
	switch mode {
	case ElementsAll:
		n := uint64(1)
		for _, v := range tfrmd.dims {
			n *= uint64(v)
		}
		return n
	case ElementsConcatSingle:
		return pre.NumElements()
	case ElementsConcatWithoutPad:
		return pre.NumElements() * uint64(tfrmd.Gates())
	default:
		return 0
	}
}
