package ztensor

import (
	"github.com/born-ml/stick/internal/stick"
	"github.com/born-ml/stick/internal/tensor"
)

// placement maps the logical index of one gate's element to its byte offset
// in the stickified buffer.
type placement struct {
	geo    stick.Geometry
	layout tensor.Layout
	dims   [4]int // logical dims, dim4 first

	// dim1Pad is the stick-padded logical dim1. It separates gates and, for
	// 4DS, the dim3 slices packed along dim1.
	dim1Pad int

	// Previous-layer bidirectional weights: the second half of dim2 starts
	// at halfPad instead of half.
	half, halfPad int
}

func newPlacement(t *Tensor) placement {
	geo := t.geometry()
	cells := geo.CellsPerStick()
	p := placement{
		geo:     geo,
		layout:  t.pre.Layout(),
		dims:    t.pre.Dims(),
		dim1Pad: stick.Pad(t.pre.Dim(1), cells),
	}
	if t.concat.PrevLayerBidir {
		p.half = t.pre.Dim(2) / 2
		p.halfPad = stick.Pad(p.half, cells)
	}
	return p
}

// rows returns the number of dim1 runs of one gate.
func (p *placement) rows() int {
	return p.dims[0] * p.dims[1] * p.dims[2]
}

// row splits a row number into logical l4, l3, l2.
func (p *placement) row(r int) (l4, l3, l2 int) {
	l2 = r % p.dims[2]
	r /= p.dims[2]
	return r / p.dims[1], r % p.dims[1], l2
}

func (p *placement) offset(gate, l4, l3, l2, l1 int) int {
	var t4, t3, t2, t1 int
	switch p.layout {
	case tensor.Layout2DS:
		t4, t3, t2, t1 = l2, 0, 0, l1
	case tensor.Layout3DS:
		t4, t3, t2, t1 = l3, 0, l2, l1
	case tensor.Layout4DS:
		t4, t3, t2, t1 = l4, 0, l2, l3*p.dim1Pad+l1
	case tensor.NCHW:
		t4, t3, t2, t1 = l4, l2, l1, l3
	default:
		t4, t3, t2, t1 = l4, l3, l2, l1
	}
	if p.half > 0 && t2 >= p.half {
		t2 += p.halfPad - p.half
	}
	return p.geo.Offset(t4, t3, t2, t1+gate*p.dim1Pad)
}

// odometer walks a 4D index in row-major order.
type odometer struct {
	dims [4]int
	idx  [4]int
}

// at positions the odometer at linear index n.
func (o *odometer) at(n int) {
	for k := 3; k >= 0; k-- {
		o.idx[k] = n % o.dims[k]
		n /= o.dims[k]
	}
}

// nextRow advances the outer three digits by one, leaving idx[3] untouched.
func (o *odometer) nextRow() {
	for k := 2; k >= 0; k-- {
		o.idx[k]++
		if o.idx[k] < o.dims[k] {
			return
		}
		o.idx[k] = 0
	}
}

// next advances the odometer by one element.
func (o *odometer) next() {
	o.idx[3]++
	if o.idx[3] < o.dims[3] {
		return
	}
	o.idx[3] = 0
	o.nextRow()
}
