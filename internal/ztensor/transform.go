package ztensor

import (
	"github.com/born-ml/stick/internal/format"
	"github.com/born-ml/stick/internal/parallel"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/cockroachdb/errors"
	"github.com/x448/float16"
)

// Element is the set of Go types a tensor can be filled from or read into.
type Element interface {
	float32 | float16.Float16 | format.BFloat16 | int8
}

func elementType[T Element]() tensor.DataType {
	var zero T
	switch any(zero).(type) {
	case float16.Float16:
		return tensor.FP16
	case format.BFloat16:
		return tensor.BFloat16
	case int8:
		return tensor.INT8
	default:
		return tensor.FP32
	}
}

func toFloat32[T Element](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case float16.Float16:
		return x.Float32()
	case format.BFloat16:
		return x.Float32()
	case int8:
		return float32(x)
	}
	return 0
}

// Stickify converts the row-major gates into the tensor's buffer and marks
// it transformed. A concatenated tensor takes one slice per gate, in gate
// order; any other tensor takes exactly one. Values outside the DLFLOAT16
// range fail the whole transform.
func Stickify[T Element](t *Tensor, gates ...[]T) error {
	return stickify(t, format.Strict, gates)
}

// StickifySaturate is Stickify with out-of-range values clipped to the
// largest DLFLOAT16 magnitude and NaN/Inf stored as NINF.
func StickifySaturate[T Element](t *Tensor, gates ...[]T) error {
	return stickify(t, format.Saturate, gates)
}

func stickify[T Element](t *Tensor, mode format.Mode, gates [][]T) error {
	if t.transformed {
		return status.Newf(status.ErrInvalidState, "tensor is already transformed")
	}
	if err := t.checkElements(elementType[T](), len(gates)); err != nil {
		return err
	}
	for g, data := range gates {
		if uint64(len(data)) != t.pre.NumElements() {
			return status.Newf(status.ErrInvalidBuffer, "gate %d has %d elements, need %d", g, len(data), t.pre.NumElements())
		}
	}
	if err := t.precheck(); err != nil {
		return err
	}

	enc := encoder[T](t, mode)
	p := newPlacement(t)
	rows, width := p.rows(), p.dims[3]

	clear(t.buf)
	err := parallel.For(len(gates)*rows, func(i int) error {
		g, r := i/rows, i%rows
		l4, l3, l2 := p.row(r)
		for l1, v := range gates[g][r*width : (r+1)*width] {
			if err := enc(t.buf[p.offset(g, l4, l3, l2, l1):], v); err != nil {
				return errors.WithDetailf(errors.Wrapf(err, "element %d", r*width+l1), "gate %d", g)
			}
		}
		return nil
	}, t.cfg.Parallel)
	if err != nil {
		t.log.Warn("stickify failed", "tensor", t.pre, "mode", mode, "err", err)
		return err
	}
	t.transformed = true
	return nil
}

// checkElements validates the element type and gate count of a transform.
func (t *Tensor) checkElements(dt tensor.DataType, gates int) error {
	if dt != t.pre.DType() {
		return status.Newf(status.ErrInvalidType, "%s tensor cannot use %s elements", t.pre.DType(), dt)
	}
	return t.checkGates(gates)
}

func (t *Tensor) checkGates(gates int) error {
	if gates != t.tfrmd.Gates() {
		return status.Newf(status.ErrInvalidBuffer, "need %d gate buffers, got %d", t.tfrmd.Gates(), gates)
	}
	return nil
}

func encoder[T Element](t *Tensor, mode format.Mode) func(dst []byte, v T) error {
	if t.quantized {
		if elementType[T]() == tensor.INT8 {
			return func(dst []byte, v T) error {
				dst[0] = byte(any(v).(int8))
				return nil
			}
		}
		q := t.quant
		return func(dst []byte, v T) error {
			dst[0] = byte(q.Quantize(toFloat32(v)))
			return nil
		}
	}
	return func(dst []byte, v T) error {
		d, err := format.ToNative(toFloat32(v), mode)
		if err != nil {
			return err
		}
		byteOrder.PutUint16(dst, d.Bits())
		return nil
	}
}

// Unstickify converts the buffer back into row-major outs, one per gate.
// Concatenated RNN layouts cannot be read back. Quantized tensors unstickify
// into float32 (dequantized) or into int8 (raw values).
func Unstickify[T Element](t *Tensor, outs ...[]T) error {
	if t.tfrmd.Layout().IsConcatenated() {
		return status.Newf(status.ErrInvalidLayout, "%s tensors cannot be unstickified", t.tfrmd.Layout())
	}
	if !t.transformed {
		return status.Newf(status.ErrInvalidState, "tensor is not transformed")
	}
	if dt := elementType[T](); t.quantized {
		if dt != tensor.FP32 && dt != tensor.INT8 {
			return status.Newf(status.ErrInvalidType, "quantized tensors unstickify into FP32 or INT8, not %s", dt)
		}
		if err := t.checkGates(len(outs)); err != nil {
			return err
		}
	} else if err := t.checkElements(dt, len(outs)); err != nil {
		return err
	}
	for g, out := range outs {
		if uint64(len(out)) != t.pre.NumElements() {
			return status.Newf(status.ErrInvalidBuffer, "gate %d has room for %d elements, need %d", g, len(out), t.pre.NumElements())
		}
	}
	if err := t.precheck(); err != nil {
		return err
	}

	dec := decoder[T](t)
	p := newPlacement(t)
	rows, width := p.rows(), p.dims[3]

	err := parallel.For(len(outs)*rows, func(i int) error {
		g, r := i/rows, i%rows
		l4, l3, l2 := p.row(r)
		dst := outs[g][r*width : (r+1)*width]
		for l1 := range dst {
			v, err := dec(t.buf[p.offset(g, l4, l3, l2, l1):])
			if err != nil {
				return errors.WithDetailf(errors.Wrapf(err, "element %d", r*width+l1), "gate %d", g)
			}
			dst[l1] = v
		}
		return nil
	}, t.cfg.Parallel)
	if err != nil {
		t.log.Warn("unstickify failed", "tensor", t.pre, "err", err)
	}
	return err
}

func decoder[T Element](t *Tensor) func(src []byte) (T, error) {
	if t.quantized {
		if elementType[T]() == tensor.INT8 {
			return func(src []byte) (T, error) {
				return any(int8(src[0])).(T), nil
			}
		}
		q := t.quant
		return func(src []byte) (T, error) {
			return any(q.Dequantize(int8(src[0]))).(T), nil
		}
	}

	switch elementType[T]() {
	case tensor.FP16:
		return nativeDecoder[T, float16.Float16]()
	case tensor.BFloat16:
		return nativeDecoder[T, format.BFloat16]()
	default:
		return nativeDecoder[T, float32]()
	}
}

func nativeDecoder[T Element, W format.Wide]() func(src []byte) (T, error) {
	return func(src []byte) (T, error) {
		w, err := format.FromNative[W](format.FromBits(byteOrder.Uint16(src)))
		return any(w).(T), err
	}
}
