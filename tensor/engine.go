// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"log/slog"

	"github.com/born-ml/stick/internal/quant"
	"github.com/born-ml/stick/internal/ztensor"
)

// Tensor is a stickified tensor: both descriptors plus a page-aligned buffer.
type Tensor = ztensor.Tensor

// Element is the set of logical element types Stickify accepts.
type Element = ztensor.Element

// Option configures New.
type Option = ztensor.Option

// QuantParams are the affine int8 quantization parameters.
type QuantParams = quant.Params

// ReshapeStrategy reports how Reshape moved the data.
type ReshapeStrategy = ztensor.ReshapeStrategy

// Reshape strategies.
const (
	ReshapeCopyBuffer = ztensor.ReshapeCopyBuffer
	ReshapeCopySticks = ztensor.ReshapeCopySticks
	ReshapeCopyCells  = ztensor.ReshapeCopyCells
)

// NewQuantParams validates and returns quantization parameters.
func NewQuantParams(scale, zeroPoint float32) (QuantParams, error) {
	return quant.NewParams(scale, zeroPoint)
}

// WithConcat packs RNN gates into the tensor.
func WithConcat(c Concat) Option { return ztensor.WithConcat(c) }

// WithQuantization makes the tensor an int8 quantized one.
func WithQuantization(p QuantParams) Option { return ztensor.WithQuantization(p) }

// WithLogger sets the tensor's logger.
func WithLogger(l *slog.Logger) Option { return ztensor.WithLogger(l) }

// New allocates an empty tensor for pre.
func New(cfg *Config, pre Descriptor, opts ...Option) (*Tensor, error) {
	return ztensor.New(cfg, pre, opts...)
}

// Stickify converts the logical values of every gate into t's buffer.
// Values outside the DLFLOAT16 range fail the whole call.
func Stickify[T Element](t *Tensor, gates ...[]T) error {
	return ztensor.Stickify(t, gates...)
}

// StickifySaturate is Stickify with out-of-range values clipped.
func StickifySaturate[T Element](t *Tensor, gates ...[]T) error {
	return ztensor.StickifySaturate(t, gates...)
}

// Unstickify converts t's buffer back into logical values.
func Unstickify[T Element](t *Tensor, outs ...[]T) error {
	return ztensor.Unstickify(t, outs...)
}

// Reshape copies the contents of src into dst, which holds the same number
// of elements in another shape.
func Reshape(src, dst *Tensor) (ReshapeStrategy, error) {
	return ztensor.Reshape(src, dst)
}

// SliceDim4 returns a copy of slice i along the outermost dim.
func SliceDim4(t *Tensor, i int) (*Tensor, error) {
	return ztensor.SliceDim4(t, i)
}

// GetRange returns the smallest and largest value of a DLFLOAT16 tensor.
func GetRange(t *Tensor) (lo, hi float32, err error) {
	return ztensor.GetRange(t)
}
