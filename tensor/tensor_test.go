// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/stick/tensor"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	pre, err := tensor.NewDescriptor(tensor.NHWC, tensor.FP32, 1, 4, 4, 3)
	require.NoError(t, err)
	tfrmd, err := tensor.Generate(pre, nil)
	require.NoError(t, err)
	assert.Equal(t, [4]int{1, 4, 4, 64}, tfrmd.Dims())
	assert.Equal(t, tensor.FormatFeature, tfrmd.Format())
	assert.EqualValues(t, 16384, tfrmd.BufferSize())

	pre, err = tensor.NewDescriptor(tensor.Layout3DS, tensor.FP32, 2, 3, 10)
	require.NoError(t, err)
	tfrmd, err = tensor.GenerateConcatenated(pre, tensor.GRU(tensor.UsageWeights), tensor.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, tensor.ZRH, tfrmd.Layout())
	assert.Equal(t, [4]int{2, 1, 3, 192}, tfrmd.Dims())
	assert.EqualValues(t, 180, tensor.NumElements(pre, tfrmd, tensor.ElementsConcatWithoutPad))

	_, err = tensor.GenerateQuantized(pre, tensor.LegacyConfig())
	require.NoError(t, err)
}

func TestStickifyRoundTrip(t *testing.T) {
	pre, err := tensor.NewDescriptor(tensor.NHWC, tensor.FP32, 1, 2, 2, 3)
	require.NoError(t, err)
	zt, err := tensor.New(tensor.DefaultConfig(), pre)
	require.NoError(t, err)

	values := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	require.NoError(t, tensor.Stickify(zt, values))
	out := make([]float32, len(values))
	require.NoError(t, tensor.Unstickify(zt, out))
	assert.Equal(t, values, out)

	lo, hi, err := tensor.GetRange(zt)
	require.NoError(t, err)
	assert.Zero(t, lo)
	assert.Equal(t, float32(12), hi)

	err = tensor.Stickify(zt, values)
	assert.True(t, errors.Is(err, tensor.ErrInvalidState))
	assert.Equal(t, "INVALID_STATE", tensor.KindOf(err))
}

func TestQuantizedAndSaturate(t *testing.T) {
	pre, err := tensor.NewDescriptor(tensor.Layout1D, tensor.FP32, 3)
	require.NoError(t, err)
	p, err := tensor.NewQuantParams(0.5, 0)
	require.NoError(t, err)
	zt, err := tensor.New(nil, pre, tensor.WithQuantization(p))
	require.NoError(t, err)
	require.NoError(t, tensor.Stickify(zt, []float32{1, -1, 100}))
	out := make([]float32, 3)
	require.NoError(t, tensor.Unstickify(zt, out))
	assert.Equal(t, []float32{1, -1, 63.5}, out)

	sat, err := tensor.New(nil, pre)
	require.NoError(t, err)
	require.True(t, errors.Is(tensor.Stickify(sat, []float32{1e10, 0, 0}), tensor.ErrRangeViolation))
	require.NoError(t, tensor.StickifySaturate(sat, []float32{1e10, 0, 0}))
}

func TestDLFloat16(t *testing.T) {
	d, err := tensor.ToDLFloat16(float32(1), tensor.Strict)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3E00), d.Bits())

	back, err := tensor.FromDLFloat16[float32](d)
	require.NoError(t, err)
	assert.Equal(t, float32(1), back)

	d, err = tensor.ToDLFloat16(float32(1e10), tensor.Saturate)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x7FFE), d.Bits())
}

func TestReshape(t *testing.T) {
	cfg := tensor.DefaultConfig()
	src, err := tensor.NewDescriptor(tensor.NHWC, tensor.FP32, 2, 1, 2, 2)
	require.NoError(t, err)
	dst, err := tensor.NewDescriptor(tensor.NHWC, tensor.FP32, 1, 1, 2, 4)
	require.NoError(t, err)
	a, err := tensor.New(cfg, src)
	require.NoError(t, err)
	b, err := tensor.New(cfg, dst)
	require.NoError(t, err)

	values := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, tensor.Stickify(a, values))
	strategy, err := tensor.Reshape(a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.ReshapeCopyCells, strategy)

	out := make([]float32, 8)
	require.NoError(t, tensor.Unstickify(b, out))
	assert.Equal(t, values, out)

	s, err := tensor.SliceDim4(a, 1)
	require.NoError(t, err)
	half := make([]float32, 4)
	require.NoError(t, tensor.Unstickify(s, half))
	assert.Equal(t, values[4:], half)
}
