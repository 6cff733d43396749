package quant

import (
	"math"
	"testing"

	"github.com/born-ml/stick/internal/status"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		name        string
		r, scale, z float32
		want        int8
	}{
		{"reference value", 28.734085, 0.70588235294, 14, 55},
		{"zero", 0, 0.5, 0, 0},
		{"zero point only", 0, 0.5, -3, -3},
		{"half rounds away from zero", 1.25, 0.5, 0, 3},
		{"negative half rounds away from zero", -1.25, 0.5, 0, -3},
		{"clamps high", 1000, 1, 0, 127},
		{"clamps low", -1000, 1, 0, -128},
		{"nan clamps low", float32(math.NaN()), 1, 0, -128},
		{"inf clamps high", float32(math.Inf(1)), 1, 0, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantize(tt.r, tt.scale, tt.z)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDequantize(t *testing.T) {
	got, err := Dequantize(55, 0.5, 14)
	require.NoError(t, err)
	assert.Equal(t, float32(20.5), got)

	got, err = Requantize(3.3, 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), got)
}

func TestInvalidParams(t *testing.T) {
	for _, scale := range []float32{0, float32(math.NaN()), float32(math.Inf(-1))} {
		_, err := Quantize(1, scale, 0)
		assert.ErrorIs(t, err, status.ErrInvalidOffset)
		_, err = Dequantize(1, scale, 0)
		assert.ErrorIs(t, err, status.ErrInvalidOffset)
		_, err = Requantize(1, scale, 0)
		assert.ErrorIs(t, err, status.ErrInvalidOffset)
	}
	_, err := NewParams(1, float32(math.Inf(1)))
	assert.ErrorIs(t, err, status.ErrInvalidOffset)
}

func TestQuantizeClipped(t *testing.T) {
	p, err := NewParams(1, 0)
	require.NoError(t, err)

	got, err := QuantizeClipped(50, p, -10, 10)
	require.NoError(t, err)
	assert.Equal(t, int8(10), got)

	got, err = QuantizeClipped(-50, p, -10, 10)
	require.NoError(t, err)
	assert.Equal(t, int8(-10), got)

	got, err = QuantizeClipped(4.4, p, -128, 127)
	require.NoError(t, err)
	assert.Equal(t, int8(4), got)

	for _, b := range [][2]float32{{5, -5}, {-129, 0}, {0, 128}, {float32(math.NaN()), 0}} {
		_, err = QuantizeClipped(1, p, b[0], b[1])
		assert.ErrorIs(t, err, status.ErrInvalidClippingValue, "bounds %v", b)
	}

	_, err = QuantizeClipped(1, Params{}, -1, 1)
	assert.ErrorIs(t, err, status.ErrInvalidOffset)
}

func TestParamsFromRange(t *testing.T) {
	p, err := ParamsFromRange(-2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, float32(0), p.ZeroPoint)
	assert.InDelta(t, 2.0/127, p.Scale, 1e-7)
	assert.Equal(t, int8(-127), p.Quantize(-2))

	p, err = ParamsFromRange(0, 255, false)
	require.NoError(t, err)
	assert.Equal(t, float32(1), p.Scale)
	assert.Equal(t, float32(-128), p.ZeroPoint)
	assert.Equal(t, int8(-128), p.Quantize(0))
	assert.Equal(t, int8(127), p.Quantize(255))

	p, err = ParamsFromRange(0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, Params{Scale: 1}, p)

	_, err = ParamsFromRange(3, 1, false)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
	_, err = ParamsFromRange(float32(math.Inf(-1)), 1, false)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)

	assert.Equal(t, "scale=1 zero_point=0", Params{Scale: 1}.String())
}

func TestQuantize_BoundProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(params)

	properties.Property("round trip stays within one step", prop.ForAll(
		func(lo, width float32, frac float32, symmetric bool) bool {
			hi := lo + width
			p, err := ParamsFromRange(lo, hi, symmetric)
			if err != nil {
				return false
			}
			r := lo + width*frac
			diff := math.Abs(float64(p.Requantize(r) - r))
			return diff <= float64(p.Scale)
		},
		gen.Float32Range(-1000, 1000),
		gen.Float32Range(0.01, 1000),
		gen.Float32Range(0, 1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
