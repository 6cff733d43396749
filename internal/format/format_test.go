package format

import (
	"math"
	"testing"

	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestDLFloat16_RoundTripAllEncodings(t *testing.T) {
	for b := 0; b <= math.MaxUint16; b++ {
		d := FromBits(uint16(b))
		if d.IsNaN() {
			assert.True(t, math.IsNaN(float64(d.Float32())))
			continue
		}
		got, err := ToNative(d.Float32(), Strict)
		require.NoError(t, err, "encoding %#04x", b)
		require.Equal(t, d, got, "encoding %#04x widened to %g", b, d.Float32())
	}
}

func TestDLFloat16_SpecialValues(t *testing.T) {
	tests := []struct {
		name string
		d    DLFloat16
		want float32
	}{
		{"zero", 0x0000, 0},
		{"one", 0x3E00, 1},
		{"minus two", 0xC000, -2},
		{"min positive", MinPositive, float32(math.Ldexp(1+1.0/512, -31))},
		{"max finite", MaxFinite, 8573157376},
		{"negative max finite", MaxFinite | 0x8000, -8573157376},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.Float32())
		})
	}

	assert.True(t, math.Signbit(float64(NegZero.Float32())))
	assert.True(t, NINF.IsNaN())
	assert.True(t, (NINF | 0x8000).IsNaN())
	assert.False(t, MaxFinite.IsNaN())
	assert.Equal(t, "1", FromBits(0x3E00).String())
}

func TestToNative_Rounding(t *testing.T) {
	ulp := float32(1.0 / 512)

	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"exact", 1 + ulp, 1 + ulp},
		{"below half rounds down", 1 + ulp*0.49, 1},
		{"above half rounds up", 1 + ulp*0.51, 1 + ulp},
		{"tie to even down", 1 + ulp/2, 1},
		{"tie to even up", 1 + ulp*1.5, 1 + 2*ulp},
		{"carry into exponent", 2 - ulp/4, 2},
		{"half min positive goes to zero", float32(math.Ldexp(1+1.0/512, -32)), 0},
		{"above half min positive", float32(math.Ldexp(1.01, -32)), float32(math.Ldexp(1+1.0/512, -31))},
		{"fp32 subnormal", math.SmallestNonzeroFloat32, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ToNative(tt.in, Strict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Float32())
		})
	}
}

func TestToNative_OutOfRange(t *testing.T) {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())

	tests := []struct {
		name    string
		in      float32
		mode    Mode
		want    DLFloat16
		wantErr error
	}{
		{"strict overflow", 1e10, Strict, NINF, status.ErrRangeViolation},
		{"strict negative overflow", -1e10, Strict, NINF | 0x8000, status.ErrRangeViolation},
		{"strict inf", inf, Strict, NINF, status.ErrConvertFailure},
		{"strict nan", nan, Strict, NINF, status.ErrConvertFailure},
		{"saturate overflow", 1e10, Saturate, MaxFinite, nil},
		{"saturate negative overflow", -1e10, Saturate, MaxFinite | 0x8000, nil},
		{"saturate negative inf", -inf, Saturate, NINF, nil},
		{"saturate nan", nan, Saturate, NINF, nil},
		{"max finite is in range", 8573157376, Strict, MaxFinite, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToNative(tt.in, tt.mode)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToNative_HalfAndBFloat(t *testing.T) {
	d, err := ToNative(float16.Fromfloat32(1.5), Strict)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), d.Float32())

	_, err = ToNative(float16.Inf(-1), Strict)
	assert.ErrorIs(t, err, status.ErrConvertFailure)

	d, err = ToNative(float16.Fromfloat32(65504), Strict)
	require.NoError(t, err)
	assert.Equal(t, float32(65536), d.Float32())

	d, err = ToNative(BFloat16FromFloat32(-3.25), Strict)
	require.NoError(t, err)
	assert.Equal(t, float32(-3.25), d.Float32())

	_, err = ToNative(BFloat16FromFloat32(1e20), Strict)
	assert.ErrorIs(t, err, status.ErrRangeViolation)
}

func TestFromNative(t *testing.T) {
	d, err := ToNative(float32(100.5), Strict)
	require.NoError(t, err)

	f32, err := FromNative[float32](d)
	require.NoError(t, err)
	assert.Equal(t, float32(100.5), f32)

	f16, err := FromNative[float16.Float16](d)
	require.NoError(t, err)
	assert.Equal(t, float32(100.5), f16.Float32())

	bf, err := FromNative[BFloat16](d)
	require.NoError(t, err)
	assert.Equal(t, float32(100.5), bf.Float32())

	_, err = FromNative[float32](NINF)
	assert.ErrorIs(t, err, status.ErrConvertFailure)

	big, err := ToNative(float32(70000), Strict)
	require.NoError(t, err)
	h, err := FromNative[float16.Float16](big)
	assert.ErrorIs(t, err, status.ErrRangeViolation)
	assert.True(t, h.IsInf(1))

	h, err = FromNative[float16.Float16](big | 0x8000)
	assert.ErrorIs(t, err, status.ErrRangeViolation)
	assert.True(t, h.IsInf(-1))

	// Every DLFLOAT16 value fits bfloat16's exponent range.
	bf, err = FromNative[BFloat16](MaxFinite)
	require.NoError(t, err)
	assert.False(t, math.IsInf(float64(bf.Float32()), 0))
}

func TestFromNative_BFloat16Truncates(t *testing.T) {
	d, err := ToNative(float32(1+3.0/512), Strict)
	require.NoError(t, err)
	bf, err := FromNative[BFloat16](d)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3F80), bf.Bits())

	bf, err = FromNative[BFloat16](d | 0x8000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBF80), bf.Bits())

	hi, err := MaxLimit(tensor.DLFloat16, tensor.BFloat16)
	require.NoError(t, err)
	lo, err := MinLimit(tensor.DLFloat16, tensor.BFloat16)
	require.NoError(t, err)

	bf, err = FromNative[BFloat16](MaxFinite)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4FFF), bf.Bits())
	assert.Equal(t, hi, float64(bf.Float32()))

	bf, err = FromNative[BFloat16](MaxFinite | 0x8000)
	require.NoError(t, err)
	assert.Equal(t, lo, float64(bf.Float32()))

	// No finite encoding widens past the limits.
	for b := 0; b <= 0xFFFF; b++ {
		d := FromBits(uint16(b))
		if d.IsNaN() {
			continue
		}
		bf, err := FromNative[BFloat16](d)
		require.NoError(t, err)
		f := float64(bf.Float32())
		require.True(t, f >= lo && f <= hi, "%#04x widened to %g", b, f)
	}
}

func TestConvertMany(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	dst := make([]DLFloat16, 6)

	n, err := ConvertMany(dst, src, Strict)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	for i, v := range src {
		assert.Equal(t, v, dst[i].Float32())
	}

	back := make([]float32, 6)
	n, err = ConvertManyFromNative(back, dst)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, src, back)

	packed := make([]DLFloat16, 6)
	n, err = ConvertManyStrided(packed, src, 2, Strict)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{1, 3, 5}, []float32{packed[0].Float32(), packed[1].Float32(), packed[2].Float32()})

	_, err = ConvertManyStrided(packed, src, 0, Strict)
	assert.ErrorIs(t, err, status.ErrInvalidArgument)
}

func TestConvertMany_StopsAtFailure(t *testing.T) {
	src := []float32{1, 2, float32(math.Inf(1)), 4}
	dst := make([]DLFloat16, 4)

	n, err := ConvertMany(dst, src, Strict)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrConvertFailure)
	assert.Contains(t, err.Error(), "element 2")
	assert.Equal(t, 2, n)
	assert.Equal(t, DLFloat16(0), dst[2])

	n, err = ConvertMany(dst, src, Saturate)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, NINF, dst[2])

	out := make([]float32, 4)
	n, err = ConvertManyFromNative(out, dst)
	assert.ErrorIs(t, err, status.ErrConvertFailure)
	assert.Equal(t, 2, n)
}

func TestBFloat16(t *testing.T) {
	assert.Equal(t, uint16(0x3F80), BFloat16FromFloat32(1).Bits())
	assert.Equal(t, uint16(0x4FFF), BFloat16FromFloat32(8556380160).Bits())
	// 1 + 2^-8 is a tie between 1 and 1 + 2^-7; even mantissa wins.
	assert.Equal(t, float32(1), BFloat16FromFloat32(1+1.0/256).Float32())
	assert.True(t, math.IsNaN(float64(BFloat16FromFloat32(float32(math.NaN())).Float32())))
	assert.Equal(t, "-2.5", BFloat16FromBits(BFloat16FromFloat32(-2.5).Bits()).String())
}

func TestLimits(t *testing.T) {
	tests := []struct {
		transformed, target tensor.DataType
		lo, hi              float64
	}{
		{tensor.DLFloat16, tensor.FP32, -8573157376, 8573157376},
		{tensor.DLFloat16, tensor.FP16, -65504, 65504},
		{tensor.DLFloat16, tensor.BFloat16, -8556380160, 8556380160},
		{tensor.INT8, tensor.FP32, -128, 127},
		{tensor.INT8, tensor.INT8, -128, 127},
		{tensor.INT32, tensor.INT32, math.MinInt32, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.transformed.String()+"/"+tt.target.String(), func(t *testing.T) {
			hi, err := MaxLimit(tt.transformed, tt.target)
			require.NoError(t, err)
			lo, err := MinLimit(tt.transformed, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.hi, hi)
			assert.Equal(t, tt.lo, lo)
		})
	}

	_, err := MaxLimit(tensor.DLFloat16, tensor.INT8)
	assert.ErrorIs(t, err, status.ErrInvalidType)
	_, err = MinLimit(tensor.FP32, tensor.FP32)
	assert.ErrorIs(t, err, status.ErrInvalidType)
}

func TestToNative_NearestProperty(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 5000
	properties := gopter.NewProperties(params)

	nearest := func(x float32) bool {
		d, err := ToNative(x, Strict)
		if err != nil {
			return false
		}
		sign := d.Bits() & 0x8000
		mag := d.Bits() &^ 0x8000
		got := math.Abs(float64(d.Float32()) - float64(x))
		for _, n := range []int{int(mag) - 1, int(mag) + 1} {
			if n < 0 || n > int(MaxFinite) {
				continue
			}
			other := FromBits(sign | uint16(n)).Float32()
			if math.Abs(float64(other)-float64(x)) < got {
				return false
			}
		}
		return true
	}

	properties.Property("rounds to the nearest value in range", prop.ForAll(
		nearest, gen.Float32Range(-8573157376, 8573157376),
	))
	properties.Property("rounds to the nearest value near one", prop.ForAll(
		nearest, gen.Float32Range(-4, 4),
	))
	properties.Property("rounds to the nearest value near zero", prop.ForAll(
		nearest, gen.Float32Range(-1e-8, 1e-8),
	))

	properties.TestingRun(t)
}
