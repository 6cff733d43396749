package tensor

import (
	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
)

// Cells per stick for the two transformed element types.
const (
	NativeCells    = stick.StickBytes / 2 // DLFLOAT16
	QuantizedCells = stick.StickBytes / 1 // INT8
)

// Canonical maps a logical descriptor onto the unpadded 4D view used by the
// stickified buffer: N, H, W, C for feature layouts and H, W, C, K for HWCK.
// cells is the stick width used to pad the per-direction dim1 of a 4DS
// tensor.
func Canonical(pre Descriptor, cells int) [4]int {
	d := pre.dims
	switch pre.layout {
	case Layout2DS:
		return [4]int{d[2], 1, 1, d[3]}
	case Layout3DS:
		return [4]int{d[1], 1, d[2], d[3]}
	case Layout4DS:
		if d[1] == 1 {
			return [4]int{d[0], 1, d[2], d[3]}
		}
		return [4]int{d[0], 1, d[2], d[1] * stick.Pad(d[3], cells)}
	case NCHW:
		return [4]int{d[0], d[2], d[3], d[1]}
	default:
		return d
	}
}

// Generate derives the transformed descriptor of a logical FP32, FP16 or
// BFLOAT16 tensor. HWCK tensors get the kernel format; everything else is
// stickified as NHWC features. dim1 is padded to a whole stick.
func Generate(pre Descriptor, limits config.Limits) (Descriptor, error) {
	if err := checkLogical(pre); err != nil {
		return Descriptor{}, err
	}
	if !pre.dtype.IsFloat() {
		return Descriptor{}, status.Newf(status.ErrInvalidType, "cannot transform %s elements", pre.dtype)
	}

	out := Descriptor{layout: NHWC, format: FormatFeature, dtype: DLFloat16, gates: 1}
	if pre.layout == HWCK {
		out.layout, out.format = HWCK, FormatKernel
	}
	out.dims = Canonical(pre, NativeCells)
	out.dims[3] = stick.Pad(out.dims[3], NativeCells)

	if err := Verify(out, limits); err != nil {
		return Descriptor{}, err
	}
	return out, nil
}

// GenerateConcatenated derives the transformed descriptor of concatenated
// RNN gate tensors. Only 2DS and 3DS logical layouts can be concatenated;
// each gate's dim1 is padded to a whole stick before the gates are laid
// side by side.
//
//nolint:gocyclo // One branch per concatenation rule.
func GenerateConcatenated(pre Descriptor, c Concat, limits config.Limits) (Descriptor, error) {
	if c.Kind == ConcatNone {
		if c.PrevLayerBidir || c.Usage != UsageAny {
			return Descriptor{}, status.Newf(status.ErrInvalidConcatInfo, "%s without concatenation", c)
		}
		return Generate(pre, limits)
	}
	if err := checkLogical(pre); err != nil {
		return Descriptor{}, err
	}
	if pre.layout != Layout2DS && pre.layout != Layout3DS {
		return Descriptor{}, status.Newf(status.ErrInvalidLayout, "%s cannot be concatenated, need 2DS or 3DS", pre.layout)
	}
	if !pre.dtype.IsFloat() {
		return Descriptor{}, status.Newf(status.ErrInvalidType, "cannot transform %s elements", pre.dtype)
	}

	switch c.Usage {
	case UsageAny:
	case UsageWeights, UsageHiddenWeights:
		if pre.layout != Layout3DS {
			return Descriptor{}, status.Newf(status.ErrInvalidLayout, "%s need 3DS, got %s", c.Usage, pre.layout)
		}
	case UsageBiases, UsageHiddenBiases:
		if pre.layout != Layout2DS {
			return Descriptor{}, status.Newf(status.ErrInvalidLayout, "%s need 2DS, got %s", c.Usage, pre.layout)
		}
	default:
		return Descriptor{}, status.Newf(status.ErrInvalidConcatInfo, "unknown usage %d", c.Usage)
	}
	if c.Kind == ConcatBidirOutput && c.Usage != UsageAny {
		return Descriptor{}, status.Newf(status.ErrInvalidConcatInfo, "bidirectional output has no usage, got %s", c.Usage)
	}

	if c.PrevLayerBidir && (c.Kind == ConcatBidirOutput || c.Usage != UsageWeights) {
		return Descriptor{}, status.Newf(status.ErrInvalidConcatInfo, "previous-layer bidirectional only applies to lstm/gru weights, got %s", c)
	}

	gates := c.Gates()
	if maxDim1 := limits.MaxConcatDim1(gates); pre.Dim(1) > maxDim1 {
		return Descriptor{}, status.Newf(status.ErrInvalidShape, "dim1 %d exceeds %d for %d gates", pre.Dim(1), maxDim1, gates)
	}

	out := Descriptor{format: FormatFeature, dtype: DLFloat16, gates: gates}
	dim1 := stick.Pad(pre.Dim(1), NativeCells) * gates

	switch pre.layout {
	case Layout2DS:
		out.dims = [4]int{pre.Dim(2), 1, 1, dim1}
	default:
		dim2 := pre.Dim(2)
		if c.PrevLayerBidir {
			if dim2%2 != 0 {
				return Descriptor{}, status.Newf(status.ErrInvalidShape, "bidirectional input dim2 must be even, got %d", dim2)
			}
			dim2 = stick.Pad(dim2/2, NativeCells) * 2
		}
		out.dims = [4]int{pre.Dim(3), 1, dim2, dim1}
	}

	switch c.Kind {
	case ConcatLSTM:
		out.layout = FICO
		if c.PrevLayerBidir {
			out.layout = BidirFICO
		}
	case ConcatGRU:
		out.layout = ZRH
		if c.PrevLayerBidir {
			out.layout = BidirZRH
		}
	case ConcatBidirOutput:
		out.layout = NHWC
	default:
		return Descriptor{}, status.Newf(status.ErrInvalidConcatInfo, "unknown concatenation %d", c.Kind)
	}

	if err := Verify(out, limits); err != nil {
		return Descriptor{}, err
	}
	return out, nil
}

// GenerateQuantized derives the transformed descriptor of an int8
// quantized tensor. Float inputs are quantized while stickifying; INT8 inputs
// are taken as already quantized.
func GenerateQuantized(pre Descriptor, limits config.Limits) (Descriptor, error) {
	if err := checkLogical(pre); err != nil {
		return Descriptor{}, err
	}
	if pre.layout == HWCK {
		return Descriptor{}, status.Newf(status.ErrInvalidLayout, "%s cannot be quantized", pre.layout)
	}
	if !pre.dtype.IsFloat() && pre.dtype != INT8 {
		return Descriptor{}, status.Newf(status.ErrInvalidType, "cannot quantize %s elements", pre.dtype)
	}

	out := Descriptor{layout: NHWC, format: FormatGeneric, dtype: INT8, gates: 1}
	out.dims = Canonical(pre, QuantizedCells)
	out.dims[3] = stick.Pad(out.dims[3], QuantizedCells)

	if err := Verify(out, limits); err != nil {
		return Descriptor{}, err
	}
	return out, nil
}

func checkLogical(pre Descriptor) error {
	if pre.IsTransformed() {
		return status.Newf(status.ErrInvalidArgument, "descriptor is already transformed: %s", pre)
	}
	if !pre.layout.IsLogical() {
		return status.Newf(status.ErrInvalidLayout, "%s cannot describe a logical tensor", pre.layout)
	}
	return nil
}

// Verify checks a transformed descriptor against the layout/format rules
// and the hardware limits.
func Verify(d Descriptor, limits config.Limits) error {
	var wantType DataType
	switch d.format {
	case FormatFeature:
		switch d.layout {
		case NHWC, FICO, ZRH, BidirFICO, BidirZRH:
		default:
			return status.Newf(status.ErrInvalidLayout, "%s does not match %s", d.layout, d.format)
		}
		wantType = DLFloat16
	case FormatKernel:
		if d.layout != HWCK {
			return status.Newf(status.ErrInvalidLayout, "%s does not match %s", d.layout, d.format)
		}
		wantType = DLFloat16
	case FormatGeneric:
		if d.layout != NHWC {
			return status.Newf(status.ErrInvalidLayout, "%s does not match %s", d.layout, d.format)
		}
		wantType = INT8
	default:
		return status.Newf(status.ErrInvalidFormat, "unknown format %d", d.format)
	}
	if d.dtype != wantType {
		return status.Newf(status.ErrInvalidType, "%s needs %s, got %s", d.format, wantType, d.dtype)
	}

	for axis := 4; axis >= 1; axis-- {
		n, maxN := d.Dim(axis), limits.MaxDim(axis)
		if n < 1 || n > maxN {
			return status.Newf(status.ErrInvalidShape, "dim%d is %d, must be in [1, %d]", axis, n, maxN)
		}
	}
	if cells := stick.StickBytes / d.dtype.Size(); d.Dim(1)%cells != 0 {
		return status.Newf(status.ErrInvalidShape, "dim1 %d is not a multiple of %d", d.Dim(1), cells)
	}
	// Compare in pages: the byte count of a maximal shape overflows uint64.
	if pages := d.Geometry().Pages(); pages > limits.MaxTensorSize/stick.PageSize {
		return status.Newf(status.ErrInvalidShape, "tensor needs %d pages, limit is %d bytes", pages, limits.MaxTensorSize)
	}
	return nil
}
