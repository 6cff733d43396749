package main

import (
	"strconv"
	"strings"

	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/quant"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/spf13/pflag"
)

// levelValue is a pflag.Value remembering whether the flag was given.
type levelValue struct {
	level config.Level
	set   bool
}

var _ pflag.Value = (*levelValue)(nil)

func (v *levelValue) String() string {
	if !v.set {
		return ""
	}
	return v.level.String()
}

func (v *levelValue) Set(s string) error {
	l, err := config.ParseLevel(s)
	if err != nil {
		return err
	}
	v.level, v.set = l, true
	return nil
}

func (v *levelValue) Type() string { return "level" }

// intsValue parses "1,2,3" or "(1,2,3)".
type intsValue []int

var _ pflag.Value = (*intsValue)(nil)

func (v *intsValue) String() string {
	parts := make([]string, len(*v))
	for i, n := range *v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (v *intsValue) Set(s string) error {
	s = strings.Trim(strings.TrimSpace(s), "()")
	var out []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return status.Newf(status.ErrInvalidArgument, "bad integer list %q", s)
		}
		out = append(out, n)
	}
	*v = out
	return nil
}

func (v *intsValue) Type() string { return "ints" }

// tensorFlags describe a logical tensor and how to transform it.
type tensorFlags struct {
	layout    string
	dtype     string
	dims      intsValue
	concat    string
	usage     string
	prevBidir bool
	quantized bool
	scale     float32
	zeroPoint float32
}

func (f *tensorFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.layout, "layout", "NHWC", "pre-transformed layout")
	fs.StringVar(&f.dtype, "type", "FP32", "pre-transformed data type")
	fs.Var(&f.dims, "dims", "comma separated shape, outermost first")
	fs.StringVar(&f.concat, "concat", "none", "gate concatenation (none, lstm, gru, bidir)")
	fs.StringVar(&f.usage, "usage", "any", "RNN parameter usage (weights, hidden-weights, biases, hidden-biases)")
	fs.BoolVar(&f.prevBidir, "prev-bidir", false, "input weights fed by a bidirectional layer")
	fs.BoolVar(&f.quantized, "quantized", false, "quantize to int8")
	fs.Float32Var(&f.scale, "scale", 1, "quantization scale")
	fs.Float32Var(&f.zeroPoint, "zero-point", 0, "quantization zero point")
}

func (f *tensorFlags) descriptor() (tensor.Descriptor, error) {
	layout, err := tensor.ParseLayout(f.layout)
	if err != nil {
		return tensor.Descriptor{}, err
	}
	dtype, err := tensor.ParseDataType(f.dtype)
	if err != nil {
		return tensor.Descriptor{}, err
	}
	if len(f.dims) == 0 {
		return tensor.Descriptor{}, status.Newf(status.ErrInvalidArgument, "--dims is required")
	}
	return tensor.NewDescriptor(layout, dtype, f.dims...)
}

func (f *tensorFlags) concatInfo() (tensor.Concat, error) {
	kind, err := tensor.ParseConcatKind(f.concat)
	if err != nil {
		return tensor.Concat{}, err
	}
	usage, err := tensor.ParseUsage(f.usage)
	if err != nil {
		return tensor.Concat{}, err
	}
	return tensor.Concat{Kind: kind, Usage: usage, PrevLayerBidir: f.prevBidir}, nil
}

// build allocates the tensor the flags describe.
func (f *tensorFlags) build(cfg *config.Config) (*ztensor.Tensor, error) {
	pre, err := f.descriptor()
	if err != nil {
		return nil, err
	}
	if f.quantized {
		p, err := quant.NewParams(f.scale, f.zeroPoint)
		if err != nil {
			return nil, err
		}
		return ztensor.NewQuantized(cfg, pre, p)
	}
	c, err := f.concatInfo()
	if err != nil {
		return nil, err
	}
	return ztensor.New(cfg, pre, ztensor.WithConcat(c))
}
