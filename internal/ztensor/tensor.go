// Package ztensor implements stickified tensors and the transform engine that
// moves values between ordinary row-major slices and the tiled,
// page-aligned buffer layout consumed by the accelerator.
//
// A Tensor is created empty. Stickify fills it and marks it transformed;
// Unstickify reads it back; Reshape copies a transformed tensor into an empty
// one with a compatible shape. Any operation invoked in the wrong state fails
// with status.ErrInvalidState and leaves the tensor untouched.
//
// Native cells are stored big-endian, the byte order of the accelerator.
package ztensor

import (
	"encoding/binary"
	"log/slog"
	"os"

	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/quant"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
	"github.com/born-ml/stick/internal/tensor"
)

var byteOrder = binary.BigEndian

// Tensor owns a pre-transformed descriptor, the transformed descriptor
// derived from it, and the page-aligned buffer holding stickified data.
//
// A Tensor is not safe for concurrent mutation. Independent tensors may be
// transformed concurrently.
type Tensor struct {
	cfg *config.Config
	log *slog.Logger

	pre    tensor.Descriptor
	tfrmd  tensor.Descriptor
	concat tensor.Concat

	quant     quant.Params
	quantized bool

	buf         []byte
	transformed bool
}

type options struct {
	concat    tensor.Concat
	quant     quant.Params
	quantized bool
	log       *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithConcat packs gate tensors along dim1.
func WithConcat(c tensor.Concat) Option {
	return func(o *options) { o.concat = c }
}

// WithQuantization makes the tensor an int8 quantized tensor with the given
// parameters.
func WithQuantization(p quant.Params) Option {
	return func(o *options) {
		o.quant = p
		o.quantized = true
	}
}

// WithLogger sets the logger. The default writes to stderr at the
// configured level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New derives the transformed descriptor of pre and allocates a zeroed
// buffer for it. A nil cfg means config.Default().
func New(cfg *config.Config, pre tensor.Descriptor, opts ...Option) (*Tensor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = cfg.Logger(os.Stderr)
	}

	var (
		tfrmd tensor.Descriptor
		err   error
	)
	if o.quantized {
		if o.concat.Kind != tensor.ConcatNone {
			return nil, status.Newf(status.ErrInvalidConcatInfo, "quantized tensors cannot be concatenated")
		}
		if err := o.quant.Validate(); err != nil {
			return nil, err
		}
		tfrmd, err = tensor.GenerateQuantized(pre, cfg.Limits)
	} else {
		tfrmd, err = tensor.GenerateConcatenated(pre, o.concat, cfg.Limits)
	}
	if err != nil {
		return nil, err
	}

	t := &Tensor{
		cfg:       cfg,
		log:       o.log,
		pre:       pre,
		tfrmd:     tfrmd,
		concat:    o.concat,
		quant:     o.quant,
		quantized: o.quantized,
		buf:       stick.Alloc(tfrmd.BufferSize()),
	}
	t.log.Debug("allocated tensor", "pre", pre, "transformed", tfrmd, "bytes", len(t.buf))
	return t, nil
}

// NewQuantized is New with WithQuantization(p).
func NewQuantized(cfg *config.Config, pre tensor.Descriptor, p quant.Params, opts ...Option) (*Tensor, error) {
	return New(cfg, pre, append(opts, WithQuantization(p))...)
}

// PreTransformed returns the logical descriptor.
func (t *Tensor) PreTransformed() tensor.Descriptor { return t.pre }

// Transformed returns the transformed descriptor.
func (t *Tensor) Transformed() tensor.Descriptor { return t.tfrmd }

// Concat returns the gate concatenation of the tensor.
func (t *Tensor) Concat() tensor.Concat { return t.concat }

// Quantization returns the quantization parameters and whether the tensor
// is quantized.
func (t *Tensor) Quantization() (quant.Params, bool) { return t.quant, t.quantized }

// IsTransformed reports whether the buffer holds valid stickified data.
func (t *Tensor) IsTransformed() bool { return t.transformed }

// Config returns the configuration the tensor was created with.
func (t *Tensor) Config() *config.Config { return t.cfg }

// Bytes returns the stickified buffer. Callers must not modify it.
func (t *Tensor) Bytes() []byte { return t.buf }

// BufferSize returns the buffer size in bytes.
func (t *Tensor) BufferSize() int { return len(t.buf) }

// Reset marks the tensor empty so it can be stickified again. The buffer
// bytes are left as they are.
func (t *Tensor) Reset() {
	t.transformed = false
}

// Restore fills an empty tensor with previously stickified bytes, e.g. read
// back from a container file, and marks it transformed.
func (t *Tensor) Restore(data []byte) error {
	if t.transformed {
		return status.Newf(status.ErrInvalidState, "tensor is already transformed")
	}
	if len(data) != len(t.buf) {
		return status.Newf(status.ErrInvalidBuffer, "need %d bytes, got %d", len(t.buf), len(data))
	}
	copy(t.buf, data)
	t.transformed = true
	return nil
}

func (t *Tensor) precheck() error {
	if !t.cfg.Precheck {
		return nil
	}
	return tensor.Verify(t.tfrmd, t.cfg.Limits)
}

func (t *Tensor) geometry() stick.Geometry {
	return t.tfrmd.Geometry()
}
