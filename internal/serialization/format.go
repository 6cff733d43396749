package serialization

import (
	"time"

	"github.com/born-ml/stick/internal/quant"
	"github.com/born-ml/stick/internal/stick"
	"github.com/born-ml/stick/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "STIK"
	FormatVersion   = 1
	FixedHeaderSize = 4 + 4 + 4 + 8 // magic + version + flags + header size
	DataAlignment   = stick.PageSize
)

// Version is the library version recorded in every container.
const Version = "0.1.0"

// Flags for the .stk format.
const (
	FlagCompressed  uint32 = 1 << 0 // bit 0: zstd-compressed data section
	FlagHasMetadata uint32 = 1 << 1 // bit 1: custom metadata included
)

// Header represents the JSON header in a .stk file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	StickVersion  string            `json:"stick_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
	DataSize      int64             `json:"data_size"` // Uncompressed data section size
	Checksum      string            `json:"checksum"`  // Hex SHA-256 of the uncompressed data section
}

// TensorMeta describes a tensor in the .stk file.
type TensorMeta struct {
	Name          string         `json:"name"`
	Pre           DescriptorMeta `json:"pre"`
	Transformed   string         `json:"transformed"` // Transformed descriptor as printed by Descriptor.String
	IsTransformed bool           `json:"is_transformed"`
	Concat        *ConcatMeta    `json:"concat,omitempty"`
	Quant         *quant.Params  `json:"quant,omitempty"`
	Offset        int64          `json:"offset"` // Offset in the uncompressed data section
	Size          int64          `json:"size"`   // Buffer size in bytes, 0 for empty tensors
}

// DescriptorMeta is the serialized form of a pre-transformed descriptor.
type DescriptorMeta struct {
	Layout string `json:"layout"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
}

// ConcatMeta is the serialized form of tensor.Concat.
type ConcatMeta struct {
	Kind           string `json:"kind"`
	Usage          string `json:"usage"`
	PrevLayerBidir bool   `json:"prev_layer_bidir,omitempty"`
}

func descriptorMeta(d tensor.Descriptor) DescriptorMeta {
	return DescriptorMeta{Layout: d.Layout().String(), DType: d.DType().String(), Shape: d.Shape()}
}

// Descriptor parses m back into a pre-transformed descriptor.
func (m DescriptorMeta) Descriptor() (tensor.Descriptor, error) {
	layout, err := tensor.ParseLayout(m.Layout)
	if err != nil {
		return tensor.Descriptor{}, err
	}
	dtype, err := tensor.ParseDataType(m.DType)
	if err != nil {
		return tensor.Descriptor{}, err
	}
	return tensor.NewDescriptor(layout, dtype, m.Shape...)
}

func concatMeta(c tensor.Concat) *ConcatMeta {
	if c.Kind == tensor.ConcatNone {
		return nil
	}
	return &ConcatMeta{Kind: c.Kind.String(), Usage: c.Usage.String(), PrevLayerBidir: c.PrevLayerBidir}
}

// Concat parses m back into a tensor.Concat. A nil m is no concatenation.
func (m *ConcatMeta) Concat() (tensor.Concat, error) {
	if m == nil {
		return tensor.Concat{}, nil
	}
	kind, err := tensor.ParseConcatKind(m.Kind)
	if err != nil {
		return tensor.Concat{}, err
	}
	usage, err := tensor.ParseUsage(m.Usage)
	if err != nil {
		return tensor.Concat{}, err
	}
	return tensor.Concat{Kind: kind, Usage: usage, PrevLayerBidir: m.PrevLayerBidir}, nil
}

func alignData(n int64) int64 {
	return (n + DataAlignment - 1) / DataAlignment * DataAlignment
}
