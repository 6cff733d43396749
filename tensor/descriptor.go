// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/tensor"
)

// DataType is the element type of a descriptor.
type DataType = tensor.DataType

// Data type constants.
const (
	FP32      DataType = tensor.FP32
	FP16      DataType = tensor.FP16
	BFloat16  DataType = tensor.BFloat16
	INT8      DataType = tensor.INT8
	INT32     DataType = tensor.INT32
	DLFloat16 DataType = tensor.DLFloat16
)

// Layout tags how the dims of a descriptor are interpreted.
type Layout = tensor.Layout

// Layout constants. FICO, ZRH and the BIDIR variants only appear on
// transformed descriptors.
const (
	Layout1D  Layout = tensor.Layout1D
	Layout2D  Layout = tensor.Layout2D
	Layout2DS Layout = tensor.Layout2DS
	Layout3D  Layout = tensor.Layout3D
	Layout3DS Layout = tensor.Layout3DS
	Layout4D  Layout = tensor.Layout4D
	Layout4DS Layout = tensor.Layout4DS
	NHWC      Layout = tensor.NHWC
	NCHW      Layout = tensor.NCHW
	HWCK      Layout = tensor.HWCK
	FICO      Layout = tensor.FICO
	ZRH       Layout = tensor.ZRH
	BidirFICO Layout = tensor.BidirFICO
	BidirZRH  Layout = tensor.BidirZRH
)

// Format is the stick format of a transformed descriptor.
type Format = tensor.Format

// Format constants.
const (
	FormatFeature Format = tensor.FormatFeature
	FormatKernel  Format = tensor.FormatKernel
	FormatGeneric Format = tensor.FormatGeneric
)

// Descriptor describes a tensor: layout, data type and dims.
type Descriptor = tensor.Descriptor

// Concat describes how RNN gate tensors are packed into one buffer.
type Concat = tensor.Concat

// ConcatKind selects the gate count of a Concat.
type ConcatKind = tensor.ConcatKind

// Concatenation kinds.
const (
	ConcatNone        ConcatKind = tensor.ConcatNone
	ConcatLSTM        ConcatKind = tensor.ConcatLSTM
	ConcatGRU         ConcatKind = tensor.ConcatGRU
	ConcatBidirOutput ConcatKind = tensor.ConcatBidirOutput
)

// Usage tells which RNN parameter a concatenated tensor holds.
type Usage = tensor.Usage

// Usages.
const (
	UsageAny           Usage = tensor.UsageAny
	UsageWeights       Usage = tensor.UsageWeights
	UsageHiddenWeights Usage = tensor.UsageHiddenWeights
	UsageBiases        Usage = tensor.UsageBiases
	UsageHiddenBiases  Usage = tensor.UsageHiddenBiases
)

// LSTM returns a 4-gate concatenation.
func LSTM(u Usage) Concat { return tensor.LSTM(u) }

// GRU returns a 3-gate concatenation.
func GRU(u Usage) Concat { return tensor.GRU(u) }

// BidirOutput returns the 2-gate concatenation of a bidirectional output.
func BidirOutput() Concat { return tensor.BidirOutput() }

// ElementsMode selects what NumElements counts.
type ElementsMode = tensor.ElementsMode

// Element counting modes.
const (
	ElementsAll              ElementsMode = tensor.ElementsAll
	ElementsConcatSingle     ElementsMode = tensor.ElementsConcatSingle
	ElementsConcatWithoutPad ElementsMode = tensor.ElementsConcatWithoutPad
)

// NewDescriptor builds a pre-transformed descriptor. Shape lists the
// populated dims, outermost first.
func NewDescriptor(layout Layout, dtype DataType, shape ...int) (Descriptor, error) {
	return tensor.NewDescriptor(layout, dtype, shape...)
}

// Generate derives the transformed descriptor of pre.
func Generate(pre Descriptor, cfg *Config) (Descriptor, error) {
	return tensor.Generate(pre, limits(cfg))
}

// GenerateConcatenated derives the transformed descriptor of a gate
// concatenated tensor.
func GenerateConcatenated(pre Descriptor, c Concat, cfg *Config) (Descriptor, error) {
	return tensor.GenerateConcatenated(pre, c, limits(cfg))
}

// GenerateQuantized derives the transformed descriptor of an int8 tensor.
func GenerateQuantized(pre Descriptor, cfg *Config) (Descriptor, error) {
	return tensor.GenerateQuantized(pre, limits(cfg))
}

// NumElements counts the elements of a tensor.
func NumElements(pre, tfrmd Descriptor, mode ElementsMode) uint64 {
	return tensor.NumElements(pre, tfrmd, mode)
}

func limits(cfg *Config) config.Limits {
	if cfg == nil {
		return config.DefaultLimits()
	}
	return cfg.Limits
}
