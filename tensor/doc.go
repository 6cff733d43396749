// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor is the public API of the stick engine: it converts
// row-major float tensors into the stickified layout an AI accelerator
// reads, and back.
//
// # Overview
//
// A logical tensor is described by a pre-transformed Descriptor (layout,
// data type, shape). The engine derives a transformed descriptor from it:
// padded dims, a stick format and the native cell type. Buffers are cut
// into 128-byte sticks, 32 sticks to a 4096-byte page:
//   - DLFLOAT16 cells (64 per stick) for feature and kernel tensors
//   - INT8 cells (128 per stick) for quantized tensors
//
// # Basic Usage
//
//	import "github.com/born-ml/stick/tensor"
//
//	func main() {
//	    pre, _ := tensor.NewDescriptor(tensor.NHWC, tensor.FP32, 1, 4, 4, 3)
//	    t, _ := tensor.New(tensor.DefaultConfig(), pre)
//
//	    values := make([]float32, 48)
//	    if err := tensor.Stickify(t, values); err != nil {
//	        log.Fatal(err)
//	    }
//	    out := make([]float32, 48)
//	    _ = tensor.Unstickify(t, out)
//	}
//
// # RNN Gates
//
// LSTM and GRU parameters are stickified as one buffer holding every gate,
// each padded to a whole stick group:
//
//	t, _ := tensor.New(cfg, pre, tensor.WithConcat(tensor.LSTM(tensor.UsageWeights)))
//	err := tensor.Stickify(t, forget, input, cell, output)
//
// # Errors
//
// Every failure wraps one of the Err* kinds below; test them with errors.Is
// or print them with KindOf.
package tensor
