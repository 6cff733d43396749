// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/stick/internal/status"

// Error kinds.
var (
	ErrInvalidShape         = status.ErrInvalidShape
	ErrInvalidLayout        = status.ErrInvalidLayout
	ErrInvalidType          = status.ErrInvalidType
	ErrInvalidFormat        = status.ErrInvalidFormat
	ErrInvalidConcatInfo    = status.ErrInvalidConcatInfo
	ErrInvalidState         = status.ErrInvalidState
	ErrInvalidClippingValue = status.ErrInvalidClippingValue
	ErrInvalidOffset        = status.ErrInvalidOffset
	ErrInvalidArgument      = status.ErrInvalidArgument
	ErrInvalidBuffer        = status.ErrInvalidBuffer
	ErrConvertFailure       = status.ErrConvertFailure
	ErrRangeViolation       = status.ErrRangeViolation
)

// KindOf returns the symbolic name of the kind err carries, "OK" for nil.
func KindOf(err error) string { return status.KindOf(err) }
