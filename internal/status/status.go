// Package status defines the error kinds returned by the stick engine.
//
// Every failure returned by an engine operation wraps exactly one of the
// sentinel kinds below, so callers branch with errors.Is:
//
//	if errors.Is(err, status.ErrInvalidState) { ... }
package status

import (
	"github.com/cockroachdb/errors"
)

// Error kinds.
var (
	ErrInvalidShape         = errors.New("invalid shape")
	ErrInvalidLayout        = errors.New("invalid layout")
	ErrInvalidType          = errors.New("invalid type")
	ErrInvalidFormat        = errors.New("invalid format")
	ErrInvalidConcatInfo    = errors.New("invalid concatenation info")
	ErrInvalidState         = errors.New("invalid state")
	ErrInvalidClippingValue = errors.New("invalid clipping value")
	ErrInvalidOffset        = errors.New("invalid offset")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidBuffer        = errors.New("invalid buffer")
	ErrConvertFailure       = errors.New("convert failure")
	ErrRangeViolation       = errors.New("element range violation")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidShape, "INVALID_SHAPE"},
	{ErrInvalidLayout, "INVALID_LAYOUT"},
	{ErrInvalidType, "INVALID_TYPE"},
	{ErrInvalidFormat, "INVALID_FORMAT"},
	{ErrInvalidConcatInfo, "INVALID_CONCAT_INFO"},
	{ErrInvalidState, "INVALID_STATE"},
	{ErrInvalidClippingValue, "INVALID_CLIPPING_VALUE"},
	{ErrInvalidOffset, "INVALID_OFFSET"},
	{ErrInvalidArgument, "INVALID_ARGUMENT"},
	{ErrInvalidBuffer, "INVALID_BUFFER"},
	{ErrConvertFailure, "CONVERT_FAILURE"},
	{ErrRangeViolation, "ELEMENT_RANGE_VIOLATION"},
}

// Newf returns an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...interface{}) error {
	return errors.WrapWithDepthf(1, kind, format, args...)
}

// Wrapf attaches kind to an existing error, keeping err as the reported
// cause. A nil err yields nil.
func Wrapf(err, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.WrapWithDepthf(1, err, format, args...), kind)
}

// KindOf returns the symbolic name of the kind carried by err: "OK" for nil
// and "UNKNOWN" when no kind matches.
func KindOf(err error) string {
	if err == nil {
		return "OK"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "UNKNOWN"
}

// IsWarning reports whether err only signals saturated or out-of-range
// elements.
func IsWarning(err error) bool {
	return errors.Is(err, ErrRangeViolation)
}
