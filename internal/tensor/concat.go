package tensor

import (
	"fmt"
	"strings"

	"github.com/born-ml/stick/internal/status"
)

// ConcatKind selects how many gate tensors are packed along dim1.
type ConcatKind int

// Concatenation kinds.
const (
	ConcatNone        ConcatKind = iota
	ConcatLSTM                   // 4 gates: forget, input, cell, output
	ConcatGRU                    // 3 gates: update, reset, hidden
	ConcatBidirOutput            // 2 gates: forward and backward hidden state
)

// Gates returns the gate count, 1 for ConcatNone.
func (k ConcatKind) Gates() int {
	switch k {
	case ConcatLSTM:
		return 4
	case ConcatGRU:
		return 3
	case ConcatBidirOutput:
		return 2
	default:
		return 1
	}
}

// String returns the lowercase kind name.
func (k ConcatKind) String() string {
	switch k {
	case ConcatNone:
		return "none"
	case ConcatLSTM:
		return "lstm"
	case ConcatGRU:
		return "gru"
	case ConcatBidirOutput:
		return "bidir"
	default:
		return "unknown"
	}
}

// Usage tells which RNN parameter a concatenated tensor holds.
type Usage int

// Usages. UsageAny skips the layout pairing check.
const (
	UsageAny Usage = iota
	UsageWeights
	UsageHiddenWeights
	UsageBiases
	UsageHiddenBiases
)

// String returns the lowercase usage name.
func (u Usage) String() string {
	switch u {
	case UsageAny:
		return "any"
	case UsageWeights:
		return "weights"
	case UsageHiddenWeights:
		return "hidden-weights"
	case UsageBiases:
		return "biases"
	case UsageHiddenBiases:
		return "hidden-biases"
	default:
		return "unknown"
	}
}

// Concat describes how gate tensors are packed into one buffer.
type Concat struct {
	Kind           ConcatKind
	Usage          Usage
	PrevLayerBidir bool // Input weights fed by a bidirectional layer.
}

// LSTM returns a 4-gate concatenation for the given usage.
func LSTM(u Usage) Concat { return Concat{Kind: ConcatLSTM, Usage: u} }

// GRU returns a 3-gate concatenation for the given usage.
func GRU(u Usage) Concat { return Concat{Kind: ConcatGRU, Usage: u} }

// BidirOutput returns the 2-gate concatenation of a bidirectional output.
func BidirOutput() Concat { return Concat{Kind: ConcatBidirOutput} }

// Gates returns the number of gate tensors.
func (c Concat) Gates() int {
	return c.Kind.Gates()
}

// String formats c as "kind/usage[/prev-bidir]".
func (c Concat) String() string {
	s := fmt.Sprintf("%s/%s", c.Kind, c.Usage)
	if c.PrevLayerBidir {
		s += "/prev-bidir"
	}
	return s
}

// ParseConcatKind parses a kind name as printed by ConcatKind.String.
func ParseConcatKind(s string) (ConcatKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ConcatNone, nil
	case "lstm":
		return ConcatLSTM, nil
	case "gru":
		return ConcatGRU, nil
	case "bidir":
		return ConcatBidirOutput, nil
	default:
		return 0, status.Newf(status.ErrInvalidConcatInfo, "unknown concatenation %q", s)
	}
}

// ParseUsage parses a usage name as printed by Usage.String.
func ParseUsage(s string) (Usage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return UsageAny, nil
	case "weights":
		return UsageWeights, nil
	case "hidden-weights":
		return UsageHiddenWeights, nil
	case "biases":
		return UsageBiases, nil
	case "hidden-biases":
		return UsageHiddenBiases, nil
	default:
		return 0, status.Newf(status.ErrInvalidConcatInfo, "unknown usage %q", s)
	}
}
