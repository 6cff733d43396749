package tensor

import (
	"strings"

	"github.com/born-ml/stick/internal/status"
)

// Layout tags how the dims of a descriptor are to be interpreted.
type Layout int

// Supported layouts. The first group describes logical (pre-transformed)
// tensors; FICO and the ZRH/BIDIR variants only appear on transformed
// descriptors of gate-concatenated RNN tensors.
const (
	Layout1D Layout = iota
	Layout2D
	Layout2DS
	Layout3D
	Layout3DS
	Layout4D
	Layout4DS
	NHWC
	NCHW
	HWCK
	FICO
	ZRH
	BidirFICO
	BidirZRH
)

var layoutNames = [...]string{
	Layout1D:  "1D",
	Layout2D:  "2D",
	Layout2DS: "2DS",
	Layout3D:  "3D",
	Layout3DS: "3DS",
	Layout4D:  "4D",
	Layout4DS: "4DS",
	NHWC:      "NHWC",
	NCHW:      "NCHW",
	HWCK:      "HWCK",
	FICO:      "FICO",
	ZRH:       "ZRH",
	BidirFICO: "BIDIR_FICO",
	BidirZRH:  "BIDIR_ZRH",
}

// String returns the layout name.
func (l Layout) String() string {
	if l < 0 || int(l) >= len(layoutNames) {
		return "UNKNOWN"
	}
	return layoutNames[l]
}

// ParseLayout parses a layout name.
func ParseLayout(s string) (Layout, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for l, n := range layoutNames {
		if n == name {
			return Layout(l), nil
		}
	}
	return 0, status.Newf(status.ErrInvalidLayout, "unknown layout %q", s)
}

// NumDims returns how many dims the layout populates.
func (l Layout) NumDims() int {
	switch l {
	case Layout1D:
		return 1
	case Layout2D, Layout2DS:
		return 2
	case Layout3D, Layout3DS:
		return 3
	default:
		return 4
	}
}

// IsConcatenated reports whether l is one of the RNN gate layouts.
func (l Layout) IsConcatenated() bool {
	switch l {
	case FICO, ZRH, BidirFICO, BidirZRH:
		return true
	default:
		return false
	}
}

// IsLogical reports whether l may describe a pre-transformed tensor.
func (l Layout) IsLogical() bool {
	return l >= Layout1D && l <= HWCK
}

// Labels returns the single-letter axis names used when printing a tensor
// of this layout, outermost first.
func (l Layout) Labels() [4]byte {
	switch l {
	case NCHW:
		return [4]byte{'N', 'C', 'H', 'W'}
	case HWCK:
		return [4]byte{'H', 'W', 'C', 'K'}
	default:
		return [4]byte{'N', 'H', 'W', 'C'}
	}
}

// Format is the stick format of a transformed descriptor.
type Format int

// Supported formats.
const (
	FormatFeature Format = iota // 4D-FEATURE
	FormatKernel                // 4D-KERNEL
	FormatGeneric               // 4D-GENERIC: quantized or raw byte cells
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatFeature:
		return "4D-FEATURE"
	case FormatKernel:
		return "4D-KERNEL"
	case FormatGeneric:
		return "4D-GENERIC"
	default:
		return "UNKNOWN"
	}
}
