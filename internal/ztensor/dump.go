package ztensor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/born-ml/stick/internal/format"
	"github.com/born-ml/stick/internal/status"
	"github.com/born-ml/stick/internal/stick"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/cockroachdb/errors"
)

// DumpMode selects how Dump prints cells.
type DumpMode int

// Dump modes.
const (
	DumpHex DumpMode = iota
	DumpFloat
)

// Dump writes t's buffer page by page, one stick per line. Sticks holding
// only zero bytes are skipped unless all is set.
func Dump(w io.Writer, t *Tensor, mode DumpMode, all bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s transformed=%t bytes=%d\n", t.tfrmd, t.transformed, len(t.buf))

	cellSize := t.geometry().CellSize
	zero := make([]byte, stick.StickBytes)
	for page := 0; page*stick.PageSize < len(t.buf); page++ {
		header := false
		for s := 0; s < stick.SticksPerPage; s++ {
			off := page*stick.PageSize + s*stick.StickBytes
			cells := t.buf[off : off+stick.StickBytes]
			if !all && bytes.Equal(cells, zero) {
				continue
			}
			if !header {
				fmt.Fprintf(bw, "page %d\n", page)
				header = true
			}
			fmt.Fprintf(bw, "  stick %2d:", s)
			for c := 0; c < len(cells); c += cellSize {
				bw.WriteByte(' ')
				bw.WriteString(formatCell(cells[c:c+cellSize], mode))
			}
			bw.WriteByte('\n')
		}
	}
	return errors.Wrap(bw.Flush(), "dump tensor")
}

func formatCell(b []byte, mode DumpMode) string {
	if len(b) == 1 {
		if mode == DumpHex {
			return fmt.Sprintf("%02x", b[0])
		}
		return strconv.Itoa(int(int8(b[0])))
	}
	v := byteOrder.Uint16(b)
	if mode == DumpHex {
		return fmt.Sprintf("%04x", v)
	}
	d := format.FromBits(v)
	if d.IsNaN() {
		return "NINF"
	}
	return d.String()
}

// DumpValues writes a logical row-major array described by pre, one dim1 run
// per line, each prefixed with its outer indexes.
func DumpValues(w io.Writer, pre tensor.Descriptor, values []float32) error {
	if uint64(len(values)) != pre.NumElements() {
		return status.Newf(status.ErrInvalidBuffer, "%s has %d elements, got %d", pre, pre.NumElements(), len(values))
	}
	shape := pre.Shape()
	labels := pre.Layout().Labels()
	names := labels[4-len(shape):]
	width := shape[len(shape)-1]

	bw := bufio.NewWriter(w)
	idx := make([]int, len(shape)-1)
	for start := 0; start < len(values); start += width {
		parts := make([]string, 0, len(idx)+1)
		for k, v := range idx {
			parts = append(parts, fmt.Sprintf("%c=%d", names[k], v))
		}
		fmt.Fprintf(bw, "%s:", strings.Join(parts, " "))
		for _, v := range values[start : start+width] {
			fmt.Fprintf(bw, " %g", v)
		}
		bw.WriteByte('\n')

		for k := len(idx) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return errors.Wrap(bw.Flush(), "dump values")
}
