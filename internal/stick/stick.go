// Package stick computes the physical placement of tensor elements inside a
// stickified buffer.
//
// The innermost axis (dim1) is cut into sticks of 128 bytes: 64 two-byte
// cells for DLFLOAT16 or 128 one-byte cells for INT8. Thirty-two sticks form a
// 4096-byte page. For feature tensors (dims N, H, W, C) consecutive W indices
// fill the sticks of one page, pages advance along W, then H, then C stick
// groups, then N. Kernel tensors (dims H, W, C, K) put consecutive C indices
// in a page and order pages by C, W, H and finally K stick groups.
package stick

// Geometry constants.
const (
	StickBytes    = 128
	PageSize      = 4096
	SticksPerPage = PageSize / StickBytes
	MaxDims       = 4
)

// Tiling selects the page ordering of a buffer.
type Tiling int

// Supported tilings.
const (
	Feature Tiling = iota // N, H, W, C
	Kernel                // H, W, C, K
)

// Geometry is everything needed to place an element: the padded transformed
// dims (dim4 outermost, dim1 innermost), the tiling, and the cell size.
type Geometry struct {
	Dims     [MaxDims]int
	Tiling   Tiling
	CellSize int
}

// CellsPerStick returns the number of elements held by one stick.
func (g Geometry) CellsPerStick() int {
	return StickBytes / g.CellSize
}

// CeilDiv returns ceil(a / b) for positive b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Pad rounds n up to a multiple of cells.
func Pad(n, cells int) int {
	return CeilDiv(n, cells) * cells
}

// Pages returns the number of pages in the buffer.
func (g Geometry) Pages() uint64 {
	d := g.Dims
	return uint64(d[0]) * uint64(d[1]) * uint64(CeilDiv(d[2], SticksPerPage)) * uint64(CeilDiv(d[3], g.CellsPerStick()))
}

// BufferSize returns the buffer size in bytes. It is always a multiple of
// PageSize.
func (g Geometry) BufferSize() uint64 {
	return g.Pages() * PageSize
}

// Offset returns the byte offset of the element at transformed index
// (i4, i3, i2, i1). Indexes are not bounds-checked.
func (g Geometry) Offset(i4, i3, i2, i1 int) int {
	d := g.Dims
	cells := g.CellsPerStick()

	var page int
	switch g.Tiling {
	case Kernel:
		pagesPerW := CeilDiv(d[2], SticksPerPage)
		pagesPerH := pagesPerW * d[1]
		pagesAllH := pagesPerH * d[0]
		page = pagesAllH*(i1/cells) + i4*pagesPerH + i3*pagesPerW + i2/SticksPerPage
	default:
		pagesPerH := CeilDiv(d[2], SticksPerPage)
		pagesAllH := pagesPerH * d[1]
		pagesPerN := pagesAllH * CeilDiv(d[3], cells)
		page = pagesPerN*i4 + (i1/cells)*pagesAllH + i3*pagesPerH + i2/SticksPerPage
	}
	return page*PageSize + (i2%SticksPerPage)*StickBytes + (i1%cells)*g.CellSize
}

// StickOffset returns the offset of the stick holding (i4, i3, i2, i1).
func (g Geometry) StickOffset(i4, i3, i2, i1 int) int {
	off := g.Offset(i4, i3, i2, i1)
	return off - off%StickBytes
}

// Contains reports whether the index is inside the padded dims.
func (g Geometry) Contains(i4, i3, i2, i1 int) bool {
	idx := [MaxDims]int{i4, i3, i2, i1}
	for k, n := range idx {
		if n < 0 || n >= g.Dims[k] {
			return false
		}
	}
	return true
}

// Location splits a byte offset into page, stick within page and cell
// within stick.
func (g Geometry) Location(offset int) (page, stick, cell int) {
	return offset / PageSize, offset % PageSize / StickBytes, offset % StickBytes / g.CellSize
}
