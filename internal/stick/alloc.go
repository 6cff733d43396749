package stick

import "unsafe"

// Alloc returns a zeroed byte slice of the given size whose backing array
// starts on a PageSize boundary. Size is rounded up to whole pages.
func Alloc(size uint64) []byte {
	if size == 0 {
		return nil
	}
	size = AlignPage(size)

	buf := make([]byte, size+PageSize-1)
	ptr := uintptr(unsafe.Pointer(&buf[0]))

	offset := uintptr(0)
	if mod := ptr % PageSize; mod != 0 {
		offset = PageSize - mod
	}
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AlignPage rounds size up to a PageSize multiple.
func AlignPage(size uint64) uint64 {
	return (size + PageSize - 1) &^ (PageSize - 1)
}

// IsAligned reports whether b starts on a page boundary.
func IsAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%PageSize == 0
}
