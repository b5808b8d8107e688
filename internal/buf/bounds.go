// Package buf contains overflow-checked size arithmetic and bounded slicing
// for code that turns caller-supplied sizes into arena offsets.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulSize multiplies two non-negative sizes, returning ok = false when either
// operand is negative or the product would overflow int. It backs the
// count*elemSize computation of zero-allocation.
func MulSize(count, size int) (int, bool) {
	if count < 0 || size < 0 {
		return 0, false
	}
	if count == 0 || size == 0 {
		return 0, true
	}
	if count > math.MaxInt/size {
		return 0, false
	}
	return count * size, true
}

// AddU64 adds two unsigned offsets, returning ok = false on wrap-around.
func AddU64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// Span returns b[off:off+n] when the range lies within len(b).
func Span(b []byte, off, n uint64) ([]byte, bool) {
	end, ok := AddU64(off, n)
	if !ok || end > uint64(len(b)) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n uint64) bool {
	_, ok := Span(b, off, n)
	return ok
}
