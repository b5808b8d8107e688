package format

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// Align16U64 is the uint64 variant of Align16, used for header fields.
func Align16U64(n uint64) uint64 {
	return (n + AlignmentMask) & ^uint64(AlignmentMask)
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n uint64) bool {
	return n&AlignmentMask == 0
}
