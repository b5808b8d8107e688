// Package format defines the in-memory layout of heap block headers. Every
// payload handed out by the engine is preceded by a fixed-size header that
// records the payload size, the address-ordered neighbour links and a state
// tag. The helpers here are allocation-free and operate directly on the arena
// bytes so the engine never keeps a shadow copy of the block list.
package format

const (
	// Alignment is the payload alignment guaranteed to callers. Header sizes,
	// payload sizes and header offsets are all multiples of it.
	Alignment = 16

	// AlignmentMask is used by Align16 to round sizes up.
	AlignmentMask = Alignment - 1

	// HeaderSize is the size of a block header in bytes.
	//
	// Layout (little-endian):
	//
	//	Offset  Size  Description
	//	0x00    8     Payload size (multiple of Alignment)
	//	0x08    8     Offset of the next header, NoBlock if last
	//	0x10    8     Offset of the previous header, NoBlock if first
	//	0x18    4     State tag
	//	0x1C    4     Reserved, always zero
	HeaderSize = 0x20

	// Field offsets within a header.
	SizeOffset     = 0x00
	NextOffset     = 0x08
	PrevOffset     = 0x10
	StateOffset    = 0x18
	ReservedOffset = 0x1C

	// MinSplitRemainder is the smallest remainder that justifies carving a new
	// free block out of a larger one: a full header plus one alignment unit.
	MinSplitRemainder = HeaderSize + Alignment
)

// NoBlock marks an absent neighbour link.
const NoBlock = ^uint64(0)
