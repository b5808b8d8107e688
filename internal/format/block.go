package format

import "fmt"

// Block is a decoded block header.
type Block struct {
	Offset uint64 // Offset of the header from the arena base
	Size   uint64 // Payload size in bytes
	Next   uint64 // Offset of the next header, NoBlock if none
	Prev   uint64 // Offset of the previous header, NoBlock if none
	State  State
}

// Payload returns the offset of the first payload byte.
func (b Block) Payload() uint64 { return b.Offset + HeaderSize }

// End returns the offset one past the last payload byte, which is where the
// following header starts when the arena has no gaps.
func (b Block) End() uint64 { return b.Offset + HeaderSize + b.Size }

// Free reports whether the block is tagged free.
func (b Block) Free() bool { return b.State == StateFree }

// DecodeBlock reads the header at off. It validates only what can be checked
// without looking at neighbours: bounds, alignment and the state tag.
func DecodeBlock(arena []byte, off uint64) (Block, error) {
	if !IsAligned(off) {
		return Block{}, fmt.Errorf("block at %#x: %w", off, ErrMisaligned)
	}
	if off > uint64(len(arena)) || uint64(len(arena))-off < HeaderSize {
		return Block{}, fmt.Errorf("block at %#x: %w", off, ErrTruncated)
	}
	o := int(off)
	b := Block{
		Offset: off,
		Size:   ReadU64(arena, o+SizeOffset),
		Next:   ReadU64(arena, o+NextOffset),
		Prev:   ReadU64(arena, o+PrevOffset),
		State:  State(ReadU32(arena, o+StateOffset)),
	}
	if !b.State.Valid() {
		return b, fmt.Errorf("block at %#x: tag %d: %w", off, uint32(b.State), ErrBadState)
	}
	if !IsAligned(b.Size) {
		return b, fmt.Errorf("block at %#x: size %d: %w", off, b.Size, ErrMisaligned)
	}
	return b, nil
}

// EncodeBlock writes b's header at b.Offset. The caller guarantees the header
// lies within arena.
func EncodeBlock(arena []byte, b Block) {
	o := int(b.Offset)
	PutU64(arena, o+SizeOffset, b.Size)
	PutU64(arena, o+NextOffset, b.Next)
	PutU64(arena, o+PrevOffset, b.Prev)
	PutU32(arena, o+StateOffset, uint32(b.State))
	PutU32(arena, o+ReservedOffset, 0)
}

// Header field accessors used on hot paths where decoding the whole header
// would be wasted work.

// BlockSize returns the payload size recorded at off.
func BlockSize(arena []byte, off uint64) uint64 { return ReadU64(arena, int(off)+SizeOffset) }

// SetBlockSize overwrites the payload size at off.
func SetBlockSize(arena []byte, off, size uint64) { PutU64(arena, int(off)+SizeOffset, size) }

// BlockNext returns the next link at off.
func BlockNext(arena []byte, off uint64) uint64 { return ReadU64(arena, int(off)+NextOffset) }

// SetBlockNext overwrites the next link at off.
func SetBlockNext(arena []byte, off, next uint64) { PutU64(arena, int(off)+NextOffset, next) }

// BlockPrev returns the prev link at off.
func BlockPrev(arena []byte, off uint64) uint64 { return ReadU64(arena, int(off)+PrevOffset) }

// SetBlockPrev overwrites the prev link at off.
func SetBlockPrev(arena []byte, off, prev uint64) { PutU64(arena, int(off)+PrevOffset, prev) }

// BlockState returns the state tag at off.
func BlockState(arena []byte, off uint64) State {
	return State(ReadU32(arena, int(off)+StateOffset))
}

// SetBlockState overwrites the state tag at off.
func SetBlockState(arena []byte, off uint64, s State) {
	PutU32(arena, int(off)+StateOffset, uint32(s))
}
