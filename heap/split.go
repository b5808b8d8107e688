package heap

import "github.com/joshuapare/heapkit/internal/format"

// split carves a free remainder off the block at off when it can hold a
// header plus one alignment unit beyond need. Otherwise the whole block is
// left to the caller. Reports whether a split happened.
func (h *Heap) split(off, need uint64) bool {
	size := format.BlockSize(h.arena, off)
	if size < need+format.MinSplitRemainder {
		return false
	}

	rem := off + format.HeaderSize + need
	next := format.BlockNext(h.arena, off)
	format.EncodeBlock(h.arena, format.Block{
		Offset: rem,
		Size:   size - need - format.HeaderSize,
		Next:   next,
		Prev:   off,
		State:  format.StateFree,
	})
	if next != format.NoBlock {
		format.SetBlockPrev(h.arena, next, rem)
	}
	format.SetBlockNext(h.arena, off, rem)
	format.SetBlockSize(h.arena, off, need)

	h.stats.SplitCount++
	return true
}
