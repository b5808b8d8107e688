package heap

import "github.com/joshuapare/heapkit/internal/format"

// coalesce merges the block at off with a free successor, then lets a free
// predecessor absorb the result. It returns the surviving (leftmost) block.
// Only immediate neighbours are considered, once in each direction.
func (h *Heap) coalesce(off uint64) uint64 {
	a := h.arena

	if next := format.BlockNext(a, off); next != format.NoBlock && format.BlockState(a, next) == format.StateFree {
		size := format.BlockSize(a, off) + format.HeaderSize + format.BlockSize(a, next)
		after := format.BlockNext(a, next)
		format.SetBlockNext(a, off, after)
		if after != format.NoBlock {
			format.SetBlockPrev(a, after, off)
		}
		format.SetBlockSize(a, off, size)
		// The absorbed header is now payload; scrub its tag so a stale
		// handle to it is reported as foreign.
		format.SetBlockState(a, next, format.StateInvalid)
		h.stats.CoalesceForward++
	}

	if prev := format.BlockPrev(a, off); prev != format.NoBlock && format.BlockState(a, prev) == format.StateFree {
		size := format.BlockSize(a, prev) + format.HeaderSize + format.BlockSize(a, off)
		after := format.BlockNext(a, off)
		format.SetBlockNext(a, prev, after)
		if after != format.NoBlock {
			format.SetBlockPrev(a, after, prev)
		}
		format.SetBlockSize(a, prev, size)
		format.SetBlockState(a, off, format.StateInvalid)
		h.stats.CoalesceBackward++
		off = prev
	}
	return off
}

// sweepLocked walks the list once from the head and coalesces every free
// block it meets, which fully merges each run of adjacent free blocks. It
// resets the release counter. Caller must hold h.mu.
func (h *Heap) sweepLocked() {
	before := h.stats.CoalesceForward + h.stats.CoalesceBackward
	for cur := h.head; cur != format.NoBlock; cur = format.BlockNext(h.arena, cur) {
		if format.BlockState(h.arena, cur) == format.StateFree {
			cur = h.coalesce(cur)
		}
	}
	h.stats.Sweeps++
	h.log.Debug("coalescing sweep",
		"releases", h.frees,
		"merges", h.stats.CoalesceForward+h.stats.CoalesceBackward-before)
	h.frees = 0
}
