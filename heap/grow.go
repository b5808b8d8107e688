package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// growLocked appends a block of need payload bytes after last (NoBlock when
// the arena is empty) by moving the segment break. The new block is tagged
// StateFresh. Caller must hold h.mu.
func (h *Heap) growLocked(last, need uint64) (uint64, error) {
	total := format.HeaderSize + need

	old, err := h.seg.Sbrk(int(total))
	if err != nil {
		h.log.Warn("arena growth failed",
			"need", need, "brk", h.brk, "error", err)
		return format.NoBlock, fmt.Errorf("%w: %w", ErrNoSpace, err)
	}
	if uint64(old) != h.brk {
		cerr := corruption(BreakMoved, NilRef, "expected break %#x, segment returned %#x", h.brk, old)
		h.log.Error("heap corruption", "kind", cerr.Kind.String(), "detail", cerr.Detail)
		panic(cerr)
	}

	off := uint64(old)
	h.brk = off + total
	h.arena = h.seg.Bytes()

	format.EncodeBlock(h.arena, format.Block{
		Offset: off,
		Size:   need,
		Next:   format.NoBlock,
		Prev:   last,
		State:  format.StateFresh,
	})
	if last == format.NoBlock {
		h.head = off
	} else {
		format.SetBlockNext(h.arena, last, off)
	}

	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(total)
	h.log.Debug("arena grown", "block", off, "size", need, "brk", h.brk)

	if h.onGrow != nil {
		h.onGrow(total)
	}
	return off, nil
}
