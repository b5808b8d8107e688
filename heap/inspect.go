package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Stats returns a snapshot of the allocator counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.ArenaBytes = int64(h.brk)
	s.PendingFrees = h.frees
	return s
}

// Walk calls fn for every block in address order while holding the lock,
// stopping early when fn returns false. fn must not call back into h.
func (h *Heap) Walk(fn func(BlockInfo) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cur := h.head; cur != format.NoBlock; cur = format.BlockNext(h.arena, cur) {
		info := BlockInfo{
			Offset: cur,
			Ref:    refOf(cur),
			Size:   format.BlockSize(h.arena, cur),
			State:  format.BlockState(h.arena, cur),
		}
		if !fn(info) {
			return
		}
	}
}

// Blocks returns every block in address order.
func (h *Heap) Blocks() []BlockInfo {
	var out []BlockInfo
	h.Walk(func(b BlockInfo) bool {
		out = append(out, b)
		return true
	})
	return out
}

// AdjacentFree counts pairs of neighbouring blocks that are both free. It is
// zero right after a sweep.
func (h *Heap) AdjacentFree() int {
	pairs := 0
	prevFree := false
	h.Walk(func(b BlockInfo) bool {
		if b.Free() && prevFree {
			pairs++
		}
		prevFree = b.Free()
		return true
	})
	return pairs
}

// Verify checks the block list against the arena: blocks start at offset 0,
// follow each other with no gaps or overlaps, prev and next links are mutual
// inverses, sizes are aligned, tags are valid and the last block ends at the
// break. It returns an ErrInvariant-wrapped description of the first problem.
func (h *Heap) Verify() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.head == format.NoBlock {
		if h.brk != 0 {
			return fmt.Errorf("%w: empty list but break at %#x", ErrInvariant, h.brk)
		}
		return nil
	}
	if h.head != 0 {
		return fmt.Errorf("%w: head at %#x, want 0", ErrInvariant, h.head)
	}

	// Each block is at least a header, which bounds the walk even if a
	// corrupted link forms a cycle.
	limit := h.brk/format.HeaderSize + 1
	prev := format.NoBlock
	expect := uint64(0)
	for cur, n := h.head, uint64(0); cur != format.NoBlock; n++ {
		if n > limit {
			return fmt.Errorf("%w: list longer than arena allows (cycle?)", ErrInvariant)
		}
		if cur != expect {
			return fmt.Errorf("%w: block at %#x, expected %#x", ErrInvariant, cur, expect)
		}
		b, err := format.DecodeBlock(h.arena, cur)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvariant, err)
		}
		if b.Prev != prev {
			return fmt.Errorf("%w: block at %#x has prev %#x, want %#x", ErrInvariant, cur, b.Prev, prev)
		}
		if b.End() > h.brk {
			return fmt.Errorf("%w: block at %#x ends at %#x past break %#x", ErrInvariant, cur, b.End(), h.brk)
		}
		if b.Next != format.NoBlock && b.Next != b.End() {
			return fmt.Errorf("%w: block at %#x links to %#x, ends at %#x", ErrInvariant, cur, b.Next, b.End())
		}
		prev, expect, cur = cur, b.End(), b.Next
	}
	if expect != h.brk {
		return fmt.Errorf("%w: last block ends at %#x, break at %#x", ErrInvariant, expect, h.brk)
	}
	return nil
}
