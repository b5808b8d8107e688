package heap

import "github.com/joshuapare/heapkit/internal/format"

// findFree returns the first free block, in address order, whose payload can
// hold need bytes. On a miss it returns NoBlock together with the last block
// visited so growth can append without a second scan.
func (h *Heap) findFree(need uint64) (found, last uint64) {
	last = format.NoBlock
	for cur := h.head; cur != format.NoBlock; cur = format.BlockNext(h.arena, cur) {
		if format.BlockState(h.arena, cur) == format.StateFree && format.BlockSize(h.arena, cur) >= need {
			return cur, last
		}
		last = cur
	}
	return format.NoBlock, last
}
