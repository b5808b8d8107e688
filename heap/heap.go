package heap

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/segment"
)

// Heap is the arena-backed allocator. The zero value is not usable; create
// one with New or NewWithSegment.
type Heap struct {
	mu sync.Mutex

	seg   segment.Segment
	arena []byte // seg.Bytes() as of the last growth
	head  uint64 // first header, format.NoBlock while empty
	brk   uint64 // end of the last block

	frees          int // releases since the last sweep
	sweepThreshold int

	log   *slog.Logger
	stats Stats

	// Test hook: called after each successful growth with the bytes added.
	onGrow func(uint64)
}

// New creates a heap on the platform's preferred segment, reserving
// cfg.MaxArena bytes of address space.
func New(cfg Config) (*Heap, error) {
	cfg = cfg.normalize()
	seg, err := segment.New(cfg.MaxArena)
	if err != nil {
		return nil, fmt.Errorf("heap: %w", err)
	}
	return NewWithSegment(seg, cfg)
}

// NewWithSegment creates a heap over seg, which must be empty. The heap takes
// ownership of seg and releases it on Close. cfg.MaxArena is ignored.
func NewWithSegment(seg segment.Segment, cfg Config) (*Heap, error) {
	if seg == nil {
		return nil, fmt.Errorf("heap: nil segment")
	}
	if brk := seg.Brk(); brk != 0 {
		return nil, fmt.Errorf("heap: segment already in use (brk=%d)", brk)
	}
	cfg = cfg.normalize()
	return &Heap{
		seg:            seg,
		head:           format.NoBlock,
		sweepThreshold: cfg.SweepThreshold,
		log:            cfg.Logger,
	}, nil
}

// Close releases the underlying segment. Every slice handed out by the heap
// becomes invalid.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seg == nil {
		return nil
	}
	err := h.seg.Close()
	h.seg, h.arena = nil, nil
	h.head, h.brk = format.NoBlock, 0
	return err
}

// Alloc allocates n bytes and returns the handle plus a slice of length n
// over the payload. The slice's capacity is the aligned payload size.
func (h *Heap) Alloc(n int) (Ref, []byte, error) {
	if n <= 0 {
		return NilRef, nil, ErrZeroSize
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	off, err := h.allocLocked(n)
	if err != nil {
		return NilRef, nil, err
	}
	return refOf(off), h.payload(off, uint64(n)), nil
}

// Free releases ref. Releasing NilRef is a no-op. Releasing a handle twice,
// or one this heap did not return, panics with a *CorruptionError.
func (h *Heap) Free(ref Ref) {
	if ref == NilRef {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.mustBlock(ref)
	h.freeLocked(off)
}

// Realloc resizes ref to n bytes. A NilRef behaves like Alloc(n). If the
// block already holds n bytes the same handle is returned; the block is never
// shrunk and its unused tail stays attached. Otherwise the contents are copied
// to a new block and ref is released. If the new block cannot be obtained the
// error is returned and ref remains valid.
func (h *Heap) Realloc(ref Ref, n int) (Ref, []byte, error) {
	if ref == NilRef {
		h.mu.Lock()
		h.stats.ReallocCalls++
		h.mu.Unlock()
		return h.Alloc(n)
	}
	if n < 0 {
		return NilRef, nil, ErrZeroSize
	}
	need, ok := alignedSize(n)
	if !ok {
		return NilRef, nil, ErrOverflow
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.ReallocCalls++

	off := h.mustBlock(ref)
	oldSize := format.BlockSize(h.arena, off)
	if oldSize >= need {
		h.stats.ReallocInPlace++
		return ref, h.payload(off, uint64(n)), nil
	}

	// allocLocked never touches allocated blocks, so off stays intact.
	newOff, err := h.allocLocked(n)
	if err != nil {
		return NilRef, nil, err
	}
	dst := h.payload(newOff, uint64(n))
	copy(dst, h.payload(off, min(oldSize, uint64(n))))
	h.freeLocked(off)
	h.stats.ReallocMoved++
	return refOf(newOff), dst, nil
}

// Calloc allocates count*size bytes and zeroes them.
func (h *Heap) Calloc(count, size int) (Ref, []byte, error) {
	total, ok := buf.MulSize(count, size)
	if !ok {
		return NilRef, nil, ErrOverflow
	}
	if total == 0 {
		return NilRef, nil, ErrZeroSize
	}
	h.mu.Lock()
	h.stats.CallocCalls++
	h.mu.Unlock()

	ref, p, err := h.Alloc(total)
	if err != nil {
		return NilRef, nil, err
	}
	clear(p)
	return ref, p, nil
}

// Payload returns the whole payload of a live allocation, which may be
// longer than the size originally requested. Unlike Free it reports an
// invalid handle as an error instead of panicking.
func (h *Heap) Payload(ref Ref) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	off, cerr := h.checkBlock(ref)
	if cerr != nil {
		return nil, cerr
	}
	return h.payload(off, format.BlockSize(h.arena, off)), nil
}

// UsableSize returns the payload size of a live allocation.
func (h *Heap) UsableSize(ref Ref) (int, error) {
	p, err := h.Payload(ref)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// allocLocked finds or creates a block for n bytes and marks it allocated.
// Caller must hold h.mu.
func (h *Heap) allocLocked(n int) (uint64, error) {
	h.stats.AllocCalls++
	if h.seg == nil {
		return format.NoBlock, ErrClosed
	}
	need, ok := alignedSize(n)
	if !ok {
		return format.NoBlock, ErrOverflow
	}

	if h.frees >= h.sweepThreshold {
		h.sweepLocked()
	}

	off, last := h.findFree(need)
	if off == format.NoBlock {
		var err error
		off, err = h.growLocked(last, need)
		if err != nil {
			return format.NoBlock, err
		}
		h.stats.AllocSlowPath++
	} else {
		h.split(off, need)
		format.SetBlockState(h.arena, off, format.StateReused)
		h.stats.AllocFastPath++
	}
	h.stats.InUseBytes += int64(format.BlockSize(h.arena, off))
	return off, nil
}

// freeLocked tags the block at off free and arms the sweep counter.
// Caller must hold h.mu and have validated off.
func (h *Heap) freeLocked(off uint64) {
	h.stats.FreeCalls++
	h.stats.InUseBytes -= int64(format.BlockSize(h.arena, off))
	format.SetBlockState(h.arena, off, format.StateFree)
	h.frees++
}

// mustBlock validates ref and panics with a *CorruptionError if it fails.
func (h *Heap) mustBlock(ref Ref) uint64 {
	off, cerr := h.checkBlock(ref)
	if cerr != nil {
		h.log.Error("heap corruption", "kind", cerr.Kind.String(), "ref", uint64(ref), "detail", cerr.Detail)
		panic(cerr)
	}
	return off
}

// checkBlock maps ref to its header offset, verifying that the header lies
// inside the arena, carries an allocated tag and is linked consistently with
// its neighbours.
func (h *Heap) checkBlock(ref Ref) (uint64, *CorruptionError) {
	r := uint64(ref)
	if r < format.HeaderSize || !format.IsAligned(r) {
		return 0, corruption(ForeignRef, ref, "not on a header boundary")
	}
	off := r - format.HeaderSize
	if !buf.Has(h.arena, off, format.HeaderSize) {
		return 0, corruption(ForeignRef, ref, "outside arena of %d bytes", len(h.arena))
	}

	state := format.BlockState(h.arena, off)
	switch {
	case state == format.StateFree:
		return 0, corruption(DoubleFree, ref, "block already free")
	case !state.Allocated():
		return 0, corruption(ForeignRef, ref, "state tag %d", uint32(state))
	}

	size := format.BlockSize(h.arena, off)
	end, ok := buf.AddU64(r, size)
	if !ok || end > h.brk || !format.IsAligned(size) {
		return 0, corruption(ForeignRef, ref, "size %d exceeds arena", size)
	}

	prev := format.BlockPrev(h.arena, off)
	if prev == format.NoBlock {
		if off != h.head {
			return 0, corruption(BadLinks, ref, "no predecessor but head is %#x", h.head)
		}
	} else if prev >= off || format.BlockNext(h.arena, prev) != off {
		return 0, corruption(BadLinks, ref, "predecessor %#x does not link back", prev)
	}

	next := format.BlockNext(h.arena, off)
	if next == format.NoBlock {
		if end != h.brk {
			return 0, corruption(BadLinks, ref, "last block ends at %#x, break at %#x", end, h.brk)
		}
	} else if next != end || !buf.Has(h.arena, next, format.HeaderSize) ||
		format.BlockPrev(h.arena, next) != off {
		return 0, corruption(BadLinks, ref, "successor %#x does not link back", next)
	}
	return off, nil
}

// payload returns the first n bytes of the payload of the block at off,
// capped at the block's payload size.
func (h *Heap) payload(off, n uint64) []byte {
	start := off + format.HeaderSize
	end := start + format.BlockSize(h.arena, off)
	return h.arena[start : start+n : end]
}

func refOf(off uint64) Ref {
	return Ref(off + format.HeaderSize)
}

// alignedSize rounds n up to the payload alignment, reporting false when the
// result together with a header would not fit in an int.
func alignedSize(n int) (uint64, bool) {
	if n > math.MaxInt-format.HeaderSize-format.AlignmentMask {
		return 0, false
	}
	return uint64(format.Align16(n)), true
}
