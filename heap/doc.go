// Package heap implements a general-purpose dynamic-memory engine over a
// single contiguous arena that only ever grows.
//
// # Overview
//
// The engine exposes the four classic operations:
//
//   - Alloc(n): allocate n bytes
//   - Free(ref): release an allocation
//   - Realloc(ref, n): resize an allocation, moving it if it must grow
//   - Calloc(count, size): allocate count*size zeroed bytes
//
// Memory comes from a segment.Segment, a heap-growth primitive in the spirit
// of sbrk: the arena is extended at its end and never shrinks. On Unix the
// default segment reserves address space with an inaccessible anonymous
// mapping and commits pages as the break advances.
//
// # Block Layout
//
// The arena is partitioned into blocks with no gaps and no overlaps. Every
// block starts with a 32-byte header (see internal/format) recording the
// payload size, the offsets of its address-ordered neighbours and a state
// tag, followed by the payload:
//
//	+--------+-----------+--------+-----------+--------+---------
//	| header | payload   | header | payload   | header | ...
//	+--------+-----------+--------+-----------+--------+---------
//	0        32          32+size
//
// Callers receive a Ref, the payload offset from the arena base, together
// with a byte slice over the payload. A Ref is validated on every Free and
// Realloc: it must land on a header boundary inside the arena, the header
// must carry one of the two allocated tags and its neighbour links must agree
// with the neighbours' links.
//
// # Allocation Strategy
//
// Allocation is first-fit: blocks are scanned from the lowest address and
// the first free block large enough wins. If that block can spare a full
// header plus 16 bytes, the tail is split off as a new free block. When no
// free block fits, the arena is grown by exactly one header plus the aligned
// request.
//
// # Deferred Coalescing
//
// Free only flips the state tag and bumps a counter. Once the counter reaches
// Config.SweepThreshold (10 by default) the next Alloc walks the whole list
// and merges every run of adjacent free blocks before searching. Between
// sweeps adjacent free blocks may exist.
//
// # Errors
//
// Invalid sizes return ErrZeroSize, exhaustion returns ErrNoSpace (wrapping
// the segment error) and overflowing size arithmetic returns ErrOverflow.
// Misuse that indicates corruption - a double Free, a handle this heap never
// produced, inconsistent links - panics with a *CorruptionError. The header
// carries no checksum, so detection is best-effort.
//
// # Thread Safety
//
// A Heap is safe for concurrent use. One mutex serializes every operation,
// including the sweep and the segment growth call.
//
// # Usage Example
//
//	h, err := heap.New(heap.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	ref, buf, err := h.Alloc(64)
//	if err != nil {
//	    return err
//	}
//	copy(buf, "Hello, custom allocator!")
//	h.Free(ref)
package heap
