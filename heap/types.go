package heap

import "github.com/joshuapare/heapkit/internal/format"

// Ref is an opaque handle to an allocation: the payload's byte offset from
// the arena base. The zero Ref is never a valid payload.
type Ref uint64

// NilRef is the empty handle. Free(NilRef) is a no-op and Realloc(NilRef, n)
// behaves like Alloc(n).
const NilRef Ref = 0

// Alignment is the guaranteed alignment of every payload.
const Alignment = format.Alignment

// HeaderSize is the per-block metadata overhead in bytes.
const HeaderSize = format.HeaderSize

// DefaultSweepThreshold is the number of releases after which the next
// allocation runs a coalescing sweep.
const DefaultSweepThreshold = 10

// Allocator is the public operation surface.
//
// Implementations:
//   - Heap: the arena-backed engine in this package
type Allocator interface {
	// Alloc returns a handle and a slice of length n over a fresh payload.
	Alloc(n int) (Ref, []byte, error)

	// Free releases ref. Free(NilRef) is a no-op.
	Free(ref Ref)

	// Realloc resizes ref to n bytes, preserving its contents. The returned
	// handle may differ from ref; on error ref is left untouched.
	Realloc(ref Ref, n int) (Ref, []byte, error)

	// Calloc allocates count*size zeroed bytes.
	Calloc(count, size int) (Ref, []byte, error)
}

var _ Allocator = (*Heap)(nil)

// State reports a block's tag as seen by Walk.
type State = format.State

// Block states re-exported for callers of Walk and Blocks.
const (
	StateFresh  = format.StateFresh
	StateReused = format.StateReused
	StateFree   = format.StateFree
)

// BlockInfo describes one block of the arena.
type BlockInfo struct {
	Offset uint64 // header offset
	Ref    Ref    // payload handle
	Size   uint64 // payload size
	State  State
}

// Free reports whether the block is available for reuse.
func (b BlockInfo) Free() bool { return b.State == format.StateFree }

// Stats holds allocator counters. Counters are cumulative since New;
// ArenaBytes, InUseBytes and PendingFrees are point-in-time values.
type Stats struct {
	AllocCalls   int // Alloc calls, including those made by Realloc and Calloc
	FreeCalls    int // Free calls with a non-nil handle
	ReallocCalls int
	CallocCalls  int

	AllocFastPath  int // allocations served from a free block
	AllocSlowPath  int // allocations that grew the arena
	ReallocInPlace int // Realloc calls that kept the same block
	ReallocMoved   int // Realloc calls that copied to a new block

	GrowCalls int
	GrowBytes int64

	SplitCount       int
	CoalesceForward  int // merges of a free successor
	CoalesceBackward int // merges into a free predecessor
	Sweeps           int

	ArenaBytes   int64 // current break
	InUseBytes   int64 // payload bytes held by callers
	PendingFrees int   // releases since the last sweep
}
