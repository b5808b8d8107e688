package heap

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/segment"
)

func TestAlloc_FirstBlockGrowsArena(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	ref, p := mustAlloc(t, h, 64)
	require.Equal(t, Ref(HeaderSize), ref, "first payload follows the first header")
	require.Equal(t, 64, cap(p))

	blocks := h.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(0), blocks[0].Offset)
	assert.Equal(t, uint64(64), blocks[0].Size)
	assert.Equal(t, StateFresh, blocks[0].State)

	st := h.Stats()
	assert.Equal(t, int64(HeaderSize+64), st.ArenaBytes)
	assert.Equal(t, 1, st.GrowCalls)
	assert.Equal(t, 1, st.AllocSlowPath)
	requireInvariants(t, h)
}

func TestAlloc_SizeIsAligned(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	for _, n := range []int{1, 15, 16, 17, 100} {
		ref, p := mustAlloc(t, h, n)
		size, err := h.UsableSize(ref)
		require.NoError(t, err)
		assert.Zero(t, size%Alignment, "size %d for request %d", size, n)
		assert.GreaterOrEqual(t, size, n)
		assert.Less(t, size-n, Alignment)
		assert.Equal(t, size, cap(p))
	}
	requireInvariants(t, h)
}

func TestAlloc_PayloadAddressesAligned(t *testing.T) {
	h, err := New(Config{MaxArena: 1 << 20})
	require.NoError(t, err)
	defer h.Close()

	for n := 1; n <= 300; n += 7 {
		_, p := mustAlloc(t, h, n)
		addr := uintptr(unsafe.Pointer(&p[0]))
		require.Zero(t, addr%Alignment, "payload for %d bytes at %#x", n, addr)
	}
	requireInvariants(t, h)
}

func TestAlloc_ZeroSize(t *testing.T) {
	h, _ := newTestHeap(t, 1<<12, Config{})

	for _, n := range []int{0, -1} {
		ref, p, err := h.Alloc(n)
		require.ErrorIs(t, err, ErrZeroSize)
		require.NotErrorIs(t, err, ErrNoSpace)
		require.Equal(t, NilRef, ref)
		require.Nil(t, p)
	}
	assert.Zero(t, h.Stats().ArenaBytes)
}

func TestAlloc_Exhaustion(t *testing.T) {
	h, _ := newTestHeap(t, 256, Config{})

	mustAlloc(t, h, 200) // 32 + 208 = 240 bytes

	ref, p, err := h.Alloc(16)
	require.ErrorIs(t, err, ErrNoSpace)
	require.ErrorIs(t, err, segment.ErrExhausted)
	require.NotErrorIs(t, err, ErrZeroSize)
	require.Equal(t, NilRef, ref)
	require.Nil(t, p)

	// failed growth leaves the arena untouched
	assert.Equal(t, int64(240), h.Stats().ArenaBytes)
	assert.Len(t, h.Blocks(), 1)
	requireInvariants(t, h)
}

func TestAlloc_FirstFitReuse(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	a, _ := mustAlloc(t, h, 64)
	mustAlloc(t, h, 64)
	c, _ := mustAlloc(t, h, 64)
	h.Free(a)
	h.Free(c)
	brk := h.Stats().ArenaBytes

	// both freed blocks fit, the lower address wins
	got, _ := mustAlloc(t, h, 48)
	assert.Equal(t, a, got)
	assert.Equal(t, brk, h.Stats().ArenaBytes, "reuse must not grow the arena")

	blocks := h.Blocks()
	assert.Equal(t, StateReused, blocks[0].State)
	assert.Equal(t, 1, h.Stats().AllocFastPath)
	requireInvariants(t, h)
}

func TestAlloc_SkipsTooSmallFreeBlocks(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	small, _ := mustAlloc(t, h, 32)
	mustAlloc(t, h, 16)
	large, _ := mustAlloc(t, h, 256)
	mustAlloc(t, h, 16)
	h.Free(small)
	h.Free(large)

	got, _ := mustAlloc(t, h, 100)
	assert.Equal(t, large, got)
	requireInvariants(t, h)
}

func TestAlloc_SplitsLargeFreeBlock(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	big, _ := mustAlloc(t, h, 256)
	mustAlloc(t, h, 16)
	h.Free(big)

	got, _ := mustAlloc(t, h, 64)
	require.Equal(t, big, got)

	blocks := h.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, uint64(64), blocks[0].Size)
	assert.Equal(t, StateReused, blocks[0].State)
	// remainder: 256 - 64 - header
	assert.Equal(t, uint64(HeaderSize+64), blocks[1].Offset)
	assert.Equal(t, uint64(256-64-HeaderSize), blocks[1].Size)
	assert.Equal(t, StateFree, blocks[1].State)
	assert.Equal(t, 1, h.Stats().SplitCount)
	requireInvariants(t, h)
}

func TestAlloc_SplitThreshold(t *testing.T) {
	tests := []struct {
		name      string
		blockSize int
		request   int
		wantSplit bool
	}{
		{"remainder too small for header", 64, 48, false},
		{"remainder exactly header", 64, 32, false},
		{"remainder header plus one unit", 96, 48, true},
		{"exact fit", 128, 128, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestHeap(t, 1<<16, Config{})
			ref, _ := mustAlloc(t, h, tc.blockSize)
			mustAlloc(t, h, 16)
			h.Free(ref)

			got, _ := mustAlloc(t, h, tc.request)
			require.Equal(t, ref, got)

			size, err := h.UsableSize(got)
			require.NoError(t, err)
			if tc.wantSplit {
				assert.Equal(t, tc.request, size)
				assert.Len(t, h.Blocks(), 3)
			} else {
				assert.Equal(t, tc.blockSize, size, "whole block handed out")
				assert.Len(t, h.Blocks(), 2)
			}
			requireInvariants(t, h)
		})
	}
}

func TestAlloc_GrowthNeverSplits(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})
	mustAlloc(t, h, 4000)
	assert.Zero(t, h.Stats().SplitCount)
	assert.Len(t, h.Blocks(), 1)
}

func TestFree_NilIsNoop(t *testing.T) {
	h, _ := newTestHeap(t, 1<<12, Config{})
	require.NotPanics(t, func() { h.Free(NilRef) })
	assert.Zero(t, h.Stats().FreeCalls)
}

func TestFree_DefersCoalescing(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	a, _ := mustAlloc(t, h, 32)
	b, _ := mustAlloc(t, h, 32)
	h.Free(a)
	h.Free(b)

	blocks := h.Blocks()
	require.Len(t, blocks, 2, "release must not merge immediately")
	assert.True(t, blocks[0].Free())
	assert.True(t, blocks[1].Free())
	assert.Equal(t, 1, h.AdjacentFree())
	assert.Equal(t, 2, h.Stats().PendingFrees)
	requireInvariants(t, h)
}

func TestPayload(t *testing.T) {
	h, _ := newTestHeap(t, 1<<12, Config{})

	ref, p := mustAlloc(t, h, 20)
	copy(p, "payload")

	full, err := h.Payload(ref)
	require.NoError(t, err)
	require.Len(t, full, 32)
	assert.Equal(t, "payload", string(full[:7]))

	h.Free(ref)
	_, err = h.Payload(ref)
	require.ErrorIs(t, err, ErrCorrupt)
	var cerr *CorruptionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, DoubleFree, cerr.Kind)

	_, err = h.UsableSize(Ref(4096))
	require.ErrorIs(t, err, ErrBadRef)
}

func TestClose(t *testing.T) {
	h, _ := newTestHeap(t, 1<<12, Config{})
	mustAlloc(t, h, 16)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, _, err := h.Alloc(16)
	require.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, h.Blocks())
}

func TestNewWithSegment_RejectsUsedSegment(t *testing.T) {
	seg, err := segment.NewFixed(1 << 12)
	require.NoError(t, err)
	_, err = seg.Sbrk(16)
	require.NoError(t, err)

	_, err = NewWithSegment(seg, Config{})
	require.Error(t, err)

	_, err = NewWithSegment(nil, Config{})
	require.Error(t, err)
}

// Test_EndToEnd follows the demonstration scenario: a small allocation, a
// batch of ten that is released in order, then one more allocation that can
// reuse the coalesced space.
func Test_EndToEnd(t *testing.T) {
	h, _ := newTestHeap(t, 1<<16, Config{})

	ref, p := mustAlloc(t, h, 64)
	n := copy(p, "Hello, custom allocator!")
	require.Equal(t, 24, n)
	require.Equal(t, "Hello, custom allocator!", string(p[:n]))
	h.Free(ref)

	var refs [10]Ref
	for i := range refs {
		refs[i], _ = mustAlloc(t, h, 128)
	}
	for _, r := range refs {
		h.Free(r)
	}
	brk := h.Stats().ArenaBytes

	_, _, err := h.Alloc(64)
	require.NoError(t, err)
	assert.Equal(t, brk, h.Stats().ArenaBytes, "arena does not grow")
	assert.Zero(t, h.AdjacentFree())
	requireInvariants(t, h)
}
