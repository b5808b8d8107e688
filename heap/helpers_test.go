package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/segment"
)

// newTestHeap creates a heap over a Fixed segment of limit bytes.
func newTestHeap(t testing.TB, limit int, cfg Config) (*Heap, *segment.Fixed) {
	t.Helper()
	seg, err := segment.NewFixed(limit)
	require.NoError(t, err)
	h, err := NewWithSegment(seg, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h, seg
}

// requireInvariants fails the test if Verify reports a problem.
func requireInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.Verify())
}

// catchCorruption runs fn and returns the *CorruptionError it panicked with.
func catchCorruption(t testing.TB, fn func()) (cerr *CorruptionError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a corruption panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.As(err, &cerr), "panic value %v is not a *CorruptionError", r)
	}()
	fn()
	return nil
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, h *Heap, n int) (Ref, []byte) {
	t.Helper()
	ref, p, err := h.Alloc(n)
	require.NoError(t, err)
	require.NotEqual(t, NilRef, ref)
	require.Len(t, p, n)
	return ref, p
}

// fill writes b over every byte of p.
func fill(p []byte, b byte) {
	for i := range p {
		p[i] = b
	}
}
