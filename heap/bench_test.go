package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkAllocFree(b *testing.B) {
	h, _ := newTestHeap(b, 64<<20, Config{})
	b.ReportAllocs()
	for b.Loop() {
		ref, _, err := h.Alloc(64)
		if err != nil {
			b.Fatal(err)
		}
		h.Free(ref)
	}
}

func BenchmarkChurn(b *testing.B) {
	sizes := []int{16, 48, 128, 256, 1024}
	h, _ := newTestHeap(b, 256<<20, Config{})
	ring := make([]Ref, 64)
	b.ReportAllocs()
	i := 0
	for b.Loop() {
		slot := i % len(ring)
		h.Free(ring[slot])
		ref, _, err := h.Alloc(sizes[i%len(sizes)])
		if err != nil {
			b.Fatal(err)
		}
		ring[slot] = ref
		i++
	}
	b.StopTimer()
	require.NoError(b, h.Verify())
}

func BenchmarkRealloc(b *testing.B) {
	h, _ := newTestHeap(b, 256<<20, Config{})
	b.ReportAllocs()
	for b.Loop() {
		ref, _, err := h.Alloc(16)
		if err != nil {
			b.Fatal(err)
		}
		for n := 32; n <= 512; n *= 2 {
			if ref, _, err = h.Realloc(ref, n); err != nil {
				b.Fatal(err)
			}
		}
		h.Free(ref)
	}
}

func BenchmarkAllocParallel(b *testing.B) {
	h, _ := newTestHeap(b, 256<<20, Config{})
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ref, _, err := h.Alloc(64)
			if err != nil {
				b.Error(err)
				return
			}
			h.Free(ref)
		}
	})
}
