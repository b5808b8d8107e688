// Package segment provides the heap-growth primitive the allocator is built
// on: a single contiguous address range whose break can only move forward.
// The base address of a segment never changes, so byte slices taken from
// Bytes remain valid after later growth.
package segment

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// DefaultLimit is the address range reserved when no limit is configured.
const DefaultLimit = 1 << 30

// baseAlignment is the minimum alignment of a segment's base address.
const baseAlignment = 16

var (
	// ErrExhausted indicates the break cannot move past the segment limit.
	ErrExhausted = errors.New("segment: exhausted")
	// ErrClosed indicates the segment was already released.
	ErrClosed = errors.New("segment: closed")
	// ErrNegative indicates an attempt to move the break backwards.
	ErrNegative = errors.New("segment: break cannot shrink")
)

// Segment is a monotonically growing region of memory.
type Segment interface {
	// Sbrk moves the break forward by n bytes and returns the previous break.
	// It either succeeds completely or leaves the break untouched.
	Sbrk(n int) (int, error)

	// Brk returns the current break, the number of usable bytes.
	Brk() int

	// Limit returns the largest break the segment can ever reach.
	Limit() int

	// Bytes returns the usable region [0, Brk()).
	Bytes() []byte

	// Close releases the segment. Slices obtained from Bytes must not be
	// used afterwards.
	Close() error
}

// Fixed is a Segment backed by Go-managed memory of a fixed capacity. It is
// the portable fallback and the natural choice for tests that want to provoke
// exhaustion with a tiny limit.
type Fixed struct {
	mu  sync.Mutex
	mem []byte
	brk int
}

// NewFixed returns a Fixed segment that can grow up to limit bytes.
func NewFixed(limit int) (*Fixed, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("segment: invalid limit %d", limit)
	}
	raw := make([]byte, limit+baseAlignment)
	skip := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) % baseAlignment); rem != 0 {
		skip = baseAlignment - rem
	}
	return &Fixed{mem: raw[skip : skip+limit : skip+limit]}, nil
}

// Sbrk implements Segment.
func (f *Fixed) Sbrk(n int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mem == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, ErrNegative
	}
	if n > len(f.mem)-f.brk {
		return 0, fmt.Errorf("%w: brk=%d request=%d limit=%d", ErrExhausted, f.brk, n, len(f.mem))
	}
	old := f.brk
	f.brk += n
	return old, nil
}

// Brk implements Segment.
func (f *Fixed) Brk() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.brk
}

// Limit implements Segment.
func (f *Fixed) Limit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mem)
}

// Bytes implements Segment.
func (f *Fixed) Bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mem[:f.brk:f.brk]
}

// Close implements Segment.
func (f *Fixed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mem, f.brk = nil, 0
	return nil
}

func roundUp(n, to int) int {
	return (n + to - 1) / to * to
}
