//go:build unix

package segment

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Mapped reserves an address range with an inaccessible anonymous mapping
// and commits pages as the break advances, the way a process heap grows
// behind sbrk. Pages are never decommitted.
type Mapped struct {
	mu        sync.Mutex
	mem       []byte // the full reservation
	brk       int
	committed int
	page      int
}

// NewMapped reserves limit bytes of address space, rounded up to whole pages.
func NewMapped(limit int) (*Mapped, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("segment: invalid limit %d", limit)
	}
	page := unix.Getpagesize()
	limit = roundUp(limit, page)
	mem, err := unix.Mmap(-1, 0, limit, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("segment: reserve %d bytes: %w", limit, err)
	}
	return &Mapped{mem: mem, page: page}, nil
}

// Sbrk implements Segment.
func (m *Mapped) Sbrk(n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mem == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, ErrNegative
	}
	if n > len(m.mem)-m.brk {
		return 0, fmt.Errorf("%w: brk=%d request=%d limit=%d", ErrExhausted, m.brk, n, len(m.mem))
	}
	next := m.brk + n
	if next > m.committed {
		commit := min(roundUp(next, m.page), len(m.mem))
		if err := unix.Mprotect(m.mem[m.committed:commit], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("%w: commit pages: %w", ErrExhausted, err)
		}
		m.committed = commit
	}
	old := m.brk
	m.brk = next
	return old, nil
}

// Brk implements Segment.
func (m *Mapped) Brk() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brk
}

// Limit implements Segment.
func (m *Mapped) Limit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mem)
}

// Bytes implements Segment.
func (m *Mapped) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem[:m.brk:m.brk]
}

// Close implements Segment.
func (m *Mapped) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem, m.brk, m.committed = nil, 0, 0
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

// New returns the platform's preferred segment.
func New(limit int) (Segment, error) {
	return NewMapped(limit)
}
