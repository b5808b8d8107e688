package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroSize indicates a request for zero (or a negative number of) bytes.
	ErrZeroSize = errors.New("heap: zero-size request")

	// ErrNoSpace indicates that no free block fits and the arena could not grow.
	ErrNoSpace = errors.New("heap: out of memory")

	// ErrOverflow indicates size arithmetic that does not fit the address space.
	ErrOverflow = errors.New("heap: size overflow")

	// ErrBadRef indicates a handle outside the arena or not on a header boundary.
	ErrBadRef = errors.New("heap: bad reference")

	// ErrCorrupt is matched by every *CorruptionError.
	ErrCorrupt = errors.New("heap: corruption detected")

	// ErrInvariant is returned by Verify when the block list is inconsistent.
	ErrInvariant = errors.New("heap: invariant violated")

	// ErrClosed indicates use of a heap after Close.
	ErrClosed = errors.New("heap: closed")
)

// CorruptionKind classifies a detected misuse.
type CorruptionKind uint8

const (
	// DoubleFree is a Free or Realloc of a block already tagged free.
	DoubleFree CorruptionKind = iota + 1
	// ForeignRef is a handle this heap did not hand out.
	ForeignRef
	// BadLinks is a header whose neighbour links disagree with its neighbours.
	BadLinks
	// BreakMoved means the segment break changed behind the engine's back.
	BreakMoved
)

func (k CorruptionKind) String() string {
	switch k {
	case DoubleFree:
		return "double free"
	case ForeignRef:
		return "foreign reference"
	case BadLinks:
		return "inconsistent links"
	case BreakMoved:
		return "break moved"
	default:
		return "unknown"
	}
}

// CorruptionError describes misuse detected while validating a handle or
// growing the arena. Free and Realloc panic with it.
type CorruptionError struct {
	Kind   CorruptionKind
	Ref    Ref
	Detail string
}

func (e *CorruptionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("heap: %s at ref %#x", e.Kind, uint64(e.Ref))
	}
	return fmt.Sprintf("heap: %s at ref %#x: %s", e.Kind, uint64(e.Ref), e.Detail)
}

// Unwrap exposes ErrCorrupt, plus ErrBadRef for foreign handles.
func (e *CorruptionError) Unwrap() []error {
	if e.Kind == ForeignRef {
		return []error{ErrCorrupt, ErrBadRef}
	}
	return []error{ErrCorrupt}
}

func corruption(kind CorruptionKind, ref Ref, format string, args ...any) *CorruptionError {
	return &CorruptionError{Kind: kind, Ref: ref, Detail: fmt.Sprintf(format, args...)}
}
