package format

// State is the provenance tag stored in every block header. It is sanity
// metadata used to catch double releases and foreign handles; it carries no
// checksum and is not a security feature.
type State uint32

const (
	// StateInvalid is the zero value; a header carrying it was never written
	// by the engine.
	StateInvalid State = 0
	// StateFresh marks a block created by growing the arena.
	StateFresh State = 1
	// StateReused marks a block handed out again from a free (possibly split) block.
	StateReused State = 2
	// StateFree marks a block eligible for reuse.
	StateFree State = 3
)

// Valid reports whether s is one of the three named variants.
func (s State) Valid() bool {
	return s == StateFresh || s == StateReused || s == StateFree
}

// Allocated reports whether s is one of the two currently-allocated tags.
func (s State) Allocated() bool {
	return s == StateFresh || s == StateReused
}

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateReused:
		return "reused"
	case StateFree:
		return "free"
	default:
		return "invalid"
	}
}
