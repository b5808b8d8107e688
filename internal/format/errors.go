package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a header offset or size that is not a multiple of Alignment.
	ErrMisaligned = errors.New("format: misaligned block")
	// ErrBadState indicates a header whose state tag is not one of the known variants.
	ErrBadState = errors.New("format: unknown state tag")
)
