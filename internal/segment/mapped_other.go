//go:build !unix

package segment

// New returns a Fixed segment when anonymous mappings are not available.
func New(limit int) (Segment, error) {
	return NewFixed(limit)
}
