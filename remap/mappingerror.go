package remap

import "fmt"

// MappingError indicates the remapper was asked to resolve a member
// reference whose owner class has a registered class mapping but whose
// member itself has none. Per spec.md §7 this is a warning, not a fatal
// error: the rewriter falls through and leaves the member name unmapped.
type MappingError struct {
	Owner  string
	Member string
	Kind   string // "method" or "field"
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("remap: no %s mapping for %s.%s (owner class is mapped; member left unmapped)", e.Kind, e.Owner, e.Member)
}
