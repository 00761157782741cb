package rope

import (
	"errors"
	"fmt"
)

// ErrBrokenInvariant indicates a corrupted tree: a node without both children,
// a stale weight cache or a leaf whose bounds fall outside its buffer. Operations
// that hit one panic with an error wrapping this value; Validate returns it.
var ErrBrokenInvariant = errors.New("rope: broken invariant")

// invariantError builds an error wrapping ErrBrokenInvariant.
func invariantError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBrokenInvariant, fmt.Sprintf(format, args...))
}

// invariant panics with an invariantError. A broken tree is a programming
// error; carrying on would return wrong text.
func invariant(format string, args ...any) {
	panic(invariantError(format, args...))
}
