// errors.go - Engine error types.
//
// The engine has exactly one failure mode: a record carrying a category
// outside the closed enumeration. That is a caller bug (the data-entry
// boundary validates raw input), so it is surfaced loudly rather than
// defaulted to zero.
package compensation

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is the sentinel for categories outside the
// enumeration. Use with errors.Is().
var ErrUnknownCategory = errors.New("unknown category")

// UnknownCategoryError carries the offending raw value.
type UnknownCategoryError struct {
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Value)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}
