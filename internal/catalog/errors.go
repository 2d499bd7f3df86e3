package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a catalog lookup legitimately matches nothing.
// It is an expected outcome, not a data-quality failure.
var ErrNotFound = errors.New("no matching contract")

// FormatError reports a payload or record that cannot be parsed as structured
// catalog data. Unlike ErrNotFound it is fatal to the stage that hit it and
// must propagate.
type FormatError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s catalog: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s catalog: %s", e.Provider, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }
