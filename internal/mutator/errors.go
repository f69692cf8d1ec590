package mutator

import (
	"errors"
	"fmt"

	"github.com/roach88/driftbench/internal/locator"
)

// IOError reports that a page source could not be read or written.
// It is surfaced to the caller and never retried automatically.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError returns true if err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// PartialMutationWarning records a pair whose substitution site was absent
// from every file of the page: neither the From nor the To name was found.
// The mutation continues with the remaining pairs.
type PartialMutationWarning struct {
	Page      locator.Page      `json:"page"`
	Direction locator.Direction `json:"direction"`
	Pair      locator.Pair      `json:"pair"`
}

func (w PartialMutationWarning) String() string {
	return fmt.Sprintf("partial mutation: %s not found on page %s (direction %s)", w.Pair.From, w.Page, w.Direction)
}
