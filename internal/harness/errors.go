package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/driftbench/internal/locator"
)

// FailureKind classifies why a scenario failed.
type FailureKind string

const (
	KindLocatorResolution FailureKind = "locator_resolution"
	KindAssertion         FailureKind = "assertion"
	KindExecution         FailureKind = "execution"
)

// LocatorResolutionFailure reports that a locator matched no element on
// the current page, or fewer elements than the requested index.
type LocatorResolutionFailure struct {
	Name    locator.Name
	Nth     int
	Matches int
	URL     string
}

// Error implements the error interface.
func (e *LocatorResolutionFailure) Error() string {
	if e.Matches > 0 {
		return fmt.Sprintf("locator %s: index %d out of range (%d matches) at %s", e.Name.Selector(), e.Nth, e.Matches, e.URL)
	}
	return fmt.Sprintf("locator %s: no element found at %s", e.Name.Selector(), e.URL)
}

// IsLocatorResolutionFailure returns true if err is, or wraps, a
// *LocatorResolutionFailure.
func IsLocatorResolutionFailure(err error) bool {
	var lrf *LocatorResolutionFailure
	return errors.As(err, &lrf)
}

// AssertionError reports an expectation that did not hold on a resolved
// element.
type AssertionError struct {
	Name  locator.Name
	Check string // "text", "contains", "value" or "visible"
	Want  string
	Got   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expect %s %s: want %q, got %q", e.Name, e.Check, e.Want, e.Got)
}

// IsAssertionError returns true if err is, or wraps, an *AssertionError.
func IsAssertionError(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Classify maps a step error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case IsLocatorResolutionFailure(err):
		return KindLocatorResolution
	case IsAssertionError(err):
		return KindAssertion
	default:
		return KindExecution
	}
}
