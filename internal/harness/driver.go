package harness

import (
	"context"

	"github.com/roach88/driftbench/internal/locator"
)

// Driver is the browser automation boundary. Elements are addressed only
// by locator name and a zero-based index among matches. Methods that
// cannot resolve the locator return a *LocatorResolutionFailure.
type Driver interface {
	// Open navigates to path, relative to the application base URL.
	Open(ctx context.Context, path string) error

	// Fill replaces the value of a form control.
	Fill(ctx context.Context, n locator.Name, nth int, value string) error

	// Click activates an element: links navigate and submit buttons submit
	// their form.
	Click(ctx context.Context, n locator.Name, nth int) error

	// Text returns the element's text with whitespace collapsed.
	Text(ctx context.Context, n locator.Name, nth int) (string, error)

	// Value returns the current value of a form control.
	Value(ctx context.Context, n locator.Name, nth int) (string, error)

	// Visible reports whether the element is rendered visibly.
	Visible(ctx context.Context, n locator.Name, nth int) (bool, error)

	// Close releases the driver's resources.
	Close() error
}

// DriverFactory creates a fresh driver, with a fresh session, per scenario.
type DriverFactory func(ctx context.Context) (Driver, error)
