package harness

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ExecuteStep performs one step against d.
//
// Expect steps check each field that is set, in the order text, contains,
// value, visible, and fail on the first mismatch. An expectation of
// visible: false also holds when the element is absent.
func ExecuteStep(ctx context.Context, d Driver, step Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch step.Action() {
	case "open":
		return d.Open(ctx, step.Open)
	case "fill":
		value := ""
		if step.Value != nil {
			value = *step.Value
		}
		return d.Fill(ctx, step.Fill, step.Nth, value)
	case "click":
		return d.Click(ctx, step.Click, step.Nth)
	case "expect":
		return evaluateExpect(ctx, d, step)
	}
	return fmt.Errorf("step has no action")
}

func evaluateExpect(ctx context.Context, d Driver, step Step) error {
	n := step.Expect

	if step.Visible != nil && !*step.Visible {
		visible, err := d.Visible(ctx, n, step.Nth)
		if err != nil && !IsLocatorResolutionFailure(err) {
			return err
		}
		if visible {
			return &AssertionError{Name: n, Check: "visible", Want: "false", Got: "true"}
		}
		if err != nil {
			// Absent; any further checks cannot hold.
			if step.Text != nil || step.Contains != "" || step.Value != nil {
				return err
			}
			return nil
		}
	}

	if step.Text != nil || step.Contains != "" {
		got, err := d.Text(ctx, n, step.Nth)
		if err != nil {
			return err
		}
		if step.Text != nil {
			want := collapseSpace(*step.Text)
			if got != want {
				return &AssertionError{Name: n, Check: "text", Want: want, Got: got}
			}
		}
		if step.Contains != "" && !strings.Contains(got, step.Contains) {
			return &AssertionError{Name: n, Check: "contains", Want: step.Contains, Got: got}
		}
	}

	if step.Value != nil {
		got, err := d.Value(ctx, n, step.Nth)
		if err != nil {
			return err
		}
		if got != *step.Value {
			return &AssertionError{Name: n, Check: "value", Want: *step.Value, Got: got}
		}
	}

	if step.Visible != nil && *step.Visible {
		visible, err := d.Visible(ctx, n, step.Nth)
		if err != nil {
			return err
		}
		if !visible {
			return &AssertionError{Name: n, Check: "visible", Want: "true", Got: strconv.FormatBool(visible)}
		}
	}
	return nil
}
