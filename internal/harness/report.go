package harness

import (
	"fmt"
	"io"
	"sort"
)

// WriteSummary writes one line per scenario followed by totals. With
// details set, failure messages are included; without, the output depends
// only on scenario outcomes and is stable across runs.
func WriteSummary(w io.Writer, r *Report, details bool) error {
	if _, err := fmt.Fprintf(w, "drift: %s\n", r.Drift); err != nil {
		return err
	}
	for _, res := range r.Results {
		if res.Pass {
			if _, err := fmt.Fprintf(w, "PASS %s\n", res.Scenario); err != nil {
				return err
			}
			continue
		}
		line := fmt.Sprintf("FAIL %s [%s] %s[%d] %s", res.Scenario, res.Kind, res.Phase, res.Step, res.Action)
		if res.Locator != "" {
			line += " " + string(res.Locator)
		}
		if details && res.Error != "" {
			line += ": " + res.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%d passed, %d failed\n", r.Passed(), r.Failed()); err != nil {
		return err
	}

	byKind := r.FailuresByKind()
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", k, byKind[FailureKind(k)]); err != nil {
			return err
		}
	}
	return nil
}
