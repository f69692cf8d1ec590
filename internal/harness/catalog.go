package harness

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/roach88/driftbench/internal/locator"
)

//go:embed scenarios/*.yaml
var catalogFS embed.FS

// LoadCatalog returns the built-in scenarios sorted by file name.
func LoadCatalog(reg *locator.Registry) ([]*Scenario, error) {
	names, err := fs.Glob(catalogFS, "scenarios/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		data, err := catalogFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		s, err := ParseScenario(data, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		scenarios = append(scenarios, s)
	}
	if err := checkUniqueNames(scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// Select returns the scenarios whose names are listed, in catalog order.
// An empty list selects everything. Unknown names are an error.
func Select(scenarios []*Scenario, names []string) ([]*Scenario, error) {
	if len(names) == 0 {
		return scenarios, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*Scenario
	for _, s := range scenarios {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown scenarios: %v", missing)
	}
	return out, nil
}
