package harness

import (
	"github.com/roach88/driftbench/internal/locator"
)

// Heal returns a copy of s with every locator rewritten to its drifted
// name, as a healing tool would after a refactor. Only names of the listed
// pages are rewritten; with no pages, every mapped page is.
func Heal(s *Scenario, maps *locator.RenameMaps, pages ...locator.Page) *Scenario {
	if len(pages) == 0 {
		pages = maps.Pages()
	}
	include := make(map[locator.Page]bool, len(pages))
	for _, p := range pages {
		include[p] = true
	}

	heal := func(steps []Step) []Step {
		if steps == nil {
			return nil
		}
		out := make([]Step, len(steps))
		for i, step := range steps {
			out[i] = step
			n := step.Locator()
			if n == "" {
				continue
			}
			entry, ok := maps.Registry().Lookup(n)
			if !ok || !include[entry.Page] {
				continue
			}
			to, ok := maps.Translate(entry.Page, n, locator.ToDrifted)
			if !ok {
				continue
			}
			switch {
			case step.Fill != "":
				out[i].Fill = to
			case step.Click != "":
				out[i].Click = to
			default:
				out[i].Expect = to
			}
		}
		return out
	}

	return &Scenario{
		Name:        s.Name,
		Description: s.Description,
		Setup:       heal(s.Setup),
		Steps:       heal(s.Steps),
	}
}

// HealAll applies Heal to every scenario.
func HealAll(scenarios []*Scenario, maps *locator.RenameMaps, pages ...locator.Page) []*Scenario {
	out := make([]*Scenario, len(scenarios))
	for i, s := range scenarios {
		out[i] = Heal(s, maps, pages...)
	}
	return out
}
