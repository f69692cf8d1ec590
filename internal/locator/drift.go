package locator

import (
	"fmt"
	"sort"
	"strings"
)

// DriftState is the explicit, versioned mapping direction handed to the
// renderer. It is immutable: With returns a new state with Version+1.
// Pages absent from the state render their markup as authored.
type DriftState struct {
	version    uint64
	directions map[Page]Direction
}

// NewDriftState returns an empty state at version 0.
func NewDriftState() DriftState {
	return DriftState{}
}

// With returns a copy of s where page renders in dir.
func (s DriftState) With(page Page, dir Direction) DriftState {
	next := DriftState{
		version:    s.version + 1,
		directions: make(map[Page]Direction, len(s.directions)+1),
	}
	for p, d := range s.directions {
		next.directions[p] = d
	}
	next.directions[page] = dir
	return next
}

// Version increases by one for every With call in the state's history.
func (s DriftState) Version() uint64 {
	return s.version
}

// Direction returns the direction for page and whether one is set.
func (s DriftState) Direction(page Page) (Direction, bool) {
	d, ok := s.directions[page]
	return d, ok
}

// Pages returns the pages with a direction set, sorted.
func (s DriftState) Pages() []Page {
	pages := make([]Page, 0, len(s.directions))
	for p := range s.directions {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })
	return pages
}

// String renders the state as "cart=drifted,login=canonical" in page order.
func (s DriftState) String() string {
	if len(s.directions) == 0 {
		return "as-authored"
	}
	pages := s.Pages()
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%s=%s", p, s.directions[p])
	}
	return strings.Join(parts, ",")
}

// ParseDriftState builds a state from "login" or "login=drifted" items.
// A bare page name means drifted.
func ParseDriftState(items []string) (DriftState, error) {
	s := NewDriftState()
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		pageStr, dirStr, hasDir := strings.Cut(item, "=")
		page, err := ParsePage(pageStr)
		if err != nil {
			return DriftState{}, err
		}
		dir := ToDrifted
		if hasDir {
			if dir, err = ParseDirection(dirStr); err != nil {
				return DriftState{}, err
			}
		}
		s = s.With(page, dir)
	}
	return s, nil
}
