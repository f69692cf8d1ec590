package locator

import (
	"fmt"
	"strings"
)

// Direction selects which way a rename map is applied.
type Direction int

const (
	// ToDrifted rewrites canonical names to drifted names.
	ToDrifted Direction = iota + 1
	// ToCanonical rewrites drifted names back to canonical names.
	ToCanonical
)

// ParseDirection accepts "drifted" or "canonical".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drifted", "to-drifted", "drift":
		return ToDrifted, nil
	case "canonical", "to-canonical", "restore":
		return ToCanonical, nil
	}
	return 0, fmt.Errorf("invalid direction %q: must be drifted or canonical", s)
}

func (d Direction) String() string {
	switch d {
	case ToDrifted:
		return "drifted"
	case ToCanonical:
		return "canonical"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// MarshalText encodes the direction as "drifted" or "canonical".
func (d Direction) MarshalText() ([]byte, error) {
	if d != ToDrifted && d != ToCanonical {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts the same values as ParseDirection.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == ToDrifted {
		return ToCanonical
	}
	return ToDrifted
}

// MapEntry pairs a canonical name with its drifted replacement.
type MapEntry struct {
	Canonical Name `json:"canonical" yaml:"canonical"`
	Drifted   Name `json:"drifted" yaml:"drifted"`
}

// RenameMap is the bijection for one page.
type RenameMap struct {
	Page    Page       `json:"page" yaml:"page"`
	Entries []MapEntry `json:"entries" yaml:"entries"`
}

// Pair is a single substitution, already oriented for a direction.
type Pair struct {
	From Name `json:"from"`
	To   Name `json:"to"`
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.From, p.To)
}

// RenameMaps holds one validated RenameMap per page.
type RenameMaps struct {
	registry *Registry
	maps     map[Page]RenameMap
	order    []Page
}

var defaultMaps = []RenameMap{
	{
		Page: PageLogin,
		Entries: []MapEntry{
			{Canonical: EmailInput, Drifted: "email-field"},
			{Canonical: PasswordInput, Drifted: "password-field"},
			{Canonical: SubmitButton, Drifted: "login-button"},
		},
	},
	{
		Page: PageCart,
		Entries: []MapEntry{
			{Canonical: CartSummary, Drifted: "cart-icon"},
			{Canonical: CheckoutButton, Drifted: "checkout-btn"},
			{Canonical: CartCount, Drifted: "item-count"},
		},
	},
}

// DefaultRenameMaps returns the login and cart maps of the demo application,
// validated against Default().
func DefaultRenameMaps() *RenameMaps {
	rm, err := NewRenameMaps(Default(), defaultMaps...)
	if err != nil {
		panic(err)
	}
	return rm
}

// NewRenameMaps validates maps against reg and returns them.
//
// Validation fails fast with a *ConfigurationError when:
//   - a page is unknown to the registry or appears twice
//   - a canonical name is not registered on that page
//   - a canonical or drifted value is duplicated within the map
//   - a drifted name collides with any registered canonical name
//   - a name is syntactically invalid
func NewRenameMaps(reg *Registry, maps ...RenameMap) (*RenameMaps, error) {
	rm := &RenameMaps{
		registry: reg,
		maps:     make(map[Page]RenameMap, len(maps)),
	}

	for _, m := range maps {
		if err := validateMap(reg, m); err != nil {
			return nil, err
		}
		if _, dup := rm.maps[m.Page]; dup {
			return nil, &ConfigurationError{Page: m.Page, Reason: "rename map declared twice"}
		}
		entries := make([]MapEntry, len(m.Entries))
		copy(entries, m.Entries)
		rm.maps[m.Page] = RenameMap{Page: m.Page, Entries: entries}
		rm.order = append(rm.order, m.Page)
	}

	return rm, nil
}

func validateMap(reg *Registry, m RenameMap) error {
	known := false
	for _, p := range reg.Pages() {
		if p == m.Page {
			known = true
			break
		}
	}
	if !known {
		return &ConfigurationError{Page: m.Page, Reason: "unknown page"}
	}

	canon := make(map[Name]bool, len(m.Entries))
	drift := make(map[Name]bool, len(m.Entries))
	for i, e := range m.Entries {
		for _, n := range []Name{e.Canonical, e.Drifted} {
			if err := ValidateName(n); err != nil {
				return &ConfigurationError{Page: m.Page, Name: n, Reason: fmt.Sprintf("entries[%d]: %v", i, err)}
			}
		}

		entry, ok := reg.Lookup(e.Canonical)
		if !ok || entry.Page != m.Page {
			return &ConfigurationError{Page: m.Page, Name: e.Canonical, Reason: "canonical name not registered on page"}
		}
		if reg.Has(e.Drifted) {
			return &ConfigurationError{Page: m.Page, Name: e.Drifted, Reason: "drifted name collides with a canonical name"}
		}
		if canon[e.Canonical] {
			return &ConfigurationError{Page: m.Page, Name: e.Canonical, Reason: "duplicate canonical value"}
		}
		if drift[e.Drifted] {
			return &ConfigurationError{Page: m.Page, Name: e.Drifted, Reason: "duplicate drifted value"}
		}
		canon[e.Canonical] = true
		drift[e.Drifted] = true
	}
	return nil
}

// Registry returns the registry the maps were validated against.
func (rm *RenameMaps) Registry() *Registry {
	return rm.registry
}

// Pages returns the pages that have a rename map, in declaration order.
func (rm *RenameMaps) Pages() []Page {
	out := make([]Page, len(rm.order))
	copy(out, rm.order)
	return out
}

// Map returns a copy of the rename map for page.
func (rm *RenameMaps) Map(page Page) (RenameMap, error) {
	m, ok := rm.maps[page]
	if !ok {
		return RenameMap{}, &ConfigurationError{Page: page, Reason: "no rename map for page"}
	}
	entries := make([]MapEntry, len(m.Entries))
	copy(entries, m.Entries)
	return RenameMap{Page: page, Entries: entries}, nil
}

// Pairs returns the ordered substitutions for page in direction.
func (rm *RenameMaps) Pairs(page Page, dir Direction) ([]Pair, error) {
	m, ok := rm.maps[page]
	if !ok {
		return nil, &ConfigurationError{Page: page, Reason: "no rename map for page"}
	}

	pairs := make([]Pair, len(m.Entries))
	for i, e := range m.Entries {
		switch dir {
		case ToDrifted:
			pairs[i] = Pair{From: e.Canonical, To: e.Drifted}
		case ToCanonical:
			pairs[i] = Pair{From: e.Drifted, To: e.Canonical}
		default:
			return nil, &ConfigurationError{Page: page, Reason: fmt.Sprintf("invalid direction %v", dir)}
		}
	}
	return pairs, nil
}

// Translate maps a single name in direction. Names without an entry are
// returned unchanged with ok=false.
func (rm *RenameMaps) Translate(page Page, n Name, dir Direction) (Name, bool) {
	m, exists := rm.maps[page]
	if !exists {
		return n, false
	}
	for _, e := range m.Entries {
		if dir == ToDrifted && e.Canonical == n {
			return e.Drifted, true
		}
		if dir == ToCanonical && e.Drifted == n {
			return e.Canonical, true
		}
	}
	return n, false
}

// IsDrifted reports whether n is a drifted name of any page.
func (rm *RenameMaps) IsDrifted(n Name) bool {
	for _, m := range rm.maps {
		for _, e := range m.Entries {
			if e.Drifted == n {
				return true
			}
		}
	}
	return false
}

// Plan renders the substitutions for page in direction, one per line.
//
//	login: canonical -> drifted
//	  email-input -> email-field
func (rm *RenameMaps) Plan(page Page, dir Direction) (string, error) {
	pairs, err := rm.Pairs(page, dir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s -> %s\n", page, dir.Reverse(), dir)
	for _, p := range pairs {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	return b.String(), nil
}
