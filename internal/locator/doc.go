// Package locator holds the canonical locator registry and the rename maps
// used to simulate a frontend refactor.
//
// Every interactive or observable element of the demo application carries a
// single data-testid attribute. Its value is a Name from this package. Names
// are grouped by Page and addressed by logical Role, so the registry and the
// end-to-end suite share one typed vocabulary instead of free-form strings.
//
// # Rename Maps
//
// A RenameMap is a bijection between canonical names and drifted names for
// one page. Pairs(page, direction) returns the ordered substitutions that the
// mutator applies:
//
//	maps := locator.DefaultRenameMaps()
//	pairs, err := maps.Pairs(locator.PageLogin, locator.ToDrifted)
//	// email-input -> email-field, password-input -> password-field, ...
//
// Maps are validated when they are built. Duplicate values within one
// direction, names unknown to the registry, and drifted names that collide
// with registry names all fail with a *ConfigurationError.
//
// # Drift State
//
// DriftState is the explicit, versioned "current mapping direction" handed
// to the renderer. Pages absent from the state render as authored.
package locator
