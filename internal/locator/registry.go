package locator

import "fmt"

// Role is the logical purpose of an element on its page, e.g. "email field".
type Role string

// Roles used by the demo application.
const (
	RoleForm            Role = "form"
	RoleEmailField      Role = "email field"
	RolePasswordField   Role = "password field"
	RoleSubmitControl   Role = "submit control"
	RoleForgotLink      Role = "forgot password link"
	RoleValidation      Role = "validation message"
	RoleSummary         Role = "summary panel"
	RoleGreeting        Role = "greeting"
	RoleItemRow         Role = "item row"
	RoleRemoveControl   Role = "remove control"
	RoleItemCount       Role = "item count"
	RoleTotalPrice      Role = "total price"
	RoleCheckoutControl Role = "checkout control"
	RoleConfirmation    Role = "checkout confirmation"
	RoleRejection       Role = "checkout rejection"
	RoleEmptyNotice     Role = "empty notice"
	RoleContinueLink    Role = "continue link"
	RoleLogoutControl   Role = "logout control"
)

// Entry binds a canonical name to its page and role.
type Entry struct {
	Page Page `json:"page" yaml:"page"`
	Name Name `json:"name" yaml:"name"`
	Role Role `json:"role" yaml:"role"`
}

// Registry is an immutable table of canonical locator names.
// Build one with NewRegistry or use Default.
type Registry struct {
	pages   []Page
	entries map[Page][]Entry
	byName  map[Name]Entry
}

var defaultEntries = []Entry{
	{PageLogin, LoginForm, RoleForm},
	{PageLogin, EmailInput, RoleEmailField},
	{PageLogin, PasswordInput, RolePasswordField},
	{PageLogin, SubmitButton, RoleSubmitControl},
	{PageLogin, ForgotPasswordLink, RoleForgotLink},
	{PageLogin, LoginError, RoleValidation},

	{PageCart, CartSummary, RoleSummary},
	{PageCart, CartWelcome, RoleGreeting},
	{PageCart, CartItem, RoleItemRow},
	{PageCart, RemoveItemButton, RoleRemoveControl},
	{PageCart, CartCount, RoleItemCount},
	{PageCart, CartTotal, RoleTotalPrice},
	{PageCart, CheckoutButton, RoleCheckoutControl},
	{PageCart, CheckoutSuccess, RoleConfirmation},
	{PageCart, CheckoutError, RoleRejection},
	{PageCart, EmptyCart, RoleEmptyNotice},
	{PageCart, ContinueShopping, RoleContinueLink},
	{PageCart, LogoutButton, RoleLogoutControl},
}

var defaultRegistry = mustRegistry(defaultEntries)

// Default returns the registry of the demo application.
func Default() *Registry {
	return defaultRegistry
}

func mustRegistry(entries []Entry) *Registry {
	r, err := NewRegistry(entries)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry builds a registry from entries, preserving their order.
// Names must be valid and unique across all pages; roles must be unique
// within a page.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[Page][]Entry),
		byName:  make(map[Name]Entry),
	}
	roles := make(map[Page]map[Role]bool)

	for _, e := range entries {
		if _, err := ParsePage(string(e.Page)); err != nil {
			return nil, err
		}
		if err := ValidateName(e.Name); err != nil {
			return nil, &ConfigurationError{Page: e.Page, Name: e.Name, Reason: err.Error()}
		}
		if prev, ok := r.byName[e.Name]; ok {
			return nil, &ConfigurationError{
				Page:   e.Page,
				Name:   e.Name,
				Reason: fmt.Sprintf("duplicate locator name (already registered on page %s)", prev.Page),
			}
		}
		if roles[e.Page] == nil {
			roles[e.Page] = make(map[Role]bool)
			r.pages = append(r.pages, e.Page)
		}
		if roles[e.Page][e.Role] {
			return nil, &ConfigurationError{Page: e.Page, Name: e.Name, Reason: fmt.Sprintf("duplicate role %q", e.Role)}
		}
		roles[e.Page][e.Role] = true

		r.entries[e.Page] = append(r.entries[e.Page], e)
		r.byName[e.Name] = e
	}
	return r, nil
}

// Pages returns the pages in registration order.
func (r *Registry) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}

// Entries returns the entries of a page in registration order.
func (r *Registry) Entries(page Page) []Entry {
	out := make([]Entry, len(r.entries[page]))
	copy(out, r.entries[page])
	return out
}

// Names returns the canonical names of a page in registration order.
func (r *Registry) Names(page Page) []Name {
	entries := r.entries[page]
	out := make([]Name, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Has reports whether n is a registered canonical name.
func (r *Registry) Has(n Name) bool {
	_, ok := r.byName[n]
	return ok
}

// Lookup returns the entry for a canonical name.
func (r *Registry) Lookup(n Name) (Entry, bool) {
	e, ok := r.byName[n]
	return e, ok
}

// ByRole returns the canonical name playing role on page.
func (r *Registry) ByRole(page Page, role Role) (Name, error) {
	if _, ok := r.entries[page]; !ok {
		return "", &ConfigurationError{Page: page, Reason: "unknown page"}
	}
	for _, e := range r.entries[page] {
		if e.Role == role {
			return e.Name, nil
		}
	}
	return "", &ConfigurationError{Page: page, Reason: fmt.Sprintf("no locator for role %q", role)}
}
