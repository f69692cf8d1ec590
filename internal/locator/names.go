package locator

import (
	"fmt"
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Attribute is the markup attribute that carries a locator name.
const Attribute = "data-testid"

// Page identifies a page namespace of the demo application.
type Page string

const (
	PageLogin Page = "login"
	PageCart  Page = "cart"
)

// Name is a locator value. It is the only way tests address an element.
type Name string

// Canonical login page names.
const (
	LoginForm          Name = "login-form"
	EmailInput         Name = "email-input"
	PasswordInput      Name = "password-input"
	SubmitButton       Name = "submit-button"
	ForgotPasswordLink Name = "forgot-password-link"
	LoginError         Name = "login-error"
)

// Canonical cart page names.
const (
	CartSummary      Name = "cart-summary"
	CartWelcome      Name = "cart-welcome"
	CartItem         Name = "cart-item"
	RemoveItemButton Name = "remove-item-button"
	CartCount        Name = "cart-count"
	CartTotal        Name = "cart-total"
	CheckoutButton   Name = "checkout-button"
	CheckoutSuccess  Name = "checkout-success"
	CheckoutError    Name = "checkout-error"
	EmptyCart        Name = "empty-cart"
	ContinueShopping Name = "continue-shopping"
	LogoutButton     Name = "logout-button"
)

// namePattern is lowercase kebab-case: "email-input", "cart-count".
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateName checks that n is usable as an attribute value.
// Names must be NFC-normalised kebab-case so exact byte matching in the
// mutator and in the drivers agrees with what a browser would compare.
func ValidateName(n Name) error {
	s := string(n)
	if s == "" {
		return fmt.Errorf("locator name is empty")
	}
	if !norm.NFC.IsNormalString(s) {
		return fmt.Errorf("locator name %q is not NFC-normalised", s)
	}
	if !namePattern.MatchString(s) {
		return fmt.Errorf("locator name %q must be lowercase kebab-case", s)
	}
	return nil
}

// ParsePage converts a string to a known Page.
func ParsePage(s string) (Page, error) {
	switch Page(s) {
	case PageLogin, PageCart:
		return Page(s), nil
	}
	return "", &ConfigurationError{Page: Page(s), Reason: "unknown page"}
}

// Selector returns the CSS attribute selector for n.
func (n Name) Selector() string {
	return fmt.Sprintf("[%s=%q]", Attribute, string(n))
}

func (n Name) String() string { return string(n) }
