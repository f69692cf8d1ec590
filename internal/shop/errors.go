package shop

import (
	"errors"
	"fmt"
)

// MsgCredentialsRequired is shown when login is attempted without both fields.
const MsgCredentialsRequired = "Email and password are required"

// MsgEmptyCart is shown when checkout is attempted with no items.
const MsgEmptyCart = "Your cart is empty"

var (
	// ErrAlreadyLoggedIn is returned by Login on a logged-in session.
	ErrAlreadyLoggedIn = errors.New("already logged in")

	// ErrNotLoggedIn is returned by cart operations and Logout on a
	// logged-out session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrEmptyCart is returned by Checkout when the cart has no items.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError reports user input the session rejected.
// Message is the text displayed to the user.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s (field=%s)", e.Message, e.Field)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// IsValidationError returns true if err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
