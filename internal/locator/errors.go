package locator

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a bad or missing registry or rename-map entry,
// or an unknown page. It is fatal: callers abort before touching any file.
type ConfigurationError struct {
	// Page is the affected page, if known.
	Page Page

	// Name is the offending locator name, if any.
	Name Name

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	switch {
	case e.Page != "" && e.Name != "":
		return fmt.Sprintf("configuration error: %s (page=%s, name=%s)", e.Reason, e.Page, e.Name)
	case e.Page != "":
		return fmt.Sprintf("configuration error: %s (page=%s)", e.Reason, e.Page)
	case e.Name != "":
		return fmt.Sprintf("configuration error: %s (name=%s)", e.Reason, e.Name)
	}
	return "configuration error: " + e.Reason
}

// IsConfigurationError returns true if err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
