package policy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authorization taxonomy. Unauthenticated and
// Forbidden are terminal for a request and are never retried. NotFound is
// deliberately returned both when a resource is absent and when it exists
// under another tenant, so responses never leak existence across tenants.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// ValidationError reports malformed input to a mutation. The reason is safe
// to return to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid constructs a ValidationError for a named field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
