package authz

import (
	"errors"
	"fmt"
	"net/http"
)

// DeniedError carries a deny decision up to the transport layer.
type DeniedError struct {
	Decision Decision
}

// Deny wraps d as an error, or returns nil when d is an allow.
func Deny(d Decision) error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Decision: d}
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("authz: %s denied: %s", Key(e.Decision.Kind, e.Decision.Action), e.Decision.Reason)
}

// HTTPStatus returns the status code for the denial.
func (e *DeniedError) HTTPStatus() int {
	if e.Decision.Reason == ReasonUnknownAction {
		return http.StatusBadRequest
	}
	return http.StatusForbidden
}

// IsDenied reports whether err is or wraps a DeniedError.
func IsDenied(err error) bool {
	var d *DeniedError
	return errors.As(err, &d)
}
