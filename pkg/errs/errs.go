// Package errs defines the shared error taxonomy for the PHR core.
// Services return these typed errors; handlers translate them to HTTP
// status codes with errors.As.
package errs

import (
	"fmt"
	"time"
)

// Authorization denial reason codes. These are stable and surface verbatim
// in API responses and audit entries.
const (
	ReasonNoActiveConsent = "NO_ACTIVE_CONSENT"
	ReasonForbidden       = "FORBIDDEN"
	ReasonNotOwner        = "NOT_OWNER"
)

// ValidationError indicates malformed or missing input. The caller can
// recover by correcting the request.
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

func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError indicates that a consent, patient, record, or snapshot
// could not be resolved.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ExpiredError indicates that a snapshot or consent window has lapsed.
type ExpiredError struct {
	Resource  string
	ExpiredAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s expired at %s", e.Resource, e.ExpiredAt.Format(time.RFC3339))
}

func NewExpired(resource string, at time.Time) *ExpiredError {
	return &ExpiredError{Resource: resource, ExpiredAt: at}
}

// AuthorizationError indicates that the actor lacks a valid grant or
// self-access right. Reason is one of the Reason* constants.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "access denied: " + e.Reason
}

func NewAuthorization(reason string) *AuthorizationError {
	return &AuthorizationError{Reason: reason}
}
