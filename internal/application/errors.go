package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/academigold/internal/booking"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute such as an email or space code is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login data or a session token is rejected.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a proposed reservation collides with an existing one.
type ConflictError struct {
	Kind booking.ConflictKind
	// SpaceID and SpaceName identify the space holding the colliding reservation.
	SpaceID       int64
	SpaceName     string
	Slots         []booking.Slot
	ReservationID int64
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	labels := make([]string, len(c.Slots))
	for i, slot := range c.Slots {
		labels[i] = slot.String()
	}
	return fmt.Sprintf("reservation conflict %s in space %d at %s", c.Kind, c.SpaceID, strings.Join(labels, ", "))
}

// InvalidTransitionError reports a lifecycle change the current state does not allow.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("invalid transition from %s to %s: %s", e.From, e.To, e.Reason)
}
