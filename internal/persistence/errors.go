package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record or document does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique attribute is already taken by another record.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a record breaks a storage level constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
