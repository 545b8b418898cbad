package application

import (
	"context"
	"errors"

	"github.com/example/academigold/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	// UpdateUser replaces the user; a nil passwordHash keeps the stored one.
	UpdateUser(ctx context.Context, user User, passwordHash *string) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]User, error)
}

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

// SpaceRepository captures the persistence operations needed by the space service.
type SpaceRepository interface {
	CreateSpace(ctx context.Context, space Space) (Space, error)
	GetSpace(ctx context.Context, id int64) (Space, error)
	UpdateSpace(ctx context.Context, space Space) (Space, error)
	DeleteSpace(ctx context.Context, id int64) error
	ListSpaces(ctx context.Context) ([]Space, error)
}

// SpaceCatalog exposes space lookup operations.
type SpaceCatalog interface {
	GetSpace(ctx context.Context, id int64) (Space, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

// ReservationRepository captures the persistence operations needed by the reservation service.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
}

// SoftwareRepository captures the persistence operations needed by the software service.
type SoftwareRepository interface {
	CreateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error)
	GetSoftware(ctx context.Context, id int64) (SoftwareRequest, error)
	UpdateSoftware(ctx context.Context, request SoftwareRequest) (SoftwareRequest, error)
	DeleteSoftware(ctx context.Context, id int64) error
	ListSoftware(ctx context.Context) ([]SoftwareRequest, error)
}

// SnapshotSource returns every collection in one consistent read.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Dataset, error)
}

// mapRepoError translates persistence errors into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("record", "record violates a storage constraint")
		return vErr
	}
	return err
}
