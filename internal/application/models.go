package application

import (
	"time"

	"github.com/example/academigold/internal/booking"
)

// Role identifies what an account may do.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProfessor Role = "professor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleProfessor
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// SpaceStatus marks whether a space accepts reservations.
type SpaceStatus string

const (
	SpaceActive   SpaceStatus = "active"
	SpaceInactive SpaceStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s SpaceStatus) Valid() bool {
	return s == SpaceActive || s == SpaceInactive
}

// SpaceType distinguishes laboratories from classrooms.
type SpaceType string

const (
	SpaceLaboratory SpaceType = "laboratory"
	SpaceClassroom  SpaceType = "classroom"
)

// Valid reports whether t is a known type.
func (t SpaceType) Valid() bool {
	return t == SpaceLaboratory || t == SpaceClassroom
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// Holding reports whether a reservation in this state still claims its slots.
func (s ReservationStatus) Holding() bool {
	switch s {
	case ReservationConfirmed, ReservationCompleted:
		return true
	case ReservationCancelled:
		return false
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only confirmed reservations move; completed and cancelled are terminal.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationConfirmed:
		return next == ReservationCompleted || next == ReservationCancelled
	case ReservationCompleted, ReservationCancelled:
		return false
	}
	return false
}

// SoftwareStatus is the review state of a software request.
type SoftwareStatus string

const (
	SoftwarePending  SoftwareStatus = "pending"
	SoftwareApproved SoftwareStatus = "approved"
	SoftwareRejected SoftwareStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s SoftwareStatus) Valid() bool {
	switch s {
	case SoftwarePending, SoftwareApproved, SoftwareRejected:
		return true
	}
	return false
}

// SoftwareType is the licensing model of requested software.
type SoftwareType string

const (
	SoftwareFree        SoftwareType = "free"
	SoftwareProprietary SoftwareType = "proprietary"
)

// Valid reports whether t is a known type.
func (t SoftwareType) Valid() bool {
	return t == SoftwareFree || t == SoftwareProprietary
}

// DefaultRejectionReason is recorded when an administrator rejects without a reason.
const DefaultRejectionReason = "Sem motivo especificado"

// User represents an account exposed by the application services.
type User struct {
	ID         int64
	Name       string
	Email      string
	Role       Role
	Department string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Space represents a bookable laboratory or classroom.
type Space struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Capacity    int
	Location    string
	Status      SpaceStatus
	Type        SpaceType
	Software    []string
	Schedule    booking.Schedule
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// Reservation is a professor's claim on hour slots of a space on one date.
type Reservation struct {
	ID          int64
	SpaceID     int64
	UserID      int64
	Date        booking.Date
	Hours       []booking.Slot
	Purpose     string
	Status      ReservationStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Booking projects the reservation onto the slot model.
func (r Reservation) Booking() booking.Booking {
	return booking.Booking{
		ID:      r.ID,
		SpaceID: r.SpaceID,
		UserID:  r.UserID,
		Date:    r.Date,
		Hours:   r.Hours,
		Holding: r.Status.Holding(),
	}
}

// SoftwareRequest asks administrators to install software in the laboratories.
type SoftwareRequest struct {
	ID              int64
	Name            string
	Version         string
	Description     string
	Category        string
	Type            SoftwareType
	Status          SoftwareStatus
	RequestedBy     int64
	RequestDate     time.Time
	ApprovedDate    *time.Time
	ApprovedBy      *int64
	RejectedDate    *time.Time
	RejectedBy      *int64
	RejectionReason string
}

// Dataset is a consistent read of every collection.
type Dataset struct {
	Users        []User
	Spaces       []Space
	Software     []SoftwareRequest
	Reservations []Reservation
}

// SpaceInput captures caller provided space fields. Schedule is keyed by
// pt-BR weekday label with "HH:00" slot labels.
type SpaceInput struct {
	Code        string
	Name        string
	Description string
	Capacity    int
	Location    string
	Status      SpaceStatus
	Type        SpaceType
	Software    []string
	Schedule    map[string][]string
}

// CreateSpaceParams wraps the data required to create a space.
type CreateSpaceParams struct {
	Principal Principal
	Input     SpaceInput
}

// UpdateSpaceParams wraps the data required to update a space.
type UpdateSpaceParams struct {
	Principal Principal
	SpaceID   int64
	Input     SpaceInput
}

// SpaceFilter narrows space listings.
type SpaceFilter struct {
	Search     string
	Type       SpaceType
	ActiveOnly bool
}

// UserInput captures caller provided user attributes. An empty Password on
// update keeps the current one.
type UserInput struct {
	Name       string
	Email      string
	Role       Role
	Department string
	Password   string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    int64
	Input     UserInput
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	SpaceID int64
	// UserID defaults to the principal when zero.
	UserID  int64
	Date    string
	Hours   []string
	Purpose string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// ReservationFilter narrows reservation listings. Zero values match everything.
type ReservationFilter struct {
	UserID  int64
	SpaceID int64
	Status  ReservationStatus
	Date    booking.Date
}

// ListReservationsParams wraps the data required to list reservations.
type ListReservationsParams struct {
	Principal Principal
	Filter    ReservationFilter
}

// SoftwareInput captures caller provided software request fields.
type SoftwareInput struct {
	Name        string
	Version     string
	Description string
	Category    string
	Type        SoftwareType
}

// RequestSoftwareParams wraps the data required to file a software request.
type RequestSoftwareParams struct {
	Principal Principal
	Input     SoftwareInput
}

// RejectSoftwareParams wraps the data required to reject a software request.
type RejectSoftwareParams struct {
	Principal Principal
	RequestID int64
	Reason    string
}

// SoftwareFilter narrows software request listings.
type SoftwareFilter struct {
	Status      SoftwareStatus
	RequestedBy int64
}

// Session represents a signed session token issued to a user.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
