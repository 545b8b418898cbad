package persistence

import (
	"time"

	"github.com/example/academigold/internal/booking"
)

// User is the persisted shape of an account.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Role         string     `json:"role"`
	Department   string     `json:"department,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Space is the persisted shape of a laboratory or classroom. Schedule is keyed
// by pt-BR weekday label.
type Space struct {
	ID          int64                     `json:"id"`
	Code        string                    `json:"code"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Capacity    int                       `json:"capacity"`
	Location    string                    `json:"location"`
	Status      string                    `json:"status"`
	Type        string                    `json:"type"`
	Software    []string                  `json:"software"`
	Schedule    map[string][]booking.Slot `json:"schedule"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   *time.Time                `json:"updatedAt,omitempty"`
}

// Reservation is the persisted shape of a booking.
type Reservation struct {
	ID          int64          `json:"id"`
	SpaceID     int64          `json:"spaceId"`
	UserID      int64          `json:"userId"`
	Date        booking.Date   `json:"date"`
	Hours       []booking.Slot `json:"hours"`
	Purpose     string         `json:"purpose"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CancelledAt *time.Time     `json:"cancelledAt,omitempty"`
}

// SoftwareRequest is the persisted shape of a software installation request.
type SoftwareRequest struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	RequestedBy     int64      `json:"requestedBy"`
	RequestDate     time.Time  `json:"requestDate"`
	ApprovedDate    *time.Time `json:"approvedDate,omitempty"`
	ApprovedBy      *int64     `json:"approvedBy,omitempty"`
	RejectedDate    *time.Time `json:"rejectedDate,omitempty"`
	RejectedBy      *int64     `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

// Sequences holds the last id handed out per collection. Counters never move
// backwards, so deleting the newest record does not free its id.
type Sequences struct {
	Users        int64 `json:"users"`
	Spaces       int64 `json:"spaces"`
	Software     int64 `json:"software"`
	Reservations int64 `json:"reservations"`
}

// Dataset groups the four collections, used for seeding and snapshots.
type Dataset struct {
	Users        []User
	Spaces       []Space
	Software     []SoftwareRequest
	Reservations []Reservation
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt64Ptr(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneUser(user User) User {
	user.UpdatedAt = cloneTimePtr(user.UpdatedAt)
	return user
}

func cloneSpace(space Space) Space {
	space.Software = append([]string(nil), space.Software...)
	if space.Schedule != nil {
		schedule := make(map[string][]booking.Slot, len(space.Schedule))
		for day, slots := range space.Schedule {
			schedule[day] = append([]booking.Slot{}, slots...)
		}
		space.Schedule = schedule
	}
	space.UpdatedAt = cloneTimePtr(space.UpdatedAt)
	return space
}

func cloneReservation(reservation Reservation) Reservation {
	reservation.Hours = append([]booking.Slot(nil), reservation.Hours...)
	reservation.CompletedAt = cloneTimePtr(reservation.CompletedAt)
	reservation.CancelledAt = cloneTimePtr(reservation.CancelledAt)
	return reservation
}

func cloneSoftware(request SoftwareRequest) SoftwareRequest {
	request.ApprovedDate = cloneTimePtr(request.ApprovedDate)
	request.ApprovedBy = cloneInt64Ptr(request.ApprovedBy)
	request.RejectedDate = cloneTimePtr(request.RejectedDate)
	request.RejectedBy = cloneInt64Ptr(request.RejectedBy)
	return request
}
