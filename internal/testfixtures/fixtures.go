package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/academigold/internal/booking"
	"github.com/example/academigold/internal/persistence"
	"github.com/example/academigold/internal/persistence/memory"
)

var (
	userCounter        int64
	spaceCounter       int64
	reservationCounter int64
	softwareCounter    int64
)

// referenceTime is a Monday morning before the first hour slot.
var referenceTime = time.Date(2024, time.September, 9, 6, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime.
func ReferenceDate() booking.Date {
	return booking.DateOf(referenceTime)
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user.
type UserOption func(*persistence.User)

// NewUser returns a deterministic professor with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddInt64(&userCounter, 1)
	user := persistence.User{
		ID:        1000 + idx,
		Name:      fmt.Sprintf("Professor %03d", idx),
		Email:     fmt.Sprintf("professor-%03d@academigold.test", idx),
		Role:      "professor",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the user id.
func WithUserID(id int64) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// AsAdmin grants the admin role.
func AsAdmin() UserOption {
	return func(u *persistence.User) { u.Role = "admin" }
}

// WithEmail overrides the email address.
func WithEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithPasswordHash stores an already hashed password.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// ----------------------------- Space fixtures ----------------------------

// SpaceOption configures the generated space.
type SpaceOption func(*persistence.Space)

// NewSpace returns an active laboratory offering 07:00 to 11:00 on weekdays.
func NewSpace(opts ...SpaceOption) persistence.Space {
	idx := atomic.AddInt64(&spaceCounter, 1)
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	space := persistence.Space{
		ID:        1000 + idx,
		Code:      fmt.Sprintf("FIX%03d", idx),
		Name:      fmt.Sprintf("Laboratório %03d", idx),
		Capacity:  30,
		Location:  "Bloco F",
		Status:    "active",
		Type:      "laboratory",
		Software:  []string{},
		Schedule:  booking.UniformSchedule(booking.HourRange(7, 12), weekdays...).Labels(),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&space)
	}
	return space
}

// WithSpaceID overrides the space id.
func WithSpaceID(id int64) SpaceOption {
	return func(s *persistence.Space) { s.ID = id }
}

// WithCode overrides the space code.
func WithCode(code string) SpaceOption {
	return func(s *persistence.Space) { s.Code = code }
}

// Inactive marks the space as not accepting reservations.
func Inactive() SpaceOption {
	return func(s *persistence.Space) { s.Status = "inactive" }
}

// WithSchedule replaces the weekly template.
func WithSchedule(schedule booking.Schedule) SpaceOption {
	return func(s *persistence.Space) { s.Schedule = schedule.Labels() }
}

// -------------------------- Reservation fixtures -------------------------

// ReservationOption configures the generated reservation.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a confirmed reservation of 08:00 on ReferenceDate.
func NewReservation(spaceID, userID int64, opts ...ReservationOption) persistence.Reservation {
	idx := atomic.AddInt64(&reservationCounter, 1)
	reservation := persistence.Reservation{
		ID:        1000 + idx,
		SpaceID:   spaceID,
		UserID:    userID,
		Date:      ReferenceDate(),
		Hours:     booking.HourRange(8, 9),
		Purpose:   fmt.Sprintf("Aula %03d", idx),
		Status:    "confirmed",
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// OnDate moves the reservation to another date.
func OnDate(date booking.Date) ReservationOption {
	return func(r *persistence.Reservation) { r.Date = date }
}

// AtHours replaces the reserved hour slots.
func AtHours(hours ...booking.Slot) ReservationOption {
	return func(r *persistence.Reservation) { r.Hours = append([]booking.Slot(nil), hours...) }
}

// WithReservationStatus overrides the lifecycle status.
func WithReservationStatus(status string) ReservationOption {
	return func(r *persistence.Reservation) { r.Status = status }
}

// --------------------------- Software fixtures ---------------------------

// SoftwareOption configures the generated software request.
type SoftwareOption func(*persistence.SoftwareRequest)

// NewSoftware returns a pending free software request.
func NewSoftware(requestedBy int64, opts ...SoftwareOption) persistence.SoftwareRequest {
	idx := atomic.AddInt64(&softwareCounter, 1)
	request := persistence.SoftwareRequest{
		ID:          1000 + idx,
		Name:        fmt.Sprintf("Ferramenta %03d", idx),
		Version:     "1.0",
		Category:    "Desenvolvimento",
		Type:        "free",
		Status:      "pending",
		RequestedBy: requestedBy,
		RequestDate: referenceTime,
	}
	for _, opt := range opts {
		opt(&request)
	}
	return request
}

// WithSoftwareStatus overrides the review status.
func WithSoftwareStatus(status string) SoftwareOption {
	return func(r *persistence.SoftwareRequest) { r.Status = status }
}

// -------------------------------- Stores ---------------------------------

// NewMemoryStore opens a store over in-memory documents holding exactly data.
// The store is closed when the test ends.
func NewMemoryStore(tb testing.TB, data persistence.Dataset) *persistence.Store {
	tb.Helper()
	return openStore(tb, memory.New(), data)
}

func openStore(tb testing.TB, docs persistence.Documents, data persistence.Dataset) *persistence.Store {
	tb.Helper()

	store, err := persistence.Open(context.Background(), docs, persistence.Options{
		Seed: func() persistence.Dataset { return data },
	})
	if err != nil {
		_ = docs.Close()
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
