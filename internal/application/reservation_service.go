package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/academigold/internal/booking"
)

const tracerName = "github.com/example/academigold/internal/application"

// ReservationObserver receives lifecycle events, typically to feed metrics.
type ReservationObserver interface {
	ReservationCreated(ctx context.Context, reservation Reservation)
	ReservationConflict(ctx context.Context, kind booking.ConflictKind)
	ReservationTransitioned(ctx context.Context, from, to ReservationStatus)
}

type noopObserver struct{}

func (noopObserver) ReservationCreated(context.Context, Reservation)                               {}
func (noopObserver) ReservationConflict(context.Context, booking.ConflictKind)                     {}
func (noopObserver) ReservationTransitioned(context.Context, ReservationStatus, ReservationStatus) {}

// ReservationService owns the reservation lifecycle: availability, conflict
// detection, creation, completion and cancellation.
type ReservationService struct {
	reservations ReservationRepository
	spaces       SpaceCatalog
	users        UserDirectory
	now          func() time.Time
	observer     ReservationObserver
	tracer       trace.Tracer
	logger       *slog.Logger

	// mu makes the conflict check and the insert a single step.
	mu sync.Mutex
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, spaces SpaceCatalog, users UserDirectory, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, spaces, users, now, nil)
}

// NewReservationServiceWithLogger wires dependencies for reservation operations with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, spaces SpaceCatalog, users UserDirectory, now func() time.Time, logger *slog.Logger) *ReservationService {
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		spaces:       spaces,
		users:        users,
		now:          now,
		observer:     noopObserver{},
		tracer:       otel.Tracer(tracerName),
		logger:       defaultLogger(logger),
	}
}

// SetObserver registers the lifecycle observer. A nil observer disables notifications.
func (s *ReservationService) SetObserver(observer ReservationObserver) {
	if observer == nil {
		observer = noopObserver{}
	}
	s.observer = observer
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

func (s *ReservationService) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ReservationService."+operation, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
	}
	span.End()
}

func (s *ReservationService) ready() error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	if s.spaces == nil {
		return fmt.Errorf("space catalog not configured")
	}
	return nil
}

// AvailableSlots returns the hour slots of the space still free on date, in
// template order. Inactive spaces have no available slots.
func (s *ReservationService) AvailableSlots(ctx context.Context, spaceID int64, date booking.Date) (slots []booking.Slot, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := s.startSpan(ctx, "AvailableSlots",
		attribute.Int64("space_id", spaceID),
		attribute.String("date", date.String()),
	)
	defer func() { endSpan(span, err) }()

	if date.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		err = vErr
		return
	}

	var space Space
	space, err = s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if space.Status != SpaceActive {
		return []booking.Slot{}, nil
	}

	var existing []booking.Booking
	existing, err = s.bookings(ctx)
	if err != nil {
		return
	}

	slots = booking.AvailableSlots(space.Schedule, space.ID, date, existing)
	return
}

// CheckConflict validates the proposed reservation and reports the first
// conflict as a *ConflictError, or nil when it could be booked.
func (s *ReservationService) CheckConflict(ctx context.Context, params CreateReservationParams) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := s.startSpan(ctx, "CheckConflict", attribute.Int64("space_id", params.Input.SpaceID))
	defer func() { endSpan(span, err) }()

	var candidate Reservation
	candidate, err = s.prepare(ctx, params)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflictLocked(ctx, candidate)
}

// CreateReservation validates, checks for conflicts and persists a confirmed reservation.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := s.startSpan(ctx, "CreateReservation",
		attribute.Int64("space_id", params.Input.SpaceID),
		attribute.Int64("principal_id", params.Principal.UserID),
	)
	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"space_id", params.Input.SpaceID,
		"date", params.Input.Date,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	var candidate Reservation
	candidate, err = s.prepare(ctx, params)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.conflictLocked(ctx, candidate); err != nil {
		return
	}

	candidate.Status = ReservationConfirmed
	candidate.CreatedAt = s.now()

	reservation, err = s.reservations.CreateReservation(ctx, candidate)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	s.observer.ReservationCreated(ctx, reservation)
	return
}

// CompleteReservation marks a confirmed reservation completed once its last
// hour slot has ended.
func (s *ReservationService) CompleteReservation(ctx context.Context, principal Principal, reservationID int64) (Reservation, error) {
	return s.transition(ctx, "CompleteReservation", principal, reservationID, ReservationCompleted)
}

// CancelReservation cancels a confirmed reservation, releasing its slots.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID int64) (Reservation, error) {
	return s.transition(ctx, "CancelReservation", principal, reservationID, ReservationCancelled)
}

func (s *ReservationService) transition(ctx context.Context, operation string, principal Principal, reservationID int64, to ReservationStatus) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := s.startSpan(ctx, operation,
		attribute.Int64("reservation_id", reservationID),
		attribute.String("to", string(to)),
	)
	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to change reservation status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", reservation.Status).InfoContext(ctx, "reservation status changed")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, err = s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !principal.IsAdmin() && reservation.UserID != principal.UserID {
		reservation = Reservation{}
		err = ErrUnauthorized
		return
	}

	reservation, err = s.applyTransitionLocked(ctx, reservation, to, s.now())
	return
}

func (s *ReservationService) applyTransitionLocked(ctx context.Context, reservation Reservation, to ReservationStatus, now time.Time) (Reservation, error) {
	from := reservation.Status
	if !from.CanTransitionTo(to) {
		return reservation, &InvalidTransitionError{From: string(from), To: string(to), Reason: "only confirmed reservations can change status"}
	}

	switch to {
	case ReservationCompleted:
		if end := reservation.Booking().End(now.Location()); now.Before(end) {
			return reservation, &InvalidTransitionError{
				From:   string(from),
				To:     string(to),
				Reason: "reservation ends at " + end.Format("2006-01-02 15:04"),
			}
		}
		reservation.CompletedAt = &now
	case ReservationCancelled:
		reservation.CancelledAt = &now
	}
	reservation.Status = to

	updated, err := s.reservations.UpdateReservation(ctx, reservation)
	if err != nil {
		return reservation, mapRepoError(err)
	}

	s.observer.ReservationTransitioned(ctx, from, to)
	return updated, nil
}

// CompleteElapsed completes every confirmed reservation whose end has passed
// and returns how many were updated.
func (s *ReservationService) CompleteElapsed(ctx context.Context) (completed int, err error) {
	if err = s.ready(); err != nil {
		return
	}

	ctx, span := s.startSpan(ctx, "CompleteElapsed")
	logger := s.loggerWith(ctx, "CompleteElapsed")
	defer func() {
		span.SetAttributes(attribute.Int("completed", completed))
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to complete elapsed reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if completed > 0 {
			logger.With("completed", completed).InfoContext(ctx, "elapsed reservations completed")
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	var all []Reservation
	all, err = s.reservations.ListReservations(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	now := s.now()
	for _, reservation := range all {
		if reservation.Status != ReservationConfirmed || now.Before(reservation.Booking().End(now.Location())) {
			continue
		}
		if _, err = s.applyTransitionLocked(ctx, reservation, ReservationCompleted, now); err != nil {
			return
		}
		completed++
	}
	return
}

// GetReservation returns a reservation visible to the principal.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID int64) (Reservation, error) {
	if err := s.ready(); err != nil {
		return Reservation{}, err
	}
	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}
	if !principal.IsAdmin() && reservation.UserID != principal.UserID {
		return Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter, newest date
// first and, within a date, latest first hour first. Professors only see
// their own reservations.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	filter := params.Filter
	logger := s.loggerWith(ctx, "ListReservations", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if !params.Principal.IsAdmin() {
		if filter.UserID != 0 && filter.UserID != params.Principal.UserID {
			err = ErrUnauthorized
			return
		}
		filter.UserID = params.Principal.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		err = vErr
		return
	}

	var all []Reservation
	all, err = s.reservations.ListReservations(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	reservations = make([]Reservation, 0, len(all))
	for _, r := range all {
		if filter.UserID != 0 && r.UserID != filter.UserID {
			continue
		}
		if filter.SpaceID != 0 && r.SpaceID != filter.SpaceID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if !filter.Date.IsZero() && r.Date != filter.Date {
			continue
		}
		reservations = append(reservations, r)
	}

	sortReservations(reservations)
	return
}

func sortReservations(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c > 0
		}
		if ha, hb := firstHour(a.Hours), firstHour(b.Hours); ha != hb {
			return ha > hb
		}
		return a.ID > b.ID
	})
}

func firstHour(hours []booking.Slot) int {
	first := -1
	for _, slot := range hours {
		if h := slot.Hour(); h >= 0 && (first < 0 || h < first) {
			first = h
		}
	}
	return first
}

// prepare validates the request and returns the candidate reservation.
func (s *ReservationService) prepare(ctx context.Context, params CreateReservationParams) (Reservation, error) {
	input := params.Input
	vErr := &ValidationError{}

	userID := input.UserID
	if userID == 0 {
		userID = params.Principal.UserID
	}
	if userID != params.Principal.UserID && !params.Principal.IsAdmin() {
		return Reservation{}, ErrUnauthorized
	}

	var date booking.Date
	if strings.TrimSpace(input.Date) == "" {
		vErr.add("date", "date is required")
	} else if parsed, err := booking.ParseDate(input.Date); err != nil {
		vErr.add("date", "date is invalid")
	} else {
		date = parsed
	}

	hours := make([]booking.Slot, 0, len(input.Hours))
	if len(input.Hours) == 0 {
		vErr.add("hours", "at least one hour slot is required")
	}
	for _, label := range input.Hours {
		slot, err := booking.ParseSlot(label)
		if err != nil {
			vErr.add("hours", "hour slots must be on the hour")
			break
		}
		hours = append(hours, slot)
	}
	hours, _ = booking.NormalizeSlots(hours)

	purpose := strings.TrimSpace(input.Purpose)
	if purpose == "" {
		vErr.add("purpose", "purpose is required")
	}

	if input.SpaceID <= 0 {
		vErr.add("space_id", "space is required")
	}
	if userID <= 0 {
		vErr.add("user_id", "user is required")
	}
	if vErr.HasErrors() {
		return Reservation{}, vErr
	}

	if s.users != nil {
		if _, err := s.users.GetUser(ctx, userID); err != nil {
			if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
				vErr.add("user_id", "user does not exist")
				return Reservation{}, vErr
			}
			return Reservation{}, err
		}
	}

	space, err := s.spaces.GetSpace(ctx, input.SpaceID)
	if err != nil {
		if err = mapRepoError(err); errors.Is(err, ErrNotFound) {
			vErr.add("space_id", "space does not exist")
			return Reservation{}, vErr
		}
		return Reservation{}, err
	}
	if space.Status != SpaceActive {
		vErr.add("space_id", "space is inactive")
		return Reservation{}, vErr
	}

	offered := make(map[booking.Slot]struct{})
	for _, slot := range space.Schedule.For(date.Weekday()) {
		offered[slot] = struct{}{}
	}
	for _, slot := range hours {
		if _, ok := offered[slot]; !ok {
			vErr.add("hours", "hour slots must be within the space schedule")
			return Reservation{}, vErr
		}
	}

	return Reservation{
		SpaceID: space.ID,
		UserID:  userID,
		Date:    date,
		Hours:   hours,
		Purpose: purpose,
	}, nil
}

func (s *ReservationService) conflictLocked(ctx context.Context, candidate Reservation) error {
	existing, err := s.bookings(ctx)
	if err != nil {
		return err
	}

	conflict, found := booking.CheckConflict(existing, candidate.Booking())
	if !found {
		return nil
	}

	s.observer.ReservationConflict(ctx, conflict.Kind)

	cErr := &ConflictError{
		Kind:          conflict.Kind,
		SpaceID:       conflict.SpaceID,
		Slots:         conflict.Slots,
		ReservationID: conflict.WithBookingID,
	}
	if space, err := s.spaces.GetSpace(ctx, conflict.SpaceID); err == nil {
		cErr.SpaceName = space.Name
	}
	return cErr
}

func (s *ReservationService) bookings(ctx context.Context) ([]booking.Booking, error) {
	all, err := s.reservations.ListReservations(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	out := make([]booking.Booking, len(all))
	for i, r := range all {
		out[i] = r.Booking()
	}
	return out, nil
}
