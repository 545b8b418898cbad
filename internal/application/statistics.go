package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academigold/internal/booking"
)

// UserCounts summarizes the user collection.
type UserCounts struct {
	Total      int `json:"total"`
	Professors int `json:"professors"`
	Admins     int `json:"admins"`
}

// SpaceCounts summarizes the space collection.
type SpaceCounts struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Inactive     int `json:"inactive"`
	Laboratories int `json:"laboratories"`
	Classrooms   int `json:"classrooms"`
}

// SoftwareCounts summarizes the software request collection.
type SoftwareCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ReservationCounts summarizes reservations, globally or for one user.
type ReservationCounts struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// Overview combines every projection with the number of spaces still
// bookable on the reference date.
type Overview struct {
	Date            booking.Date      `json:"date"`
	Users           UserCounts        `json:"users"`
	Spaces          SpaceCounts       `json:"spaces"`
	Software        SoftwareCounts    `json:"software"`
	Reservations    ReservationCounts `json:"reservations"`
	SpacesAvailable int               `json:"spaces_available"`
}

// CountUsers counts users by role.
func CountUsers(users []User) UserCounts {
	var out UserCounts
	for _, u := range uniqueByID(users, func(u User) int64 { return u.ID }) {
		out.Total++
		switch u.Role {
		case RoleAdmin:
			out.Admins++
		case RoleProfessor:
			out.Professors++
		}
	}
	return out
}

// CountSpaces counts spaces by status and type.
func CountSpaces(spaces []Space) SpaceCounts {
	var out SpaceCounts
	for _, s := range uniqueByID(spaces, func(s Space) int64 { return s.ID }) {
		out.Total++
		switch s.Status {
		case SpaceActive:
			out.Active++
		case SpaceInactive:
			out.Inactive++
		}
		switch s.Type {
		case SpaceLaboratory:
			out.Laboratories++
		case SpaceClassroom:
			out.Classrooms++
		}
	}
	return out
}

// CountSoftware counts software requests by status.
func CountSoftware(requests []SoftwareRequest) SoftwareCounts {
	var out SoftwareCounts
	for _, r := range uniqueByID(requests, func(r SoftwareRequest) int64 { return r.ID }) {
		out.Total++
		switch r.Status {
		case SoftwarePending:
			out.Pending++
		case SoftwareApproved:
			out.Approved++
		case SoftwareRejected:
			out.Rejected++
		}
	}
	return out
}

// CountReservations counts reservations by status. A non-zero userID scopes
// the count to that user.
func CountReservations(reservations []Reservation, userID int64) ReservationCounts {
	var out ReservationCounts
	for _, r := range uniqueByID(reservations, func(r Reservation) int64 { return r.ID }) {
		if userID != 0 && r.UserID != userID {
			continue
		}
		out.Total++
		switch r.Status {
		case ReservationConfirmed:
			out.Confirmed++
		case ReservationCompleted:
			out.Completed++
		case ReservationCancelled:
			out.Cancelled++
		}
	}
	return out
}

// SpacesAvailableOn counts active spaces with at least one free slot on date.
func SpacesAvailableOn(spaces []Space, reservations []Reservation, date booking.Date) int {
	existing := make([]booking.Booking, 0, len(reservations))
	for _, r := range uniqueByID(reservations, func(r Reservation) int64 { return r.ID }) {
		existing = append(existing, r.Booking())
	}

	count := 0
	for _, s := range uniqueByID(spaces, func(s Space) int64 { return s.ID }) {
		if s.Status != SpaceActive {
			continue
		}
		if len(booking.AvailableSlots(s.Schedule, s.ID, date, existing)) > 0 {
			count++
		}
	}
	return count
}

// uniqueByID keeps the last occurrence of each id, at the position of the first.
func uniqueByID[T any](items []T, idOf func(T) int64) []T {
	index := make(map[int64]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		id := idOf(item)
		if pos, ok := index[id]; ok {
			out[pos] = item
			continue
		}
		index[id] = len(out)
		out = append(out, item)
	}
	return out
}

// StatisticsService recomputes the dashboard projections on every call.
type StatisticsService struct {
	source SnapshotSource
	now    func() time.Time
	logger *slog.Logger
}

// NewStatisticsService wires dependencies for statistics.
func NewStatisticsService(source SnapshotSource, now func() time.Time, logger *slog.Logger) *StatisticsService {
	if now == nil {
		now = time.Now
	}
	return &StatisticsService{source: source, now: now, logger: defaultLogger(logger)}
}

// Overview returns every projection. Administrators only.
func (s *StatisticsService) Overview(ctx context.Context, principal Principal) (overview Overview, err error) {
	if s == nil {
		err = fmt.Errorf("StatisticsService is nil")
		return
	}
	if s.source == nil {
		err = fmt.Errorf("snapshot source not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "StatisticsService", "Overview", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute statistics", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var data Dataset
	data, err = s.source.Snapshot(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	today := booking.DateOf(s.now())
	overview = Overview{
		Date:            today,
		Users:           CountUsers(data.Users),
		Spaces:          CountSpaces(data.Spaces),
		Software:        CountSoftware(data.Software),
		Reservations:    CountReservations(data.Reservations, 0),
		SpacesAvailable: SpacesAvailableOn(data.Spaces, data.Reservations, today),
	}
	return
}

// ReservationsFor returns reservation counts for one user. Professors may
// only query themselves; a zero userID means the principal.
func (s *StatisticsService) ReservationsFor(ctx context.Context, principal Principal, userID int64) (ReservationCounts, error) {
	if s == nil {
		return ReservationCounts{}, fmt.Errorf("StatisticsService is nil")
	}
	if s.source == nil {
		return ReservationCounts{}, fmt.Errorf("snapshot source not configured")
	}
	if userID == 0 {
		userID = principal.UserID
	}
	if userID != principal.UserID && !principal.IsAdmin() {
		return ReservationCounts{}, ErrUnauthorized
	}

	data, err := s.source.Snapshot(ctx)
	if err != nil {
		return ReservationCounts{}, mapRepoError(err)
	}
	return CountReservations(data.Reservations, userID), nil
}

// AvailableToday counts active spaces with a free slot today; shown on the
// professor dashboard.
func (s *StatisticsService) AvailableToday(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("StatisticsService is nil")
	}
	if s.source == nil {
		return 0, fmt.Errorf("snapshot source not configured")
	}
	data, err := s.source.Snapshot(ctx)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return SpacesAvailableOn(data.Spaces, data.Reservations, booking.DateOf(s.now())), nil
}
