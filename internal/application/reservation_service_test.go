package application

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/example/academigold/internal/booking"
)

type observerStub struct {
	mu          sync.Mutex
	created     int
	conflicts   []booking.ConflictKind
	transitions []ReservationStatus
}

func (o *observerStub) ReservationCreated(context.Context, Reservation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *observerStub) ReservationConflict(_ context.Context, kind booking.ConflictKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts = append(o.conflicts, kind)
}

func (o *observerStub) ReservationTransitioned(_ context.Context, _, to ReservationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, to)
}

func newReservationService(store *fakeStore, now time.Time) *ReservationService {
	return NewReservationService(store, store, store, fixedClock(now))
}

func book(t *testing.T, svc *ReservationService, principal Principal, spaceID int64, hours ...string) Reservation {
	t.Helper()
	reservation, err := svc.CreateReservation(context.Background(), CreateReservationParams{
		Principal: principal,
		Input: ReservationInput{
			SpaceID: spaceID,
			Date:    monday.String(),
			Hours:   hours,
			Purpose: "Aula de Algoritmos",
		},
	})
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	return reservation
}

func slotsOf(labels ...string) []booking.Slot {
	out := make([]booking.Slot, len(labels))
	for i, label := range labels {
		out[i] = booking.Slot(label)
	}
	return out
}

func TestReservationService_AvailableSlots(t *testing.T) {
	t.Parallel()

	t.Run("returns the full template when nothing is booked", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		slots, err := svc.AvailableSlots(context.Background(), 10, monday)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if want := slotsOf("07:00", "08:00", "09:00"); !reflect.DeepEqual(slots, want) {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	})

	t.Run("excludes booked slots and ignores other spaces", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		book(t, svc, professor, 10, "08:00")
		book(t, svc, colleague, 11, "07:00")

		slots, err := svc.AvailableSlots(context.Background(), 10, monday)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if want := slotsOf("07:00", "09:00"); !reflect.DeepEqual(slots, want) {
			t.Fatalf("expected %v, got %v", want, slots)
		}
	})

	t.Run("weekend dates have no slots", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		slots, err := svc.AvailableSlots(context.Background(), 10, monday.AddDays(-1))
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("expected no slots on Sunday, got %v", slots)
		}
	})

	t.Run("inactive spaces have no slots", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		space := store.spaces[10]
		space.Status = SpaceInactive
		store.spaces[10] = space
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		slots, err := svc.AvailableSlots(context.Background(), 10, monday)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("expected no slots, got %v", slots)
		}
	})

	t.Run("unknown space", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		if _, err := svc.AvailableSlots(context.Background(), 99, monday); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReservationService_CreateReservation(t *testing.T) {
	t.Parallel()

	t.Run("confirms a free booking", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		observer := &observerStub{}
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		svc.SetObserver(observer)

		reservation := book(t, svc, professor, 10, "08:00", "07:00", "07:00")

		if reservation.Status != ReservationConfirmed {
			t.Fatalf("expected confirmed, got %s", reservation.Status)
		}
		if reservation.UserID != professor.UserID || reservation.ID == 0 {
			t.Fatalf("unexpected reservation %+v", reservation)
		}
		if want := slotsOf("07:00", "08:00"); !reflect.DeepEqual(reservation.Hours, want) {
			t.Fatalf("expected normalized hours %v, got %v", want, reservation.Hours)
		}
		if observer.created != 1 {
			t.Fatalf("expected observer notification, got %d", observer.created)
		}
	})

	t.Run("rejects a slot already taken in the space", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		observer := &observerStub{}
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		svc.SetObserver(observer)
		first := book(t, svc, professor, 10, "07:00", "08:00")

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: colleague,
			Input:     ReservationInput{SpaceID: 10, Date: monday.String(), Hours: []string{"08:00"}, Purpose: "Monitoria"},
		})

		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.Kind != booking.ConflictSpaceOccupied || cErr.ReservationID != first.ID {
			t.Fatalf("unexpected conflict %+v", cErr)
		}
		if cErr.SpaceName != "Laboratório de Informática 1" {
			t.Fatalf("expected space name, got %q", cErr.SpaceName)
		}
		if !reflect.DeepEqual(cErr.Slots, slotsOf("08:00")) {
			t.Fatalf("expected overlapping slot, got %v", cErr.Slots)
		}
		if len(store.reservations) != 1 {
			t.Fatalf("expected nothing persisted, got %d reservations", len(store.reservations))
		}
		if len(observer.conflicts) != 1 || observer.conflicts[0] != booking.ConflictSpaceOccupied {
			t.Fatalf("expected conflict notification, got %v", observer.conflicts)
		}
	})

	t.Run("rejects a user booked elsewhere at the same time", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		book(t, svc, professor, 10, "07:00")

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: professor,
			Input:     ReservationInput{SpaceID: 11, Date: monday.String(), Hours: []string{"07:00"}, Purpose: "Reposição"},
		})

		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.Kind != booking.ConflictUserDoubleBooked || cErr.SpaceID != 10 {
			t.Fatalf("unexpected conflict %+v", cErr)
		}
	})

	t.Run("cancelled reservations do not block", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		first := book(t, svc, professor, 10, "07:00")
		if _, err := svc.CancelReservation(context.Background(), professor, first.ID); err != nil {
			t.Fatalf("CancelReservation returned error: %v", err)
		}

		book(t, svc, colleague, 10, "07:00")
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: professor,
			Input:     ReservationInput{Date: "09/09/2024", Hours: []string{"07:30"}, Purpose: " "},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"date", "hours", "purpose", "space_id"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects hours outside the template", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: professor,
			Input:     ReservationInput{SpaceID: 10, Date: monday.String(), Hours: []string{"15:00"}, Purpose: "Prova"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["hours"] != "hour slots must be within the space schedule" {
			t.Fatalf("expected schedule validation error, got %v", err)
		}
	})

	t.Run("rejects inactive spaces", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		space := store.spaces[11]
		space.Status = SpaceInactive
		store.spaces[11] = space
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: professor,
			Input:     ReservationInput{SpaceID: 11, Date: monday.String(), Hours: []string{"07:00"}, Purpose: "Prova"},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["space_id"] != "space is inactive" {
			t.Fatalf("expected inactive space error, got %v", err)
		}
	})

	t.Run("professors cannot book for others", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: professor,
			Input:     ReservationInput{SpaceID: 10, UserID: colleague.UserID, Date: monday.String(), Hours: []string{"07:00"}, Purpose: "Prova"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("administrators book on behalf of a professor", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		reservation, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: admin,
			Input:     ReservationInput{SpaceID: 10, UserID: colleague.UserID, Date: monday.String(), Hours: []string{"07:00"}, Purpose: "Prova"},
		})
		if err != nil {
			t.Fatalf("CreateReservation returned error: %v", err)
		}
		if reservation.UserID != colleague.UserID {
			t.Fatalf("expected reservation for colleague, got %d", reservation.UserID)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		svc := newReservationService(seededStore(), time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
			Principal: admin,
			Input:     ReservationInput{SpaceID: 10, UserID: 42, Date: monday.String(), Hours: []string{"07:00"}, Purpose: "Prova"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["user_id"] != "user does not exist" {
			t.Fatalf("expected unknown user error, got %v", err)
		}
	})
}

func TestReservationService_ConcurrentCreatesKeepSpacesExclusive(t *testing.T) {
	t.Parallel()

	store := seededStore()
	for id := int64(20); id < 40; id++ {
		store.users[id] = User{ID: id, Role: RoleProfessor}
	}
	svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for id := int64(20); id < 40; id++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
				Principal: Principal{UserID: userID, Role: RoleProfessor},
				Input:     ReservationInput{SpaceID: 10, Date: monday.String(), Hours: []string{"09:00"}, Purpose: "Plantão"},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one reservation to win the slot, got %d", succeeded)
	}
}

func TestReservationService_CheckConflict(t *testing.T) {
	t.Parallel()

	store := seededStore()
	svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
	book(t, svc, professor, 10, "07:00")

	free := CreateReservationParams{
		Principal: colleague,
		Input:     ReservationInput{SpaceID: 10, Date: monday.String(), Hours: []string{"08:00"}, Purpose: "Aula"},
	}
	if err := svc.CheckConflict(context.Background(), free); err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}

	taken := free
	taken.Input.Hours = []string{"07:00", "08:00"}
	var cErr *ConflictError
	if err := svc.CheckConflict(context.Background(), taken); !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(store.reservations) != 1 {
		t.Fatalf("CheckConflict must not persist, got %d reservations", len(store.reservations))
	}
}

func TestReservationService_CancelReservation(t *testing.T) {
	t.Parallel()

	t.Run("releases the slots", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		reservation := book(t, svc, professor, 10, "07:00", "08:00")

		cancelled, err := svc.CancelReservation(context.Background(), professor, reservation.ID)
		if err != nil {
			t.Fatalf("CancelReservation returned error: %v", err)
		}
		if cancelled.Status != ReservationCancelled || cancelled.CancelledAt == nil {
			t.Fatalf("unexpected reservation %+v", cancelled)
		}

		slots, err := svc.AvailableSlots(context.Background(), 10, monday)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if want := slotsOf("07:00", "08:00", "09:00"); !reflect.DeepEqual(slots, want) {
			t.Fatalf("expected released slots %v, got %v", want, slots)
		}
	})

	t.Run("professors cannot cancel other reservations", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		reservation := book(t, svc, professor, 10, "07:00")

		if _, err := svc.CancelReservation(context.Background(), colleague, reservation.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := svc.CancelReservation(context.Background(), admin, reservation.ID); err != nil {
			t.Fatalf("expected admin cancel to succeed, got %v", err)
		}
	})

	t.Run("terminal states cannot change", func(t *testing.T) {
		t.Parallel()
		store := seededStore()
		svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
		reservation := book(t, svc, professor, 10, "07:00")
		if _, err := svc.CancelReservation(context.Background(), professor, reservation.ID); err != nil {
			t.Fatalf("CancelReservation returned error: %v", err)
		}

		_, err := svc.CancelReservation(context.Background(), professor, reservation.ID)
		var tErr *InvalidTransitionError
		if !errors.As(err, &tErr) || tErr.From != string(ReservationCancelled) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
	})
}

func TestReservationService_CompleteReservation(t *testing.T) {
	t.Parallel()

	store := seededStore()
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	observer := &observerStub{}
	svc := NewReservationService(store, store, store, clock)
	svc.SetObserver(observer)
	reservation := book(t, svc, professor, 10, "07:00", "08:00")

	now = time.Date(2024, 9, 9, 8, 59, 0, 0, time.UTC)
	_, err := svc.CompleteReservation(context.Background(), professor, reservation.ID)
	var tErr *InvalidTransitionError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected InvalidTransitionError before the end, got %v", err)
	}
	if store.reservations[reservation.ID].Status != ReservationConfirmed {
		t.Fatalf("expected reservation to stay confirmed")
	}

	now = time.Date(2024, 9, 9, 9, 0, 0, 0, time.UTC)
	completed, err := svc.CompleteReservation(context.Background(), professor, reservation.ID)
	if err != nil {
		t.Fatalf("CompleteReservation returned error: %v", err)
	}
	if completed.Status != ReservationCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected reservation %+v", completed)
	}
	if len(observer.transitions) != 1 || observer.transitions[0] != ReservationCompleted {
		t.Fatalf("expected one completed transition, got %v", observer.transitions)
	}

	if _, err := svc.CancelReservation(context.Background(), professor, reservation.ID); !errors.As(err, &tErr) {
		t.Fatalf("expected completed reservation to be terminal, got %v", err)
	}
}

func TestReservationService_CompleteElapsed(t *testing.T) {
	t.Parallel()

	store := seededStore()
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	svc := NewReservationService(store, store, store, func() time.Time { return now })
	early := book(t, svc, professor, 10, "07:00")
	late := book(t, svc, colleague, 11, "10:00")
	cancelled := book(t, svc, colleague, 10, "09:00")
	if _, err := svc.CancelReservation(context.Background(), colleague, cancelled.ID); err != nil {
		t.Fatalf("CancelReservation returned error: %v", err)
	}

	now = time.Date(2024, 9, 9, 9, 30, 0, 0, time.UTC)
	count, err := svc.CompleteElapsed(context.Background())
	if err != nil {
		t.Fatalf("CompleteElapsed returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one completion, got %d", count)
	}
	if store.reservations[early.ID].Status != ReservationCompleted {
		t.Fatalf("expected elapsed reservation completed")
	}
	if store.reservations[late.ID].Status != ReservationConfirmed {
		t.Fatalf("expected future reservation to stay confirmed")
	}
	if store.reservations[cancelled.ID].Status != ReservationCancelled {
		t.Fatalf("expected cancelled reservation untouched")
	}
}

func TestReservationService_ListReservations(t *testing.T) {
	t.Parallel()

	store := seededStore()
	svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
	a := book(t, svc, professor, 10, "07:00")
	b := book(t, svc, professor, 11, "09:00")
	c := book(t, svc, colleague, 10, "08:00")

	t.Run("professors see only their own", func(t *testing.T) {
		got, err := svc.ListReservations(context.Background(), ListReservationsParams{Principal: professor})
		if err != nil {
			t.Fatalf("ListReservations returned error: %v", err)
		}
		if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
			t.Fatalf("expected [%d %d] ordered by latest hour, got %+v", b.ID, a.ID, got)
		}
	})

	t.Run("professors cannot query others", func(t *testing.T) {
		_, err := svc.ListReservations(context.Background(), ListReservationsParams{
			Principal: professor,
			Filter:    ReservationFilter{UserID: colleague.UserID},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("administrators filter by space", func(t *testing.T) {
		got, err := svc.ListReservations(context.Background(), ListReservationsParams{
			Principal: admin,
			Filter:    ReservationFilter{SpaceID: 10},
		})
		if err != nil {
			t.Fatalf("ListReservations returned error: %v", err)
		}
		if len(got) != 2 || got[0].ID != c.ID || got[1].ID != a.ID {
			t.Fatalf("unexpected listing %+v", got)
		}
	})

	t.Run("invalid status filter", func(t *testing.T) {
		_, err := svc.ListReservations(context.Background(), ListReservationsParams{
			Principal: admin,
			Filter:    ReservationFilter{Status: "pending"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestReservationService_GetReservation(t *testing.T) {
	t.Parallel()

	store := seededStore()
	svc := newReservationService(store, time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC))
	reservation := book(t, svc, professor, 10, "07:00")

	if _, err := svc.GetReservation(context.Background(), colleague, reservation.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	got, err := svc.GetReservation(context.Background(), admin, reservation.ID)
	if err != nil || got.ID != reservation.ID {
		t.Fatalf("expected reservation %d, got %+v (%v)", reservation.ID, got, err)
	}
	if _, err := svc.GetReservation(context.Background(), admin, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationService_NilReceiver(t *testing.T) {
	t.Parallel()

	var svc *ReservationService
	if _, err := svc.CreateReservation(context.Background(), CreateReservationParams{}); err == nil {
		t.Fatalf("expected error from nil service")
	}
}
