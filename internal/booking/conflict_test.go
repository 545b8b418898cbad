package booking

import (
	"reflect"
	"testing"
	"time"
)

var monday = NewDate(2024, time.September, 9)

func slots(labels ...string) []Slot {
	out := make([]Slot, len(labels))
	for i, label := range labels {
		out[i] = Slot(label)
	}
	return out
}

func TestCheckConflict(t *testing.T) {
	t.Parallel()

	existing := []Booking{
		{ID: 1, SpaceID: 1, UserID: 2, Date: monday, Hours: slots("07:00", "08:00"), Holding: true},
		{ID: 2, SpaceID: 2, UserID: 3, Date: monday, Hours: slots("10:00"), Holding: true},
		{ID: 3, SpaceID: 1, UserID: 4, Date: monday, Hours: slots("13:00"), Holding: false},
	}

	tests := []struct {
		name      string
		candidate Booking
		wantOK    bool
		want      Conflict
	}{
		{
			name:      "space occupied by another user",
			candidate: Booking{SpaceID: 1, UserID: 5, Date: monday, Hours: slots("08:00")},
			wantOK:    true,
			want:      Conflict{Kind: ConflictSpaceOccupied, WithBookingID: 1, SpaceID: 1, Slots: slots("08:00")},
		},
		{
			name:      "user double booked in a different space",
			candidate: Booking{SpaceID: 2, UserID: 2, Date: monday, Hours: slots("07:00", "09:00")},
			wantOK:    true,
			want:      Conflict{Kind: ConflictUserDoubleBooked, WithBookingID: 1, SpaceID: 1, Slots: slots("07:00")},
		},
		{
			name:      "same user same space reports occupancy",
			candidate: Booking{SpaceID: 1, UserID: 2, Date: monday, Hours: slots("08:00")},
			wantOK:    true,
			want:      Conflict{Kind: ConflictSpaceOccupied, WithBookingID: 1, SpaceID: 1, Slots: slots("08:00")},
		},
		{
			name:      "user conflict wins over space conflict",
			candidate: Booking{SpaceID: 2, UserID: 2, Date: monday, Hours: slots("07:00", "10:00")},
			wantOK:    true,
			want:      Conflict{Kind: ConflictUserDoubleBooked, WithBookingID: 1, SpaceID: 1, Slots: slots("07:00")},
		},
		{
			name:      "released booking does not conflict",
			candidate: Booking{SpaceID: 1, UserID: 5, Date: monday, Hours: slots("13:00")},
		},
		{
			name:      "different date does not conflict",
			candidate: Booking{SpaceID: 1, UserID: 2, Date: monday.AddDays(1), Hours: slots("07:00")},
		},
		{
			name:      "candidate ignores itself",
			candidate: Booking{ID: 1, SpaceID: 1, UserID: 2, Date: monday, Hours: slots("07:00")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := CheckConflict(existing, tt.candidate)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v (%+v)", tt.wantOK, ok, got)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("unexpected conflict: got %+v want %+v", got, tt.want)
			}
		})
	}
}

func TestAvailableSlots(t *testing.T) {
	t.Parallel()

	template := UniformSchedule(slots("07:00", "08:00", "09:00"), time.Monday)

	t.Run("empty snapshot returns the template", func(t *testing.T) {
		t.Parallel()
		got := AvailableSlots(template, 1, monday, nil)
		if !reflect.DeepEqual(got, slots("07:00", "08:00", "09:00")) {
			t.Fatalf("unexpected slots: %v", got)
		}
	})

	t.Run("holding bookings are subtracted in template order", func(t *testing.T) {
		t.Parallel()
		existing := []Booking{
			{ID: 1, SpaceID: 1, UserID: 2, Date: monday, Hours: slots("08:00"), Holding: true},
			{ID: 2, SpaceID: 2, UserID: 2, Date: monday, Hours: slots("07:00"), Holding: true},
			{ID: 3, SpaceID: 1, UserID: 2, Date: monday, Hours: slots("09:00"), Holding: false},
		}
		got := AvailableSlots(template, 1, monday, existing)
		if !reflect.DeepEqual(got, slots("07:00", "09:00")) {
			t.Fatalf("unexpected slots: %v", got)
		}
	})

	t.Run("weekday without template is empty", func(t *testing.T) {
		t.Parallel()
		got := AvailableSlots(template, 1, monday.AddDays(1), nil)
		if len(got) != 0 {
			t.Fatalf("expected no slots, got %v", got)
		}
	})
}

func TestAvailabilityMatchesTemplateMinusOccupied(t *testing.T) {
	t.Parallel()

	template := UniformSchedule(HourRange(7, 18), time.Monday, time.Wednesday)
	existing := []Booking{
		{ID: 1, SpaceID: 1, UserID: 2, Date: monday, Hours: slots("07:00", "08:00"), Holding: true},
		{ID: 2, SpaceID: 1, UserID: 3, Date: monday, Hours: slots("15:00"), Holding: true},
		{ID: 3, SpaceID: 1, UserID: 3, Date: monday, Hours: slots("16:00"), Holding: false},
	}

	available := AvailableSlots(template, 1, monday, existing)
	occupied := OccupiedSlots(existing, 1, monday)

	if len(available)+len(occupied) != len(template.For(time.Monday)) {
		t.Fatalf("available %v and occupied %v do not partition the template", available, occupied)
	}
	for _, slot := range available {
		for _, taken := range occupied {
			if slot == taken {
				t.Fatalf("slot %s reported both available and occupied", slot)
			}
		}
	}
}

func TestBookingEnd(t *testing.T) {
	t.Parallel()

	b := Booking{Date: monday, Hours: slots("09:00", "07:00", "08:00")}
	want := time.Date(2024, time.September, 9, 10, 0, 0, 0, time.UTC)
	if got := b.End(time.UTC); !got.Equal(want) {
		t.Fatalf("expected end %s, got %s", want, got)
	}
}
