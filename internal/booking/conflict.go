package booking

import "time"

// Booking is the slice of a reservation the resolver and checker reason about.
type Booking struct {
	ID      int64
	SpaceID int64
	UserID  int64
	Date    Date
	Hours   []Slot
	// Holding reports whether the booking still claims its slots. Cancelled
	// reservations release them.
	Holding bool
}

// End returns the wall-clock instant one hour after the booking's last slot.
func (b Booking) End(loc *time.Location) time.Time {
	last := -1
	for _, slot := range b.Hours {
		if h := slot.Hour(); h > last {
			last = h
		}
	}
	if last < 0 {
		return b.Date.At(0, loc)
	}
	return b.Date.At(last+1, loc)
}

// ConflictKind describes which constraint a proposed booking violates.
type ConflictKind string

const (
	// ConflictSpaceOccupied indicates a slot is already claimed in the same space.
	ConflictSpaceOccupied ConflictKind = "SPACE_OCCUPIED"
	// ConflictUserDoubleBooked indicates the user already holds the slot in another space.
	ConflictUserDoubleBooked ConflictKind = "USER_DOUBLE_BOOKED"
)

// Conflict details the first existing booking that collides with a candidate.
type Conflict struct {
	Kind          ConflictKind
	WithBookingID int64
	SpaceID       int64
	Slots         []Slot
}

// CheckConflict reports the first conflict between candidate and existing.
//
// User double-booking is checked before space occupancy so that a professor
// hears about their own overlapping commitment first. Bookings that are not
// holding, and the candidate itself, are ignored.
func CheckConflict(existing []Booking, candidate Booking) (Conflict, bool) {
	for _, other := range existing {
		if !claims(other, candidate) || other.UserID != candidate.UserID || other.SpaceID == candidate.SpaceID {
			continue
		}
		if overlap := intersect(candidate.Hours, other.Hours); len(overlap) > 0 {
			return Conflict{
				Kind:          ConflictUserDoubleBooked,
				WithBookingID: other.ID,
				SpaceID:       other.SpaceID,
				Slots:         overlap,
			}, true
		}
	}

	for _, other := range existing {
		if !claims(other, candidate) || other.SpaceID != candidate.SpaceID {
			continue
		}
		if overlap := intersect(candidate.Hours, other.Hours); len(overlap) > 0 {
			return Conflict{
				Kind:          ConflictSpaceOccupied,
				WithBookingID: other.ID,
				SpaceID:       other.SpaceID,
				Slots:         overlap,
			}, true
		}
	}

	return Conflict{}, false
}

func claims(other, candidate Booking) bool {
	if !other.Holding {
		return false
	}
	if candidate.ID != 0 && other.ID == candidate.ID {
		return false
	}
	return other.Date == candidate.Date
}

// OccupiedSlots returns the slots held on date for the space, ascending.
func OccupiedSlots(existing []Booking, spaceID int64, date Date) []Slot {
	seen := make(map[Slot]struct{})
	var out []Slot
	for _, b := range existing {
		if !b.Holding || b.SpaceID != spaceID || b.Date != date {
			continue
		}
		for _, slot := range b.Hours {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			out = append(out, slot)
		}
	}
	SortSlots(out)
	return out
}

// AvailableSlots returns the template slots for date's weekday that no holding
// booking claims, in template order. Space status is the caller's concern.
func AvailableSlots(template Schedule, spaceID int64, date Date, existing []Booking) []Slot {
	daily := template.For(date.Weekday())
	if len(daily) == 0 {
		return []Slot{}
	}
	occupied := make(map[Slot]struct{})
	for _, slot := range OccupiedSlots(existing, spaceID, date) {
		occupied[slot] = struct{}{}
	}
	out := make([]Slot, 0, len(daily))
	for _, slot := range daily {
		if _, taken := occupied[slot]; taken {
			continue
		}
		out = append(out, slot)
	}
	return out
}
