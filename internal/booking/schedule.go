package booking

import (
	"fmt"
	"time"
)

// Schedule is a space's weekly template: the slots it could offer on each weekday.
type Schedule map[time.Weekday][]Slot

// For returns the template slots for the weekday, empty when absent.
func (s Schedule) For(day time.Weekday) []Slot {
	if s == nil {
		return nil
	}
	return s[day]
}

// Normalize returns a copy covering all seven weekdays with each day's slots
// validated, de-duplicated and sorted ascending.
func (s Schedule) Normalize() (Schedule, error) {
	out := make(Schedule, 7)
	for _, day := range Weekdays() {
		slots, err := NormalizeSlots(s[day])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", WeekdayLabel(day), err)
		}
		out[day] = slots
	}
	return out, nil
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for day, slots := range s {
		out[day] = append([]Slot(nil), slots...)
	}
	return out
}

// Labels renders the schedule keyed by pt-BR weekday label.
func (s Schedule) Labels() map[string][]Slot {
	out := make(map[string][]Slot, 7)
	for _, day := range Weekdays() {
		slots := s.For(day)
		if slots == nil {
			slots = []Slot{}
		}
		out[WeekdayLabel(day)] = append([]Slot{}, slots...)
	}
	return out
}

// ScheduleFromLabels parses a label-keyed template and normalizes it.
func ScheduleFromLabels(labelled map[string][]Slot) (Schedule, error) {
	raw := make(Schedule, len(labelled))
	for label, slots := range labelled {
		day, ok := ParseWeekday(label)
		if !ok {
			return nil, fmt.Errorf("booking: unknown weekday %q", label)
		}
		raw[day] = append(raw[day], slots...)
	}
	return raw.Normalize()
}

// UniformSchedule builds a template offering the same slots on the given weekdays.
func UniformSchedule(slots []Slot, days ...time.Weekday) Schedule {
	out := make(Schedule, 7)
	for _, day := range Weekdays() {
		out[day] = []Slot{}
	}
	for _, day := range days {
		out[day] = append([]Slot(nil), slots...)
	}
	return out
}
