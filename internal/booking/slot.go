package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidSlot is returned when a label is not an on-the-hour "HH:00" string.
var ErrInvalidSlot = errors.New("booking: invalid slot label")

// Slot is a bookable hour-long unit labelled "HH:00".
type Slot string

// NewSlot returns the slot starting at the given hour of the day.
func NewSlot(hour int) (Slot, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("%w: hour %d", ErrInvalidSlot, hour)
	}
	return Slot(fmt.Sprintf("%02d:00", hour)), nil
}

// ParseSlot validates a slot label.
func ParseSlot(label string) (Slot, error) {
	label = strings.TrimSpace(label)
	if len(label) != 5 || label[2] != ':' || label[3:] != "00" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, label)
	}
	if label[0] < '0' || label[0] > '9' || label[1] < '0' || label[1] > '9' {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, label)
	}
	hour := int(label[0]-'0')*10 + int(label[1]-'0')
	if hour > 23 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlot, label)
	}
	return Slot(label), nil
}

// Hour returns the starting hour of the slot, or -1 when the label is malformed.
func (s Slot) Hour() int {
	parsed, err := ParseSlot(string(s))
	if err != nil {
		return -1
	}
	return int(parsed[0]-'0')*10 + int(parsed[1]-'0')
}

func (s Slot) String() string {
	return string(s)
}

// HourRange returns the slots covering [from, to), e.g. 07:00-12:00 yields five slots.
func HourRange(from, to int) []Slot {
	if from < 0 {
		from = 0
	}
	if to > 24 {
		to = 24
	}
	slots := make([]Slot, 0, max(to-from, 0))
	for hour := from; hour < to; hour++ {
		slots = append(slots, Slot(fmt.Sprintf("%02d:00", hour)))
	}
	return slots
}

// NormalizeSlots validates every label and returns them de-duplicated in ascending order.
func NormalizeSlots(slots []Slot) ([]Slot, error) {
	seen := make(map[Slot]struct{}, len(slots))
	out := make([]Slot, 0, len(slots))
	for _, raw := range slots {
		slot, err := ParseSlot(string(raw))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	SortSlots(out)
	return out, nil
}

// SortSlots orders slots ascending in place. "HH:00" labels sort lexically.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
}

func intersect(a, b []Slot) []Slot {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[Slot]struct{}, len(b))
	for _, slot := range b {
		set[slot] = struct{}{}
	}
	var out []Slot
	seen := make(map[Slot]struct{}, len(a))
	for _, slot := range a {
		if _, ok := set[slot]; !ok {
			continue
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	SortSlots(out)
	return out
}
