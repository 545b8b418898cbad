package booking

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// weekdayLabels maps Sunday=0 .. Saturday=6 to the pt-BR labels used as schedule keys.
var weekdayLabels = [7]string{
	"domingo",
	"segunda-feira",
	"terça-feira",
	"quarta-feira",
	"quinta-feira",
	"sexta-feira",
	"sábado",
}

var foldedWeekdays = func() map[string]time.Weekday {
	out := make(map[string]time.Weekday, len(weekdayLabels))
	for day, label := range weekdayLabels {
		out[foldLabel(label)] = time.Weekday(day)
	}
	return out
}()

// WeekdayLabel returns the canonical label for the weekday.
func WeekdayLabel(day time.Weekday) string {
	if day < time.Sunday || day > time.Saturday {
		return ""
	}
	return weekdayLabels[day]
}

// Weekdays lists every weekday starting on Sunday.
func Weekdays() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

// ParseWeekday resolves a label ignoring case and accents ("Sabado" matches "sábado").
func ParseWeekday(label string) (time.Weekday, bool) {
	day, ok := foldedWeekdays[foldLabel(label)]
	return day, ok
}

func foldLabel(label string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(label))
	}
	return folded
}
