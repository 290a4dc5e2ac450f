// Package schedule expands a small group's recurrence settings into concrete meetings.
package schedule

import (
	"regexp"
	"strings"
	"time"
)

// Frequency is how often a small group meets.
type Frequency string

const (
	Daily    Frequency = "DIARIO"
	Weekly   Frequency = "SEMANAL"
	Biweekly Frequency = "QUINZENAL"
	Monthly  Frequency = "MENSAL"
)

// HorizonMonths bounds how far ahead a series is generated, counted from creation day.
const HorizonMonths = 3

var steps = map[Frequency]int{
	Daily:    1,
	Weekly:   7,
	Biweekly: 14,
	// Monthly is a fixed 30 day stride, not calendar months.
	Monthly: 30,
}

// Step returns the stride in days and whether f is known.
func (f Frequency) Step() (int, bool) {
	n, ok := steps[f]
	return n, ok
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	_, ok := steps[f]
	return ok
}

// Weekday is a named day of the week.
type Weekday string

const (
	Sunday    Weekday = "DOMINGO"
	Monday    Weekday = "SEGUNDA"
	Tuesday   Weekday = "TERCA"
	Wednesday Weekday = "QUARTA"
	Thursday  Weekday = "QUINTA"
	Friday    Weekday = "SEXTA"
	Saturday  Weekday = "SABADO"
)

var weekdays = map[Weekday]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

// Time converts w to a time.Weekday.
func (w Weekday) Time() (time.Weekday, bool) {
	d, ok := weekdays[w]
	return d, ok
}

// Valid reports whether w is a known weekday.
func (w Weekday) Valid() bool {
	_, ok := weekdays[w]
	return ok
}

// Recurrence is the meeting configuration of a small group. A zero StartDate means absent.
type Recurrence struct {
	Frequency Frequency
	DayOfWeek Weekday
	StartTime string
	EndTime   string
	StartDate time.Time
	Location  string
}

// Occurrence is one meeting ready to be persisted.
type Occurrence struct {
	Date      time.Time
	StartTime string
	EndTime   string
	Location  string
}

// Generate returns the meetings for rec up to HorizonMonths after today.
//
// Without a frequency a single meeting on StartDate is produced. Insufficient fields
// produce no meetings; that is not an error.
func Generate(rec Recurrence, today time.Time) []Occurrence {
	if rec.StartDate.IsZero() || strings.TrimSpace(rec.StartTime) == "" {
		return nil
	}
	start := dateOf(rec.StartDate)

	if rec.Frequency == "" {
		return []Occurrence{rec.occurrence(start)}
	}

	step, ok := rec.Frequency.Step()
	if !ok {
		return nil
	}
	if rec.Frequency != Daily {
		day, ok := rec.DayOfWeek.Time()
		if !ok {
			return nil
		}
		start = start.AddDate(0, 0, (int(day)-int(start.Weekday())+7)%7)
	}

	limit := dateOf(today).AddDate(0, HorizonMonths, 0)
	var out []Occurrence
	for d := start; !d.After(limit); d = d.AddDate(0, 0, step) {
		out = append(out, rec.occurrence(d))
	}
	return out
}

func (rec Recurrence) occurrence(d time.Time) Occurrence {
	return Occurrence{
		Date:      d,
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		Location:  rec.Location,
	}
}

// dateOf drops the clock part of t, keeping its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether s is a 24h "HH:MM" time.
func ValidClock(s string) bool {
	return clockRe.MatchString(s)
}

// Location joins the non-empty address parts of a group into its default meeting place.
func Location(street, number, neighborhood, city, state string) string {
	var parts []string
	line := strings.TrimSpace(street)
	if n := strings.TrimSpace(number); n != "" && line != "" {
		line += ", " + n
	}
	for _, p := range []string{line, neighborhood, city, state} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}
