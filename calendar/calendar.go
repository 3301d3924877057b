package calendar

import (
	"fmt"
	"time"
)

// Date is a calendar day in a specific timezone, normalized to "YYYY-MM-DD".
// All day-granular comparisons in the service go through this type; raw
// time.Time values never cross a comparison with a Date.
type Date string

const layout = "2006-01-02"

// LoadLocation resolves an IANA timezone name. An unresolvable name is a
// startup-time configuration error for callers.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DateOf normalizes an instant to the calendar day it falls on in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	return Date(t.In(loc).Format(layout))
}

// ParseDate validates a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(layout)), nil
}

// HourIn returns the local hour (0..23) of an instant in loc.
func HourIn(t time.Time, loc *time.Location) int {
	return t.In(loc).Hour()
}

func (d Date) String() string { return string(d) }

func (d Date) asTime() time.Time {
	t, _ := time.Parse(layout, string(d))
	return t
}

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date(d.asTime().AddDate(0, 0, n).Format(layout))
}

// Weekday returns the day-of-week name ("Monday".."Sunday").
func (d Date) Weekday() string {
	return d.asTime().Weekday().String()
}

// Normalized YYYY-MM-DD strings order lexicographically, so date comparison
// is plain string comparison.
func (d Date) Before(other Date) bool { return d < other }
func (d Date) After(other Date) bool  { return d > other }

// MaxDate and MinDate pick the later/earlier of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}
