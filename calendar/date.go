/*
date.go - Calendar date value type

PURPOSE:
  A plain calendar date (year/month/day) with no time-of-day and no time
  zone attached. All allocation decisions are keyed by the local calendar
  date in the business time zone, so the engine passes Dates around rather
  than instants and converts at the boundary (see calculator.go).

DESIGN:
  - Comparable: Date is a plain struct of ints, safe as a map key.
  - Conversions to time.Time always use UTC midnight; the value only
    exists to do arithmetic and formatting, never to mark an instant.

SEE ALSO:
  - calculator.go: instant-to-local-date conversion and date windows
*/
package calendar

import (
	"fmt"
	"time"
)

// Date is a calendar date with day granularity.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a Date. Out-of-range values are normalized the way
// time.Date normalizes them (e.g. January 32 becomes February 1).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf extracts the calendar date from t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in "2006-01-02" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date as midnight UTC, for arithmetic only.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At returns the instant at the given local wall-clock time on this date
// in the given location.
func (d Date) At(hour, min int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, 0, 0, loc)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time().AddDate(0, n, 0)) }

// Comparison
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool  { return d == other }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string { return d.Time().Format("2006-01-02") }

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}
