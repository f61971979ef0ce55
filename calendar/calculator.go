/*
calculator.go - Business-day date window calculator

PURPOSE:
  Translates "now" (an instant) into the named date windows the allocation
  engine works over. All cutoffs are evaluated against the local wall
  clock in a fixed business time zone, not UTC: an instant of 23:00 UTC on
  30 June is already 1 July in London, while the same wall time on 31
  January is still 31 January. Getting this wrong shifts every window by a
  day across daylight-saving transitions.

WINDOWS:
  ActiveDates                   today .. end of next calendar month
  ShortLeadTimeAllocationDates  next working day (incl. today); plus the
                                following working day once the 11:00
                                same-day cutoff has passed
  LongLeadTimeAllocationDates   after the short window, through the
                                next-or-current Thursday + 8 days
  WeeklyNotificationDates       the working week ending on the last
                                long-lead date
  NextWorkingDate               first working day strictly after today

  All windows contain working days only: never a Saturday, a Sunday, or a
  bank holiday.

SEE ALSO:
  - date.go: the Date value type
  - holidays.go: the bank-holiday set
*/
package calendar

import (
	"time"
)

// ShortLeadCutoffHour is the local hour after which same-day requests
// roll into the next decision point as well.
const ShortLeadCutoffHour = 11

// DefaultTimeZone is the business time zone used unless overridden.
const DefaultTimeZone = "Europe/London"

// Calculator computes the engine's date windows from the current instant.
type Calculator struct {
	// Now supplies the current instant; defaults to time.Now.
	Now func() time.Time

	// Location is the fixed business time zone.
	Location *time.Location

	// Holidays is the bank-holiday exclusion set; nil means none.
	Holidays *HolidaySet
}

// NewCalculator creates a Calculator over the given zone and holidays.
func NewCalculator(loc *time.Location, holidays *HolidaySet) *Calculator {
	return &Calculator{Now: time.Now, Location: loc, Holidays: holidays}
}

// localNow returns the current instant expressed in the business zone.
func (c *Calculator) localNow() time.Time {
	return c.Now().In(c.Location)
}

// Today returns the current local calendar date.
func (c *Calculator) Today() Date {
	return DateOf(c.localNow())
}

// IsWorkingDay reports whether d is neither a weekend nor a bank holiday.
func (c *Calculator) IsWorkingDay(d Date) bool {
	return !d.IsWeekend() && !c.Holidays.Contains(d)
}

// workingDayOnOrAfter returns the first working day >= d.
func (c *Calculator) workingDayOnOrAfter(d Date) Date {
	for !c.IsWorkingDay(d) {
		d = d.AddDays(1)
	}
	return d
}

// NextWorkingDate returns the first working day strictly after today.
func (c *Calculator) NextWorkingDate() Date {
	return c.workingDayOnOrAfter(c.Today().AddDays(1))
}

// ActiveDates returns the working days from today through the end of next
// calendar month, ascending.
func (c *Calculator) ActiveDates() []Date {
	today := c.Today()
	firstOfMonth := NewDate(today.Year, today.Month, 1)
	last := firstOfMonth.AddMonths(2).AddDays(-1)

	var dates []Date
	for d := today; !d.After(last); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// ShortLeadTimeAllocationDates returns the dates decided without the
// reservation carve-out: the next working day including today, plus the
// following working day once the same-day cutoff has passed.
func (c *Calculator) ShortLeadTimeAllocationDates() []Date {
	now := c.localNow()
	first := c.workingDayOnOrAfter(c.Today())

	dates := []Date{first}
	if first.Equal(c.Today()) && now.Hour() >= ShortLeadCutoffHour {
		dates = append(dates, c.workingDayOnOrAfter(first.AddDays(1)))
	}
	return dates
}

// LongLeadTimeAllocationDates returns the working days strictly after the
// last short-lead date through the fixed look-ahead horizon: the
// next-or-current Thursday plus one week plus one day.
func (c *Calculator) LongLeadTimeAllocationDates() []Date {
	short := c.ShortLeadTimeAllocationDates()
	lastShort := short[len(short)-1]

	thursday := c.Today()
	for thursday.Weekday() != time.Thursday {
		thursday = thursday.AddDays(1)
	}
	horizon := thursday.AddDays(8)

	var dates []Date
	for d := lastShort.AddDays(1); !d.After(horizon); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// WeeklyNotificationDates returns the working days from the Monday
// preceding the last long-lead date through that date.
func (c *Calculator) WeeklyNotificationDates() []Date {
	long := c.LongLeadTimeAllocationDates()
	last := long[len(long)-1]

	monday := last
	for monday.Weekday() != time.Monday {
		monday = monday.AddDays(-1)
	}

	var dates []Date
	for d := monday; !d.After(last); d = d.AddDays(1) {
		if c.IsWorkingDay(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// NextWorkingTime returns the instant of hour:min local time on the first
// working day strictly after the date of `after`.
func (c *Calculator) NextWorkingTime(after time.Time, hour, min int) time.Time {
	local := after.In(c.Location)
	next := c.workingDayOnOrAfter(DateOf(local).AddDays(1))
	return next.At(hour, min, c.Location)
}

// NextWeeklyTime returns the next occurrence of the given weekday at
// hour:min local time strictly after `after`.
func (c *Calculator) NextWeeklyTime(after time.Time, weekday time.Weekday, hour, min int) time.Time {
	local := after.In(c.Location)
	d := DateOf(local)
	for {
		if d.Weekday() == weekday {
			at := d.At(hour, min, c.Location)
			if at.After(after) {
				return at
			}
		}
		d = d.AddDays(1)
	}
}
