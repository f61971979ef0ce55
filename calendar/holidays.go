/*
holidays.go - Bank holiday exclusion set

PURPOSE:
  Holds the set of bank holidays excluded from business-day arithmetic.
  A holiday matches by exact date; a holiday that falls on a weekend has
  no additional effect (the day was already excluded).

SOURCES:
  Holidays can be loaded from a YAML file (seed data, see LoadHolidayFile)
  or from the store's bank_holidays table at startup.

SEE ALSO:
  - calculator.go: IsWorkingDay consults the set
  - store/sqlite: durable bank_holidays table
*/
package calendar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HolidaySet is the bank-holiday lookup used by the Calculator.
type HolidaySet struct {
	dates map[Date]struct{}
}

func NewHolidaySet(dates ...Date) *HolidaySet {
	hs := &HolidaySet{dates: make(map[Date]struct{}, len(dates))}
	for _, d := range dates {
		hs.dates[d] = struct{}{}
	}
	return hs
}

// Contains reports whether d is a bank holiday.
func (hs *HolidaySet) Contains(d Date) bool {
	if hs == nil {
		return false
	}
	_, ok := hs.dates[d]
	return ok
}

// Dates returns the holidays in unspecified order.
func (hs *HolidaySet) Dates() []Date {
	out := make([]Date, 0, len(hs.dates))
	for d := range hs.dates {
		out = append(out, d)
	}
	return out
}

// holidayFile is the YAML shape:
//
//	bank_holidays:
//	  - date: 2026-12-25
//	    name: Christmas Day
type holidayFile struct {
	BankHolidays []holidayEntry `yaml:"bank_holidays"`
}

type holidayEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// LoadHolidayFile reads a bank-holiday YAML file into a HolidaySet.
func LoadHolidayFile(path string) (*HolidaySet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var file holidayFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file: %w", err)
	}

	dates := make([]Date, 0, len(file.BankHolidays))
	for _, entry := range file.BankHolidays {
		d, err := ParseDate(entry.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", entry.Name, err)
		}
		dates = append(dates, d)
	}
	return NewHolidaySet(dates...), nil
}
