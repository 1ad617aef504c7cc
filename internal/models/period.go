package models

import (
	"fmt"
	"time"
)

// Period is a calendar month identifier in YYYY-MM form. It is the grouping
// key for transactions, reports, and insights.
type Period string

const periodLayout = "2006-01"

func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid period %q (want YYYY-MM): %w", s, err)
	}
	return Period(t.Format(periodLayout)), nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period(t.UTC().Format(periodLayout))
}

// CurrentPeriod is the calendar month at evaluation time.
func CurrentPeriod() Period {
	return PeriodOf(time.Now())
}

// Bounds returns the half-open [start, end) UTC interval of the month.
func (p Period) Bounds() (time.Time, time.Time) {
	t, err := time.Parse(periodLayout, string(p))
	if err != nil {
		return time.Time{}, time.Time{}
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether ts falls inside the calendar month.
func (p Period) Contains(ts time.Time) bool {
	start, end := p.Bounds()
	ts = ts.UTC()
	return !ts.Before(start) && ts.Before(end)
}

func (p Period) String() string { return string(p) }
