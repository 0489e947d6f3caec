package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Money
// ============================================================

// MoneyScale is the number of decimal places every amount is kept at.
const MoneyScale = 2

// IsMoney reports whether d is expressible in whole cents.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// ============================================================
// Calendar dates
// ============================================================

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CivilDate returns t's calendar date in the location t already carries.
func CivilDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// DaysBetween returns the number of calendar days from -> to.
// Both values are compared by their calendar date, so DST shifts never
// produce fractional days.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// AddMonths moves t forward n calendar months, clamping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// MonthRange returns the first and last calendar day of t's month.
func MonthRange(t time.Time, loc *time.Location) DateRange {
	t = StartOfDay(t, loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return DateRange{Start: start, End: start.AddDate(0, 1, -1)}
}

// EndExclusive returns midnight of the day after End.
func (r DateRange) EndExclusive() time.Time {
	return r.End.AddDate(0, 0, 1)
}
