// Package period resolves reporting periods to concrete calendar-aligned
// date ranges and answers day-granularity membership questions.
//
// Every function takes its reference time explicitly. Calculations happen in
// the location of the reference time, so callers control the time zone.
package period

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Period is a named reporting cadence.
type Period string

const (
	Week     Period = "week"
	Month    Period = "month"
	Semester Period = "semester"
	Year     Period = "year"
)

// lastMillisecond is the offset of the final instant of a day used as an
// inclusive upper bound.
const lastMillisecond = 999 * time.Millisecond

// DateRange is an inclusive window. Start is midnight of its day and End is
// 23:59:59.999 of its day.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by the range.
func (r DateRange) Days() int {
	return civil.DateOf(r.End).DaysSince(civil.DateOf(r.Start)) + 1
}

// Parse maps a keyword to a Period. Unknown keywords resolve to Month.
func Parse(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Week, Month, Semester, Year:
		return p
	default:
		return Month
	}
}

// RangeFor returns the window of kind p that contains ref's calendar day.
//
// week is Sunday through Saturday. month is the whole calendar month.
// semester is a rolling six-month window ending with ref's month.
// year runs from January 1 through the end of ref's month (year to date).
func RangeFor(p Period, ref time.Time) DateRange {
	y, m, _ := ref.Date()
	loc := ref.Location()

	switch Parse(string(p)) {
	case Week:
		start := startOfDay(ref).AddDate(0, 0, -int(ref.Weekday()))
		return DateRange{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
	case Semester:
		return DateRange{
			Start: time.Date(y, m-5, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y, m, loc),
		}
	case Year:
		return DateRange{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y, m, loc),
		}
	default:
		return DateRange{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y, m, loc),
		}
	}
}

// PreviousRangeFor returns the window immediately preceding RangeFor(p, ref).
// Boundaries are recomputed on the calendar rather than by subtracting a
// duration, so months of different length line up.
//
// The previous window of year is the whole preceding calendar year.
func PreviousRangeFor(p Period, ref time.Time) DateRange {
	y, m, _ := ref.Date()
	loc := ref.Location()

	switch Parse(string(p)) {
	case Week:
		current := RangeFor(Week, ref)
		start := current.Start.AddDate(0, 0, -7)
		return DateRange{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
	case Semester:
		return DateRange{
			Start: time.Date(y, m-11, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y, m-6, loc),
		}
	case Year:
		return DateRange{
			Start: time.Date(y-1, time.January, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y-1, time.December, loc),
		}
	default:
		return DateRange{
			Start: time.Date(y, m-1, 1, 0, 0, 0, 0, loc),
			End:   endOfMonth(y, m-1, loc),
		}
	}
}

// Custom builds a day-aligned range from two instants. Reversed bounds are
// swapped so that Start never exceeds End.
func Custom(from, to time.Time) DateRange {
	if to.Before(from) {
		from, to = to, from
	}
	return DateRange{Start: startOfDay(from), End: endOfDay(to.In(from.Location()))}
}

// PreviousCustom returns a window of the same duration as r that ends one
// instant before r.Start, aligned to day boundaries.
func PreviousCustom(r DateRange) DateRange {
	span := r.End.Sub(r.Start)
	end := r.Start.Add(-time.Millisecond)
	start := end.Add(-span)
	return DateRange{Start: startOfDay(start), End: endOfDay(end)}
}

// InRange reports whether t's calendar day, observed in the range's
// location, falls within the range's first and last day inclusive.
func InRange(t time.Time, r DateRange) bool {
	return DateInRange(civil.DateOf(t.In(r.Start.Location())), r)
}

// DateInRange is InRange for values that are already calendar days.
func DateInRange(d civil.Date, r DateRange) bool {
	first := civil.DateOf(r.Start)
	last := civil.DateOf(r.End.In(r.Start.Location()))
	return !d.Before(first) && !d.After(last)
}

// StringInRange accepts either a YYYY-MM-DD date or an RFC 3339 timestamp.
// Strings that parse as neither are reported as outside the range.
func StringInRange(s string, r DateRange) bool {
	if d, err := civil.ParseDate(s); err == nil {
		return DateInRange(d, r)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return InRange(t, r)
	}
	return false
}

// DayBounds returns the range covering exactly one calendar day.
func DayBounds(d civil.Date, loc *time.Location) DateRange {
	start := d.In(loc)
	return DateRange{Start: start, End: endOfDay(start)}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(lastMillisecond), t.Location())
}

// endOfMonth normalizes month overflow, so m may be outside 1..12.
func endOfMonth(y int, m time.Month, loc *time.Location) time.Time {
	// Day 0 of the following month is the last day of m.
	return endOfDay(time.Date(y, m+1, 0, 0, 0, 0, 0, loc))
}
