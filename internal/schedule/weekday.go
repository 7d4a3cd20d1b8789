package schedule

import (
	"fmt"
	"time"
)

// Weekday is a schedulable recurring day. Sunday is not schedulable:
// the institution runs no Sunday sessions, so date lookups made on a
// Sunday resolve to the following Monday (see ResolveWeekday).
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// DateLayout is the civil-date wire format used everywhere at the boundary.
const DateLayout = "2006-01-02"

var weekdayNames = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// ParseWeekday validates a lowercase weekday name.
func ParseWeekday(s string) (Weekday, error) {
	switch w := Weekday(s); w {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday:
		return w, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
}

// ParseDate parses a YYYY-MM-DD civil date. The returned time is midnight
// UTC; callers must not attach timezone meaning to it.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ResolveWeekday maps a calendar date to the weekday used for recurrence
// matching. A Sunday date is advanced one day, so Sunday queries see the
// following Monday's schedule and the result is never Sunday.
func ResolveWeekday(d time.Time) Weekday {
	if d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return weekdayNames[d.Weekday()]
}

// ResolveWeekdayString parses a civil date string and resolves its weekday.
func ResolveWeekdayString(date string) (Weekday, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return ResolveWeekday(d), nil
}

// normalizeWeekdays validates and dedupes a weekday list, preserving the
// Monday..Saturday order regardless of input order.
func normalizeWeekdays(in []string) ([]Weekday, error) {
	seen := make(map[Weekday]bool, len(in))
	for _, s := range in {
		w, err := ParseWeekday(s)
		if err != nil {
			return nil, err
		}
		seen[w] = true
	}
	out := make([]Weekday, 0, len(seen))
	for _, w := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday} {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out, nil
}

func containsWeekday(set []Weekday, w Weekday) bool {
	for _, d := range set {
		if d == w {
			return true
		}
	}
	return false
}
