package core

import "time"

// Week is a Monday-anchored calendar week, stored as a date with no time
// component. All timesheets are week-granular (spec: "week-start").
type Week struct {
	start time.Time
}

// NewWeek constructs a Week anchored at the given Monday. It does not
// validate Monday alignment — use IsMonday to check it, or Monday() to
// align a date to its week's Monday.
func NewWeek(year int, month time.Month, day int) Week {
	return Week{start: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// WeekFromTime truncates t to midnight UTC and wraps it as a Week.
func WeekFromTime(t time.Time) Week {
	return Week{start: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// CurrentWeek returns the Monday-anchored week containing now.
func CurrentWeek(now time.Time) Week {
	return Monday(WeekFromTime(now))
}

// Monday returns the Monday of the week containing w (idempotent if w is
// already a Monday).
func Monday(w Week) Week {
	// time.Weekday: Sunday=0, Monday=1, ... Saturday=6. Days since Monday:
	days := (int(w.start.Weekday()) + 6) % 7
	return Week{start: w.start.AddDate(0, 0, -days)}
}

// IsMonday reports whether w is already Monday-aligned.
func (w Week) IsMonday() bool { return w.start.Weekday() == time.Monday }

// Before reports whether w is strictly before other.
func (w Week) Before(other Week) bool { return w.start.Before(other.start) }

// After reports whether w is strictly after other.
func (w Week) After(other Week) bool { return w.start.After(other.start) }

// Equal reports whether w and other are the same calendar week.
func (w Week) Equal(other Week) bool { return w.start.Equal(other.start) }

// AddWeeks returns w shifted by n weeks (may be negative).
func (w Week) AddWeeks(n int) Week { return Week{start: w.start.AddDate(0, 0, 7*n)} }

// Time returns the underlying Monday date.
func (w Week) Time() time.Time { return w.start }

// String renders the week start date as YYYY-MM-DD.
func (w Week) String() string { return w.start.Format("2006-01-02") }

// ParseWeek parses a YYYY-MM-DD string as produced by String(). Used by
// store/sqlite when reading persisted week_start columns.
func ParseWeek(s string) (Week, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Week{}, err
	}
	return Week{start: t}, nil
}
