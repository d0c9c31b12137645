package core

import (
	"fmt"
	"time"
)

// A week is a Monday to Sunday span. It belongs to the month its Monday
// falls in, so the trailing days of a week may spill into the next month.

// FirstMonday returns the first Monday on or after the first day of p.
func FirstMonday(p Period) time.Time {
	first := p.FirstDay()
	offset := (int(time.Monday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset)
}

// CountWeeksStartingInMonth counts the Mondays inside p.
func CountWeeksStartingInMonth(p Period) int {
	monday := FirstMonday(p)
	last := p.LastDay()
	if monday.After(last) {
		return 0
	}
	return int(last.Sub(monday).Hours()/24)/7 + 1
}

// WeekDateRange returns the Monday and Sunday of the 1-based week of p.
func WeekDateRange(p Period, week int) (start, end time.Time, err error) {
	n := CountWeeksStartingInMonth(p)
	if week < 1 || week > n {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: week %d of %s has %d weeks", ErrInvalidWeek, week, p, n)
	}
	start = FirstMonday(p).AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6), nil
}

// WeekLabel renders a week range as "dd/mm - dd/mm".
func WeekLabel(start, end time.Time) string {
	return start.Format("02/01") + " - " + end.Format("02/01")
}
