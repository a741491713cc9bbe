package dailyreport

import "time"

// Week is an inclusive Monday-to-Friday window.
type Week struct {
	Start time.Time
	End   time.Time
}

// WorkWeek returns the Monday 00:00:00.000 to Friday 23:59:59.999 window that
// contains ref, in ref's location. Saturday and Sunday resolve to the week
// that just ended, never the upcoming one.
func WorkWeek(ref time.Time) Week {
	offset := 1 - int(ref.Weekday())
	if ref.Weekday() == time.Sunday {
		offset = -6
	}
	y, m, d := ref.Date()
	loc := ref.Location()
	monday := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
	friday := time.Date(y, m, d+offset+4, 23, 59, 59, int(999*time.Millisecond), loc)
	return Week{Start: monday, End: friday}
}

// Contains reports whether t falls inside the window.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
