package dailyreport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkWeek(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	monday := time.Date(2026, time.January, 19, 0, 0, 0, 0, loc)
	friday := time.Date(2026, time.January, 23, 23, 59, 59, 999_000_000, loc)

	cases := []struct {
		name  string
		ref   time.Time
		start time.Time
		end   time.Time
	}{
		{"wednesday", time.Date(2026, 1, 21, 10, 30, 0, 0, loc), monday, friday},
		{"monday midnight", monday, monday, friday},
		{"friday last ms", friday, monday, friday},
		{"saturday", time.Date(2026, 1, 24, 12, 0, 0, 0, loc), monday, friday},
		{"sunday goes back", time.Date(2026, 1, 18, 9, 0, 0, 0, loc),
			time.Date(2026, 1, 12, 0, 0, 0, 0, loc), time.Date(2026, 1, 16, 23, 59, 59, 999_000_000, loc)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			week := WorkWeek(tc.ref)
			assert.True(t, tc.start.Equal(week.Start), "start %s", week.Start)
			assert.True(t, tc.end.Equal(week.End), "end %s", week.End)
			assert.Equal(t, time.Monday, week.Start.Weekday())
			assert.Equal(t, time.Friday, week.End.Weekday())
			assert.Equal(t, loc, week.Start.Location())
		})
	}
}

func TestWorkWeekAcrossMonthBoundary(t *testing.T) {
	week := WorkWeek(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-02-23", week.Start.Format("2006-01-02"))
	assert.Equal(t, "2026-02-27", week.End.Format("2006-01-02"))
}

func TestWeekContains(t *testing.T) {
	week := WorkWeek(time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC))
	assert.True(t, week.Contains(week.Start))
	assert.True(t, week.Contains(week.End))
	assert.False(t, week.Contains(week.End.Add(time.Millisecond)))
	assert.False(t, week.Contains(week.Start.Add(-time.Nanosecond)))
}
