package gtfsmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func weekdayRule() CalendarRule {
	return CalendarRule{
		ServiceID: "WD",
		Monday:    true,
		Tuesday:   true,
		Wednesday: true,
		Thursday:  true,
		Friday:    true,
		StartDate: "20260101",
		EndDate:   "20261231",
	}
}

func TestCalendarRule_ActiveOn_WeekdayFlagDispatch(t *testing.T) {
	r := weekdayRule()

	// 2026-07-30 is a Thursday, 2026-08-01 is a Saturday.
	assert.True(t, r.ActiveOn(time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.ActiveOn(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)), "Saturday flag is unset on a weekday-only rule")
}

func TestCalendarRule_ActiveOn_OutsideDateRange(t *testing.T) {
	r := weekdayRule()

	assert.False(t, r.ActiveOn(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)), "before start_date")
	assert.False(t, r.ActiveOn(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)), "after end_date")
}

func TestCalendarRule_ActiveOn_BoundaryDatesInclusive(t *testing.T) {
	r := weekdayRule()
	// 2026-01-01 is a Thursday, 2026-12-31 is a Thursday.
	assert.True(t, r.ActiveOn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.ActiveOn(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
}
