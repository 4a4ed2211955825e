package slot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

// Monday 2025-01-06 08:00 UTC.
var monday = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

func template(weekday int, start, end string, mins int, zone string) availability.WeeklyTemplate {
	return availability.WeeklyTemplate{
		ID:               uuid.New(),
		Weekday:          weekday,
		StartTime:        start,
		EndTime:          end,
		SlotDurationMins: mins,
		Timezone:         zone,
	}
}

func strp(s string) *string { return &s }

func onDay(cs []Candidate, day string) []Candidate {
	var out []Candidate
	for _, c := range cs {
		if c.StartTime.Format(time.DateOnly) == day {
			out = append(out, c)
		}
	}
	return out
}

func starts(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.StartTime.Format("15:04"))
	}
	return out
}

func TestPlan_TilesTemplateWindow(t *testing.T) {
	got := onDay(Plan([]availability.WeeklyTemplate{template(1, "09:00", "12:00", 30, "UTC")}, nil, monday, 1), "2025-01-06")

	require.Len(t, got, 6)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, starts(got))
	for i, c := range got {
		assert.Equal(t, 30, c.DurationMins)
		assert.Equal(t, 30*time.Minute, c.EndTime.Sub(c.StartTime))
		if i > 0 {
			assert.True(t, got[i-1].EndTime.Equal(c.StartTime), "no gap or overlap")
		}
	}
}

func TestPlan_WindowCoversWeeksFromStartOfToday(t *testing.T) {
	got := Plan([]availability.WeeklyTemplate{template(1, "09:00", "10:00", 60, "UTC")}, nil, monday, 2)

	// Mondays 6, 13 and 20 Jan: the window ends at now+14d, after 20 Jan 00:00.
	assert.Equal(t, []string{"2025-01-06", "2025-01-13", "2025-01-20"}, []string{
		got[0].StartTime.Format(time.DateOnly),
		got[1].StartTime.Format(time.DateOnly),
		got[2].StartTime.Format(time.DateOnly),
	})
	assert.Len(t, got, 3)
}

func TestPlan_FullDayExceptionSuppressesEveryTemplate(t *testing.T) {
	templates := []availability.WeeklyTemplate{
		template(1, "09:00", "12:00", 30, "UTC"),
		template(1, "14:00", "16:00", 20, "UTC"),
	}
	exceptions := []availability.SlotException{{Day: "2025-01-06", FullDay: true}}

	got := Plan(templates, exceptions, monday, 1)

	assert.Empty(t, onDay(got, "2025-01-06"))
	assert.Len(t, onDay(got, "2025-01-13"), 6+6)
}

func TestPlan_PartialExceptionSubtractsWindow(t *testing.T) {
	templates := []availability.WeeklyTemplate{template(1, "09:00", "12:00", 30, "UTC")}
	exceptions := []availability.SlotException{{Day: "2025-01-06", StartTime: strp("10:00:00"), EndTime: strp("11:00:00")}}

	got := Plan(templates, exceptions, monday, 1)

	assert.Equal(t, []string{"09:00", "09:30", "11:00", "11:30"}, starts(onDay(got, "2025-01-06")))
	assert.Len(t, onDay(got, "2025-01-13"), 6, "exception only applies to its own day")
}

func TestPlan_PartialExceptionInTemplateZone(t *testing.T) {
	// Istanbul is UTC+3 all year.
	templates := []availability.WeeklyTemplate{template(1, "09:00", "12:00", 60, "Europe/Istanbul")}
	exceptions := []availability.SlotException{{Day: "2025-01-06", StartTime: strp("10:00"), EndTime: strp("11:00")}}

	got := onDay(Plan(templates, exceptions, monday, 1), "2025-01-06")

	assert.Equal(t, []string{"06:00", "08:00"}, starts(got))
}

func TestPlan_DropsTrailingRemainder(t *testing.T) {
	got := onDay(Plan([]availability.WeeklyTemplate{template(1, "09:00", "10:45", 30, "UTC")}, nil, monday, 1), "2025-01-06")

	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, starts(got))
	assert.Equal(t, "10:30", got[len(got)-1].EndTime.Format("15:04"))
}

func TestPlan_FollowsDaylightSaving(t *testing.T) {
	// New York moved to EDT on Sunday 2025-03-09.
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	got := Plan([]availability.WeeklyTemplate{template(0, "09:00", "10:00", 60, "America/New_York")}, nil, now, 2)

	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC), got[0].StartTime)
	assert.Equal(t, time.Date(2025, 3, 9, 13, 0, 0, 0, time.UTC), got[1].StartTime)
	assert.Equal(t, time.Date(2025, 3, 16, 13, 0, 0, 0, time.UTC), got[2].StartTime)
}

func TestPlan_SkipsUnusableTemplates(t *testing.T) {
	templates := []availability.WeeklyTemplate{
		template(1, "09:00", "10:00", 30, "Not/AZone"),
		template(1, "12:00", "12:00", 30, "UTC"),
		template(1, "bad", "10:00", 30, "UTC"),
	}

	assert.Empty(t, Plan(templates, nil, monday, 1))
}

func TestPlan_IsDeterministic(t *testing.T) {
	templates := []availability.WeeklyTemplate{
		template(1, "09:00", "12:00", 30, "Europe/Istanbul"),
		template(3, "13:00", "17:00", 45, "America/New_York"),
	}
	exceptions := []availability.SlotException{{Day: "2025-01-08", StartTime: strp("14:00"), EndTime: strp("15:00")}}

	assert.Equal(t, Plan(templates, exceptions, monday, 4), Plan(templates, exceptions, monday, 4))
}

func TestPlan_NoTemplatesOrWeeks(t *testing.T) {
	assert.Empty(t, Plan(nil, nil, monday, 6))
	assert.Empty(t, Plan([]availability.WeeklyTemplate{template(1, "09:00", "10:00", 30, "UTC")}, nil, monday, 0))
}

func TestClampPage(t *testing.T) {
	tests := []struct{ limit, offset, wantLimit, wantOffset int }{
		{9999, -5, 100, 0},
		{0, 0, 1, 0},
		{-3, 10, 1, 10},
		{50, 7, 50, 7},
	}
	for _, tt := range tests {
		l, o := ClampPage(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, l)
		assert.Equal(t, tt.wantOffset, o)
	}
}
