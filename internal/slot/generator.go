package slot

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

// Candidate is a slot the generator wants to exist. Times are UTC.
type Candidate struct {
	StartTime    time.Time
	EndTime      time.Time
	DurationMins int
}

// Plan projects templates minus exceptions onto every UTC calendar day from
// the start of now's day up to now+weeks. It has no side effects: the same
// inputs always give the same candidates.
//
// The weekday of a day is taken in UTC, not in the template's zone. A
// template is placed on that calendar date in its own zone.
func Plan(templates []availability.WeeklyTemplate, exceptions []availability.SlotException, now time.Time, weeks int) []Candidate {
	if len(templates) == 0 || weeks <= 0 {
		return nil
	}

	now = now.UTC()
	end := now.AddDate(0, 0, 7*weeks)

	byWeekday := make(map[int][]availability.WeeklyTemplate)
	for _, t := range templates {
		byWeekday[t.Weekday] = append(byWeekday[t.Weekday], t)
	}
	byDay := make(map[string][]availability.SlotException)
	for _, e := range exceptions {
		byDay[e.Day] = append(byDay[e.Day], e)
	}
	zones := newZoneCache()

	var out []Candidate
	for d := startOfDay(now); d.Before(end); d = d.AddDate(0, 0, 1) {
		dayTemplates := byWeekday[int(d.Weekday())]
		if len(dayTemplates) == 0 {
			continue
		}
		dayExceptions := byDay[d.Format(time.DateOnly)]

		for _, t := range dayTemplates {
			loc, ok := zones.get(t.Timezone)
			if !ok {
				continue
			}
			window, ok := localWindow(d, t.StartTime, t.EndTime, loc)
			if !ok {
				continue
			}

			intervals := applyExceptions([]Interval{window}, dayExceptions, d, loc)

			length := time.Duration(t.SlotDurationMins) * time.Minute
			for _, iv := range intervals {
				for _, tile := range iv.Tile(length) {
					out = append(out, Candidate{
						StartTime:    tile.Start,
						EndTime:      tile.End,
						DurationMins: t.SlotDurationMins,
					})
				}
			}
		}
	}
	return out
}

func applyExceptions(intervals []Interval, exceptions []availability.SlotException, day time.Time, loc *time.Location) []Interval {
	for _, e := range exceptions {
		if e.FullDay {
			return nil
		}
		if e.StartTime == nil || e.EndTime == nil {
			continue
		}
		block, ok := localWindow(day, *e.StartTime, *e.EndTime, loc)
		if !ok {
			continue
		}
		intervals = Subtract(intervals, block)
	}
	return intervals
}

// localWindow converts the civil times start..end on day in loc to a UTC
// interval. ok is false for unparsable clocks or an empty window.
func localWindow(day time.Time, start, end string, loc *time.Location) (Interval, bool) {
	s, err := availability.ParseClock(start)
	if err != nil {
		return Interval{}, false
	}
	e, err := availability.ParseClock(end)
	if err != nil {
		return Interval{}, false
	}
	iv := Interval{Start: s.On(day, loc).UTC(), End: e.On(day, loc).UTC()}
	return iv, iv.Valid()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type zoneCache map[string]*time.Location

func newZoneCache() zoneCache { return zoneCache{} }

func (c zoneCache) get(name string) (*time.Location, bool) {
	if loc, ok := c[name]; ok {
		return loc, loc != nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		c[name] = nil
		return nil, false
	}
	c[name] = loc
	return loc, true
}
