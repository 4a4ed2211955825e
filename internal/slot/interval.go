package slot

import "time"

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Difference returns what is left of i once block is removed: nothing, one
// piece, or two pieces when block sits strictly inside i.
func (i Interval) Difference(block Interval) []Interval {
	if !i.Valid() {
		return nil
	}
	if !block.Valid() || !i.Overlaps(block) {
		return []Interval{i}
	}

	var out []Interval
	if block.Start.After(i.Start) {
		out = append(out, Interval{Start: i.Start, End: block.Start})
	}
	if block.End.Before(i.End) {
		out = append(out, Interval{Start: block.End, End: i.End})
	}
	return out
}

// Subtract removes block from every interval in set.
func Subtract(set []Interval, block Interval) []Interval {
	out := make([]Interval, 0, len(set)+1)
	for _, iv := range set {
		out = append(out, iv.Difference(block)...)
	}
	return out
}

// Tile cuts i into consecutive pieces of length d starting at i.Start.
// A trailing remainder shorter than d is dropped.
func (i Interval) Tile(d time.Duration) []Interval {
	if d <= 0 || !i.Valid() {
		return nil
	}

	var out []Interval
	for cursor := i.Start; !cursor.Add(d).After(i.End); cursor = cursor.Add(d) {
		out = append(out, Interval{Start: cursor, End: cursor.Add(d)})
	}
	return out
}
