package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, time.UTC)
}

func TestIntervalDifference(t *testing.T) {
	base := Interval{Start: at(9, 0), End: at(12, 0)}

	tests := []struct {
		name  string
		block Interval
		want  []Interval
	}{
		{
			name:  "block inside splits in two",
			block: Interval{Start: at(10, 0), End: at(11, 0)},
			want:  []Interval{{Start: at(9, 0), End: at(10, 0)}, {Start: at(11, 0), End: at(12, 0)}},
		},
		{
			name:  "block over the start",
			block: Interval{Start: at(8, 0), End: at(9, 30)},
			want:  []Interval{{Start: at(9, 30), End: at(12, 0)}},
		},
		{
			name:  "block over the end",
			block: Interval{Start: at(11, 30), End: at(13, 0)},
			want:  []Interval{{Start: at(9, 0), End: at(11, 30)}},
		},
		{
			name:  "block covers everything",
			block: Interval{Start: at(8, 0), End: at(13, 0)},
			want:  nil,
		},
		{
			name:  "disjoint block",
			block: Interval{Start: at(13, 0), End: at(14, 0)},
			want:  []Interval{base},
		},
		{
			name:  "touching block leaves interval whole",
			block: Interval{Start: at(12, 0), End: at(13, 0)},
			want:  []Interval{base},
		},
		{
			name:  "inverted block is ignored",
			block: Interval{Start: at(11, 0), End: at(10, 0)},
			want:  []Interval{base},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Difference(tt.block))
		})
	}
}

func TestSubtract_AcrossSet(t *testing.T) {
	set := []Interval{{Start: at(9, 0), End: at(10, 0)}, {Start: at(11, 0), End: at(12, 0)}}
	got := Subtract(set, Interval{Start: at(9, 30), End: at(11, 30)})

	assert.Equal(t, []Interval{
		{Start: at(9, 0), End: at(9, 30)},
		{Start: at(11, 30), End: at(12, 0)},
	}, got)
}

func TestTile(t *testing.T) {
	got := Interval{Start: at(9, 0), End: at(10, 45)}.Tile(30 * time.Minute)

	assert.Equal(t, []Interval{
		{Start: at(9, 0), End: at(9, 30)},
		{Start: at(9, 30), End: at(10, 0)},
		{Start: at(10, 0), End: at(10, 30)},
	}, got)

	assert.Nil(t, Interval{Start: at(9, 0), End: at(9, 20)}.Tile(30*time.Minute))
	assert.Nil(t, Interval{Start: at(9, 0), End: at(10, 0)}.Tile(0))
}
