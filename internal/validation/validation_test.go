package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type window struct {
	Start string `json:"start_time" validate:"required,clock"`
	Day   string `json:"day" validate:"required,isodate"`
	Zone  string `json:"timezone" validate:"required,timezone"`
}

type batch struct {
	Items []window `json:"items" validate:"max=2,dive"`
}

func TestIsValidClock(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59:59", "12:00:00"} {
		assert.True(t, IsValidClock(s), s)
	}
	for _, s := range []string{"24:00", "9:30", "12:60", "12:00:60", "noon", "", "12:00:00:00"} {
		assert.False(t, IsValidClock(s), s)
	}
}

func TestStruct_ReportsJSONFieldPaths(t *testing.T) {
	err := Struct(batch{Items: []window{
		{Start: "09:00", Day: "2025-01-06", Zone: "Europe/Istanbul"},
		{Start: "25:00", Day: "06/01/2025", Zone: "Mars/Olympus"},
	}})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Rule
	}
	assert.Equal(t, "clock", byField["items[1].start_time"])
	assert.Equal(t, "isodate", byField["items[1].day"])
	assert.Equal(t, "timezone", byField["items[1].timezone"])
	assert.Len(t, verr.Fields, 3)
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(window{Start: "09:00:00", Day: "2025-02-28", Zone: "UTC"}))
}

func TestNewf(t *testing.T) {
	err := Newf("end_time", "after", "must be after %s", "start_time")
	assert.Equal(t, "validation failed: end_time: must be after start_time", err.Error())
}
