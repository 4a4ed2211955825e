package slot

import (
	"time"

	"github.com/google/uuid"
)

type Source string

const (
	SourceGenerated Source = "generated"
	SourceManual    Source = "manual"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Slot struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	SpecializationID uuid.UUID `json:"specialization_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationMins     int       `json:"duration_mins"`
	IsBooked         bool      `json:"is_booked"`
	Source           Source    `json:"source"`
	CreatedAt        time.Time `json:"created_at"`
}

// SearchQuery selects free slots of one specialization starting in [From, To).
type SearchQuery struct {
	SpecializationID uuid.UUID
	From             time.Time
	To               time.Time
	Limit            int
	Offset           int
}

type Page struct {
	Items  []Slot `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type RegenerateResult struct {
	Inserted int `json:"inserted"`
}

// ClampPage maps limit into [1, MaxLimit] and offset to >= 0. Callers
// substitute DefaultLimit for an absent limit before clamping.
func ClampPage(limit, offset int) (int, int) {
	switch {
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
