package specialization

import (
	"time"

	"github.com/google/uuid"
)

type Specialization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
}

// Link ties a doctor to one specialization. Name and Description come from
// the joined catalogue row.
type Link struct {
	ID               uuid.UUID `json:"id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	SpecializationID uuid.UUID `json:"specialization_id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReplaceInput struct {
	SpecializationIDs []uuid.UUID `json:"specializationIds" validate:"required,min=1"`
}
