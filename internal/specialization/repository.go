package specialization

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrLinkNotFound          = errors.New("doctor specialization not found")
	ErrUnknownSpecialization = errors.New("unknown specialization")

	// ErrSpecializationRequired is returned when a doctor has zero or several
	// linked specializations and the caller did not pick one.
	ErrSpecializationRequired = errors.New("specialization required")
)

type Repository interface {
	ListCatalogue(ctx context.Context) ([]Specialization, error)
	// ListForDoctor orders by specialization name.
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Link, error)
	// ReplaceAll deletes the doctor's links, then inserts ids, ignoring duplicates.
	ReplaceAll(ctx context.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]Link, error)
	RemoveOne(ctx context.Context, doctorID, specializationID uuid.UUID) error
}
