package slot

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrSlotNotFound = errors.New("slot not found")

// Repository is the slot inventory.
type Repository interface {
	// BulkInsertGenerated inserts candidates, skipping any (doctor, start)
	// that already exists, and returns how many rows were written.
	BulkInsertGenerated(ctx context.Context, doctorID, specializationID uuid.UUID, slots []Candidate) (int, error)
	// Search expects a clamped query.
	Search(ctx context.Context, q SearchQuery) (Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// LockForUpdate, MarkBooked and MarkFree run under the transaction in ctx.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error)
	MarkBooked(ctx context.Context, id uuid.UUID) error
	MarkFree(ctx context.Context, id uuid.UUID) error
}
