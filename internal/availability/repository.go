package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrExceptionNotFound = errors.New("slot exception not found")

type Repository interface {
	// ListTemplates orders by weekday, then start time.
	ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]WeeklyTemplate, error)
	// ReplaceTemplates deletes every template of the doctor, then inserts rows.
	// Callers run it inside a transaction.
	ReplaceTemplates(ctx context.Context, doctorID uuid.UUID, rows []WeeklyTemplate) ([]WeeklyTemplate, error)
	ListDoctorsWithTemplates(ctx context.Context) ([]uuid.UUID, error)

	// ListExceptions orders by day descending, full-day rows first.
	ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]SlotException, error)
	CreateException(ctx context.Context, ex SlotException) (*SlotException, error)
	DeleteException(ctx context.Context, id, doctorID uuid.UUID) error
}
