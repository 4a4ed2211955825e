package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrAlreadyBooked also covers a slot that does not exist; callers that
	// care look the slot up afterwards.
	ErrAlreadyBooked = errors.New("slot already booked")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// BookSlotAtomic flips the slot free->booked and inserts a confirmed
	// appointment in one statement. ErrAlreadyBooked when the flip matched nothing.
	BookSlotAtomic(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*Appointment, error)
	// CancelAtomic cancels an active appointment of the patient and frees its
	// slot in one statement. ErrAppointmentNotFound when nothing matched.
	CancelAtomic(ctx context.Context, appointmentID, patientID uuid.UUID) error

	// Row-lock path, run inside a transaction.
	InsertConfirmed(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*Appointment, error)
	MarkCanceled(ctx context.Context, appointmentID, patientID uuid.UUID) (uuid.UUID, error)

	ListForPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]AppointmentDetail, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, f ListFilter) ([]AppointmentDetail, error)
	// FindActiveStartingBetween returns active appointments whose slot starts in [from, to).
	FindActiveStartingBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
