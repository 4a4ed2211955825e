package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusCompleted AppointmentStatus = "completed"
)

// Active reports whether the appointment still holds its slot.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Appointment struct {
	ID          uuid.UUID         `json:"id"`
	SlotID      uuid.UUID         `json:"availability_slot_id"`
	PatientID   uuid.UUID         `json:"patient_id"`
	Status      AppointmentStatus `json:"status"`
	Symptoms    *string           `json:"symptoms"`
	Notes       *string           `json:"notes"`
	BookedAt    time.Time         `json:"booked_at"`
	CancelledAt *time.Time        `json:"cancelled_at"`
}

// AppointmentDetail is an appointment joined with its slot.
type AppointmentDetail struct {
	Appointment
	DoctorID         uuid.UUID `json:"doctor_id"`
	SpecializationID uuid.UUID `json:"specialization_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// ListFilter bounds the slot start time: From inclusive, To exclusive.
type ListFilter struct {
	From *time.Time
	To   *time.Time
}

// Matches reports whether a slot starting at start passes the filter.
func (f ListFilter) Matches(start time.Time) bool {
	if f.From != nil && start.Before(*f.From) {
		return false
	}
	if f.To != nil && !start.Before(*f.To) {
		return false
	}
	return true
}

type BookInput struct {
	SlotID   string  `json:"slotId" validate:"required,uuid"`
	Symptoms *string `json:"symptoms" validate:"omitempty,max=2000"`
}

type ReminderResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
}
