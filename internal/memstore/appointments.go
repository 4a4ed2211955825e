package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

type appointmentRepo struct{ s *Store }

func (r appointmentRepo) BookSlotAtomic(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*appointment.Appointment, error) {
	defer r.s.acquire(ctx)()

	sl, ok := r.s.slots[slotID]
	if !ok || sl.IsBooked {
		return nil, appointment.ErrAlreadyBooked
	}
	sl.IsBooked = true
	r.s.onRollback(ctx, func() { sl.IsBooked = false })

	return r.s.insertAppointment(ctx, slotID, patientID, symptoms), nil
}

func (s *Store) insertAppointment(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) *appointment.Appointment {
	a := &appointment.Appointment{
		ID:        uuid.New(),
		SlotID:    slotID,
		PatientID: patientID,
		Status:    appointment.StatusConfirmed,
		Symptoms:  symptoms,
		BookedAt:  s.now(),
	}
	prev := s.appointments
	s.onRollback(ctx, func() { s.appointments = prev })
	s.appointments = append(s.appointments, a)

	out := *a
	return &out
}

func (r appointmentRepo) CancelAtomic(ctx context.Context, appointmentID, patientID uuid.UUID) error {
	defer r.s.acquire(ctx)()

	slotID, err := r.s.cancel(ctx, appointmentID, patientID)
	if err != nil {
		return err
	}
	if sl, ok := r.s.slots[slotID]; ok {
		prev := sl.IsBooked
		r.s.onRollback(ctx, func() { sl.IsBooked = prev })
		sl.IsBooked = false
	}
	return nil
}

func (s *Store) cancel(ctx context.Context, appointmentID, patientID uuid.UUID) (uuid.UUID, error) {
	for _, a := range s.appointments {
		if a.ID != appointmentID || a.PatientID != patientID || !a.Status.Active() {
			continue
		}
		prevStatus, prevAt := a.Status, a.CancelledAt
		s.onRollback(ctx, func() { a.Status, a.CancelledAt = prevStatus, prevAt })

		now := s.now()
		a.Status = appointment.StatusCanceled
		a.CancelledAt = &now
		return a.SlotID, nil
	}
	return uuid.Nil, appointment.ErrAppointmentNotFound
}

func (r appointmentRepo) InsertConfirmed(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*appointment.Appointment, error) {
	defer r.s.acquire(ctx)()

	// same guarantee as the partial unique index on active appointments
	for _, a := range r.s.appointments {
		if a.SlotID == slotID && a.Status.Active() {
			return nil, appointment.ErrAlreadyBooked
		}
	}
	return r.s.insertAppointment(ctx, slotID, patientID, symptoms), nil
}

func (r appointmentRepo) MarkCanceled(ctx context.Context, appointmentID, patientID uuid.UUID) (uuid.UUID, error) {
	defer r.s.acquire(ctx)()
	return r.s.cancel(ctx, appointmentID, patientID)
}

func (r appointmentRepo) ListForPatient(ctx context.Context, patientID uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error) {
	defer r.s.acquire(ctx)()
	return r.s.details(func(a *appointment.Appointment, doctorID uuid.UUID, start time.Time) bool {
		return a.PatientID == patientID && f.Matches(start)
	}), nil
}

func (r appointmentRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error) {
	defer r.s.acquire(ctx)()
	return r.s.details(func(a *appointment.Appointment, slotDoctor uuid.UUID, start time.Time) bool {
		return slotDoctor == doctorID && f.Matches(start)
	}), nil
}

func (r appointmentRepo) FindActiveStartingBetween(ctx context.Context, from, to time.Time) ([]appointment.AppointmentDetail, error) {
	defer r.s.acquire(ctx)()
	return r.s.details(func(a *appointment.Appointment, _ uuid.UUID, start time.Time) bool {
		return a.Status.Active() && !start.Before(from) && start.Before(to)
	}), nil
}

func (r appointmentRepo) InsertEvent(ctx context.Context, ev appointment.EventLog) error {
	defer r.s.acquire(ctx)()

	r.s.nextEventID++
	ev.ID = r.s.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.s.now()
	}
	prev := r.s.events
	r.s.onRollback(ctx, func() { r.s.events = prev })
	r.s.events = append(r.s.events, ev)
	return nil
}

func (s *Store) details(keep func(a *appointment.Appointment, doctorID uuid.UUID, start time.Time) bool) []appointment.AppointmentDetail {
	out := []appointment.AppointmentDetail{}
	for _, a := range s.appointments {
		sl, ok := s.slots[a.SlotID]
		if !ok || !keep(a, sl.DoctorID, sl.StartTime) {
			continue
		}
		out = append(out, appointment.AppointmentDetail{
			Appointment:      *a,
			DoctorID:         sl.DoctorID,
			SpecializationID: sl.SpecializationID,
			StartTime:        sl.StartTime,
			EndTime:          sl.EndTime,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].BookedAt.Before(out[j].BookedAt)
	})
	return out
}
