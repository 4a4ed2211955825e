package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

const (
	EventAppointmentBooked   = "APPOINTMENT_BOOKED"
	EventAppointmentCanceled = "APPOINTMENT_CANCELED"
)

// SlotLocker is the part of the slot inventory the row-lock path needs.
type SlotLocker interface {
	LockForUpdate(ctx context.Context, id uuid.UUID) (*slot.Slot, error)
	MarkBooked(ctx context.Context, id uuid.UUID) error
	MarkFree(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	slots    SlotLocker
	tx       db.Transactor
	mode     string
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, slots SlotLocker, tx db.Transactor, cfg config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		slots:    slots,
		tx:       tx,
		mode:     cfg.BookingMode,
		notifier: NewLogNotifier(log),
		log:      log,
		now:      time.Now,
	}
	if s.mode == "" {
		s.mode = config.BookingAtomic
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookSlot turns a free slot into a confirmed appointment for the patient.
// Of several concurrent calls for one slot exactly one succeeds; the rest
// get ErrAlreadyBooked.
func (s *Service) BookSlot(ctx context.Context, patientID uuid.UUID, in BookInput) (*Appointment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	slotID, err := uuid.Parse(in.SlotID)
	if err != nil {
		return nil, validation.Newf("slotId", "uuid", "must be a UUID")
	}

	var appt *Appointment
	if s.mode == config.BookingLocked {
		appt, err = s.bookLocked(ctx, slotID, patientID, in.Symptoms)
	} else {
		appt, err = s.repo.BookSlotAtomic(ctx, slotID, patientID, in.Symptoms)
	}
	if err != nil {
		if errors.Is(err, ErrAlreadyBooked) {
			s.log.Info().
				Str("slot_id", slotID.String()).
				Str("patient_id", patientID.String()).
				Msg("booking conflict")
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}

	s.logEvent(ctx, appt.ID, EventAppointmentBooked, map[string]any{
		"slot_id":    slotID.String(),
		"patient_id": patientID.String(),
		"mode":       s.mode,
	})
	return appt, nil
}

func (s *Service) bookLocked(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*Appointment, error) {
	var appt *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sl, err := s.slots.LockForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, slot.ErrSlotNotFound) {
				return ErrAlreadyBooked
			}
			return fmt.Errorf("lock slot: %w", err)
		}
		if sl.IsBooked {
			return ErrAlreadyBooked
		}
		if err := s.slots.MarkBooked(ctx, slotID); err != nil {
			return fmt.Errorf("mark slot booked: %w", err)
		}
		appt, err = s.repo.InsertConfirmed(ctx, slotID, patientID, symptoms)
		return err
	})
	return appt, err
}

// CancelAppointment cancels the patient's active appointment and frees its
// slot. Missing, foreign and already-final appointments all give
// ErrAppointmentNotFound.
func (s *Service) CancelAppointment(ctx context.Context, patientID, appointmentID uuid.UUID) error {
	var err error
	if s.mode == config.BookingLocked {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			slotID, err := s.repo.MarkCanceled(ctx, appointmentID, patientID)
			if err != nil {
				return err
			}
			return s.slots.MarkFree(ctx, slotID)
		})
	} else {
		err = s.repo.CancelAtomic(ctx, appointmentID, patientID)
	}
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, appointmentID, EventAppointmentCanceled, map[string]any{
		"patient_id": patientID.String(),
		"mode":       s.mode,
	})
	return nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	out, err := s.repo.ListForPatient(ctx, patientID, f)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return out, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	out, err := s.repo.ListForDoctor(ctx, doctorID, f)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	return out, nil
}

// SendReminders notifies every active appointment starting in
// [now+24h, now+24h+window). The worker calls it once per window.
func (s *Service) SendReminders(ctx context.Context, window time.Duration) (ReminderResult, error) {
	from := s.now().UTC().Add(24 * time.Hour)
	to := from.Add(window)

	due, err := s.repo.FindActiveStartingBetween(ctx, from, to)
	if err != nil {
		return ReminderResult{}, fmt.Errorf("find due reminders: %w", err)
	}

	res := ReminderResult{Processed: len(due)}
	for _, a := range due {
		if err := s.notifier.Remind(ctx, a); err != nil {
			s.log.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("send reminder")
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = []byte("{}")
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
