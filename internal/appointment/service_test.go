package appointment_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

var now = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

var modes = []string{config.BookingAtomic, config.BookingLocked}

func newService(store *memstore.Store, mode string, opts ...appointment.Option) *appointment.Service {
	opts = append([]appointment.Option{appointment.WithClock(func() time.Time { return now })}, opts...)
	return appointment.NewService(
		store.Appointments(),
		store.Slots(),
		store,
		config.Config{BookingMode: mode},
		zerolog.Nop(),
		opts...,
	)
}

func freeSlot(store *memstore.Store, start time.Time) slot.Slot {
	return store.AddSlot(slot.Slot{
		DoctorID:         uuid.New(),
		SpecializationID: uuid.New(),
		StartTime:        start,
		EndTime:          start.Add(30 * time.Minute),
		DurationMins:     30,
		Source:           slot.SourceGenerated,
	})
}

func book(slotID uuid.UUID) appointment.BookInput {
	return appointment.BookInput{SlotID: slotID.String()}
}

func TestBookSlot_RaceHasOneWinner(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			store := memstore.New()
			svc := newService(store, mode)
			sl := freeSlot(store, now.Add(48*time.Hour))

			const contenders = 16
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				wins      int
				conflicts int
			)
			start := make(chan struct{})
			for i := 0; i < contenders; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := svc.BookSlot(context.Background(), uuid.New(), book(sl.ID))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						wins++
					case errors.Is(err, appointment.ErrAlreadyBooked):
						conflicts++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, 1, wins)
			assert.Equal(t, contenders-1, conflicts)

			got, err := store.Slots().GetByID(context.Background(), sl.ID)
			require.NoError(t, err)
			assert.True(t, got.IsBooked)

			list, err := svc.ListForDoctor(context.Background(), sl.DoctorID, appointment.ListFilter{})
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestBookSlot_CancelThenRebook(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			store := memstore.New()
			svc := newService(store, mode)
			sl := freeSlot(store, now.Add(48*time.Hour))
			ctx := context.Background()
			alice, bob := uuid.New(), uuid.New()

			first, err := svc.BookSlot(ctx, alice, book(sl.ID))
			require.NoError(t, err)
			assert.Equal(t, appointment.StatusConfirmed, first.Status)

			require.NoError(t, svc.CancelAppointment(ctx, alice, first.ID))

			freed, err := store.Slots().GetByID(ctx, sl.ID)
			require.NoError(t, err)
			assert.False(t, freed.IsBooked)

			second, err := svc.BookSlot(ctx, bob, book(sl.ID))
			require.NoError(t, err)

			rebooked, err := store.Slots().GetByID(ctx, sl.ID)
			require.NoError(t, err)
			assert.True(t, rebooked.IsBooked)

			list, err := svc.ListForDoctor(ctx, sl.DoctorID, appointment.ListFilter{})
			require.NoError(t, err)
			require.Len(t, list, 2)
			statuses := map[uuid.UUID]appointment.AppointmentStatus{}
			for _, a := range list {
				assert.Equal(t, sl.ID, a.SlotID)
				statuses[a.ID] = a.Status
			}
			assert.Equal(t, appointment.StatusCanceled, statuses[first.ID])
			assert.Equal(t, appointment.StatusConfirmed, statuses[second.ID])
		})
	}
}

func TestCancelAppointment_NotFoundCases(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			store := memstore.New()
			svc := newService(store, mode)
			sl := freeSlot(store, now.Add(48*time.Hour))
			ctx := context.Background()
			owner := uuid.New()

			appt, err := svc.BookSlot(ctx, owner, book(sl.ID))
			require.NoError(t, err)

			assert.ErrorIs(t, svc.CancelAppointment(ctx, uuid.New(), appt.ID), appointment.ErrAppointmentNotFound, "not yours")
			assert.ErrorIs(t, svc.CancelAppointment(ctx, owner, uuid.New()), appointment.ErrAppointmentNotFound, "missing")

			still, err := store.Slots().GetByID(ctx, sl.ID)
			require.NoError(t, err)
			assert.True(t, still.IsBooked, "a failed cancel keeps the slot booked")

			require.NoError(t, svc.CancelAppointment(ctx, owner, appt.ID))
			assert.ErrorIs(t, svc.CancelAppointment(ctx, owner, appt.ID), appointment.ErrAppointmentNotFound, "already canceled")
		})
	}
}

func TestBookSlot_MissingSlotIsAlreadyBooked(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode, func(t *testing.T) {
			svc := newService(memstore.New(), mode)
			_, err := svc.BookSlot(context.Background(), uuid.New(), book(uuid.New()))
			assert.ErrorIs(t, err, appointment.ErrAlreadyBooked)
		})
	}
}

func TestBookSlot_ValidatesInput(t *testing.T) {
	store := memstore.New()
	svc := newService(store, config.BookingAtomic)
	sl := freeSlot(store, now.Add(48*time.Hour))

	long := strings.Repeat("a", 2001)
	inputs := map[string]appointment.BookInput{
		"bad slot id":   {SlotID: "nope"},
		"no slot id":    {},
		"long symptoms": {SlotID: sl.ID.String(), Symptoms: &long},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := svc.BookSlot(context.Background(), uuid.New(), in)
			var verr *validation.Error
			assert.True(t, errors.As(err, &verr))
		})
	}

	got, err := store.Slots().GetByID(context.Background(), sl.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBooked)
}

func TestBookAndCancel_WriteEvents(t *testing.T) {
	store := memstore.New()
	svc := newService(store, config.BookingAtomic)
	sl := freeSlot(store, now.Add(48*time.Hour))
	ctx := context.Background()
	patient := uuid.New()

	appt, err := svc.BookSlot(ctx, patient, book(sl.ID))
	require.NoError(t, err)
	require.NoError(t, svc.CancelAppointment(ctx, patient, appt.ID))

	events := store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, appointment.EventAppointmentBooked, events[0].EventType)
	assert.Equal(t, appointment.EventAppointmentCanceled, events[1].EventType)
	require.NotNil(t, events[0].AppointmentID)
	assert.Equal(t, appt.ID, *events[0].AppointmentID)
	assert.Contains(t, string(events[0].Payload), sl.ID.String())
}

func TestListForPatient_FiltersAndOrders(t *testing.T) {
	store := memstore.New()
	svc := newService(store, config.BookingAtomic)
	ctx := context.Background()
	patient := uuid.New()

	late := freeSlot(store, now.Add(72*time.Hour))
	early := freeSlot(store, now.Add(24*time.Hour))
	other := freeSlot(store, now.Add(30*time.Hour))

	for _, sl := range []slot.Slot{late, early} {
		_, err := svc.BookSlot(ctx, patient, book(sl.ID))
		require.NoError(t, err)
	}
	_, err := svc.BookSlot(ctx, uuid.New(), book(other.ID))
	require.NoError(t, err)

	all, err := svc.ListForPatient(ctx, patient, appointment.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].SlotID)
	assert.Equal(t, late.ID, all[1].SlotID)

	from := now.Add(48 * time.Hour)
	filtered, err := svc.ListForPatient(ctx, patient, appointment.ListFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, late.ID, filtered[0].SlotID)
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []uuid.UUID
	fail map[uuid.UUID]bool
}

func (n *recordingNotifier) Remind(_ context.Context, a appointment.AppointmentDetail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[a.ID] {
		return errors.New("smtp down")
	}
	n.seen = append(n.seen, a.ID)
	return nil
}

func TestSendReminders_WindowAndActiveOnly(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{fail: map[uuid.UUID]bool{}}
	svc := newService(store, config.BookingAtomic, appointment.WithNotifier(notifier))
	ctx := context.Background()
	patient := uuid.New()

	due := freeSlot(store, now.Add(24*time.Hour+2*time.Minute))
	dueFailing := freeSlot(store, now.Add(24*time.Hour))
	tooLate := freeSlot(store, now.Add(24*time.Hour+5*time.Minute))
	canceled := freeSlot(store, now.Add(24*time.Hour+time.Minute))

	ids := map[uuid.UUID]uuid.UUID{}
	for _, sl := range []slot.Slot{due, dueFailing, tooLate, canceled} {
		a, err := svc.BookSlot(ctx, patient, book(sl.ID))
		require.NoError(t, err)
		ids[sl.ID] = a.ID
	}
	require.NoError(t, svc.CancelAppointment(ctx, patient, ids[canceled.ID]))
	notifier.fail[ids[dueFailing.ID]] = true

	res, err := svc.SendReminders(ctx, 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, appointment.ReminderResult{Processed: 2, Sent: 1}, res)
	assert.Equal(t, []uuid.UUID{ids[due.ID]}, notifier.seen)
}
