package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

var t0 = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func candidates(n int) []slot.Candidate {
	out := make([]slot.Candidate, n)
	for i := range out {
		start := t0.Add(time.Duration(i) * 30 * time.Minute)
		out[i] = slot.Candidate{StartTime: start, EndTime: start.Add(30 * time.Minute), DurationMins: 30}
	}
	return out
}

func TestBulkInsertGenerated_SkipsExisting(t *testing.T) {
	s := New()
	ctx := context.Background()
	doctor, spec := uuid.New(), s.AddSpecialization("Cardiology", nil).ID

	n, err := s.Slots().BulkInsertGenerated(ctx, doctor, spec, candidates(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.Slots().BulkInsertGenerated(ctx, doctor, spec, candidates(6))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Slots().BulkInsertGenerated(ctx, uuid.New(), spec, candidates(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "uniqueness is per doctor")

	n, err = s.Slots().BulkInsertGenerated(ctx, doctor, spec, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkInsertGenerated_UnknownSpecialization(t *testing.T) {
	s := New()
	s.AddSpecialization("Cardiology", nil)

	n, err := s.Slots().BulkInsertGenerated(context.Background(), uuid.New(), uuid.New(), candidates(3))
	assert.ErrorIs(t, err, specialization.ErrUnknownSpecialization)
	assert.Zero(t, n)
	assert.Empty(t, s.slots)
}

func TestBulkInsertGenerated_ConcurrentCallsNeverDuplicate(t *testing.T) {
	s := New()
	doctor, spec := uuid.New(), s.AddSpecialization("Cardiology", nil).ID

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Slots().BulkInsertGenerated(context.Background(), doctor, spec, candidates(10))
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, total)
	assert.Len(t, s.slots, 10)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	spec := s.AddSpecialization("Cardiology", nil)
	sl := s.AddSlot(slot.Slot{DoctorID: uuid.New(), SpecializationID: spec.ID, StartTime: t0, EndTime: t0.Add(time.Hour), DurationMins: 60})
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Slots().MarkBooked(ctx, sl.ID))
		_, err := s.Appointments().InsertConfirmed(ctx, sl.ID, uuid.New(), nil)
		require.NoError(t, err)
		_, err = s.Slots().BulkInsertGenerated(ctx, sl.DoctorID, sl.SpecializationID, candidates(3))
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Slots().GetByID(ctx, sl.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBooked)
	assert.Empty(t, s.appointments)
	assert.Len(t, s.slots, 1)
}

func TestRowLockOpsRequireTx(t *testing.T) {
	s := New()
	ctx := context.Background()
	sl := s.AddSlot(slot.Slot{DoctorID: uuid.New(), StartTime: t0, EndTime: t0.Add(time.Hour)})

	_, err := s.Slots().LockForUpdate(ctx, sl.ID)
	assert.Error(t, err)
	assert.Error(t, s.Slots().MarkBooked(ctx, sl.ID))

	err = s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Slots().LockForUpdate(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, slot.ErrSlotNotFound)
}

func TestTemplates_NormalizedAndOrdered(t *testing.T) {
	s := New()
	ctx := context.Background()
	doctor := uuid.New()

	_, err := s.Availability().ReplaceTemplates(ctx, doctor, []availability.WeeklyTemplate{
		{Weekday: 3, StartTime: "13:00", EndTime: "17:00", SlotDurationMins: 30, Timezone: "UTC"},
		{Weekday: 1, StartTime: "14:00", EndTime: "15:00", SlotDurationMins: 30, Timezone: "UTC"},
		{Weekday: 1, StartTime: "09:00", EndTime: "12:00", SlotDurationMins: 30, Timezone: "UTC"},
	})
	require.NoError(t, err)

	got, err := s.Availability().ListTemplates(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "09:00:00", got[0].StartTime)
	assert.Equal(t, "14:00:00", got[1].StartTime)
	assert.Equal(t, 3, got[2].Weekday)

	_, err = s.Availability().ReplaceTemplates(ctx, doctor, nil)
	require.NoError(t, err)
	got, err = s.Availability().ListTemplates(ctx, doctor)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExceptions_OrderAndOwnership(t *testing.T) {
	s := New()
	ctx := context.Background()
	doctor := uuid.New()
	ten, eleven := "10:00", "11:00"

	partial, err := s.Availability().CreateException(ctx, availability.SlotException{DoctorID: doctor, Day: "2025-01-06", StartTime: &ten, EndTime: &eleven})
	require.NoError(t, err)
	_, err = s.Availability().CreateException(ctx, availability.SlotException{DoctorID: doctor, Day: "2025-01-06", FullDay: true})
	require.NoError(t, err)
	_, err = s.Availability().CreateException(ctx, availability.SlotException{DoctorID: doctor, Day: "2025-01-07", FullDay: true})
	require.NoError(t, err)

	got, err := s.Availability().ListExceptions(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-07", got[0].Day)
	assert.True(t, got[1].FullDay)
	assert.Equal(t, "10:00:00", *got[2].StartTime)

	assert.ErrorIs(t, s.Availability().DeleteException(ctx, partial.ID, uuid.New()), availability.ErrExceptionNotFound)
	require.NoError(t, s.Availability().DeleteException(ctx, partial.ID, doctor))
	assert.ErrorIs(t, s.Availability().DeleteException(ctx, partial.ID, doctor), availability.ErrExceptionNotFound)
}
