package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

type slotRepo struct{ s *Store }

// BulkInsertGenerated checks and inserts under one lock hold, so concurrent
// regenerations never create two slots for the same doctor and start.
func (r slotRepo) BulkInsertGenerated(ctx context.Context, doctorID, specializationID uuid.UUID, candidates []slot.Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	defer r.s.acquire(ctx)()

	if _, ok := r.s.specializations[specializationID]; !ok {
		return 0, specialization.ErrUnknownSpecialization
	}

	now := r.s.now()
	var added []uuid.UUID
	for _, c := range candidates {
		key := slotKey{doctorID: doctorID, start: c.StartTime.UnixNano()}
		if _, exists := r.s.slotsByStart[key]; exists {
			continue
		}
		sl := &slot.Slot{
			ID:               uuid.New(),
			DoctorID:         doctorID,
			SpecializationID: specializationID,
			StartTime:        c.StartTime.UTC(),
			EndTime:          c.EndTime.UTC(),
			DurationMins:     c.DurationMins,
			Source:           slot.SourceGenerated,
			CreatedAt:        now,
		}
		r.s.slots[sl.ID] = sl
		r.s.slotsByStart[key] = sl.ID
		added = append(added, sl.ID)
	}

	r.s.onRollback(ctx, func() {
		for _, id := range added {
			sl := r.s.slots[id]
			delete(r.s.slotsByStart, slotKey{doctorID: sl.DoctorID, start: sl.StartTime.UnixNano()})
			delete(r.s.slots, id)
		}
	})
	return len(added), nil
}

func (r slotRepo) Search(ctx context.Context, q slot.SearchQuery) (slot.Page, error) {
	defer r.s.acquire(ctx)()

	var matched []slot.Slot
	for _, sl := range r.s.slots {
		if sl.IsBooked || sl.SpecializationID != q.SpecializationID {
			continue
		}
		if sl.StartTime.Before(q.From) || !sl.StartTime.Before(q.To) {
			continue
		}
		matched = append(matched, *sl)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	page := slot.Page{Items: []slot.Slot{}, Total: len(matched), Limit: q.Limit, Offset: q.Offset}
	if q.Offset < len(matched) {
		end := min(q.Offset+q.Limit, len(matched))
		page.Items = append(page.Items, matched[q.Offset:end]...)
	}
	return page, nil
}

func (r slotRepo) GetByID(ctx context.Context, id uuid.UUID) (*slot.Slot, error) {
	defer r.s.acquire(ctx)()

	sl, ok := r.s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	out := *sl
	return &out, nil
}

// LockForUpdate needs no extra lock here: inside WithinTx the caller
// already holds the store mutex.
func (r slotRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*slot.Slot, error) {
	if r.s.txFrom(ctx) == nil {
		return nil, errNoTx
	}
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	out := *sl
	return &out, nil
}

func (r slotRepo) MarkBooked(ctx context.Context, id uuid.UUID) error {
	return r.setBooked(ctx, id, true)
}

func (r slotRepo) MarkFree(ctx context.Context, id uuid.UUID) error {
	return r.setBooked(ctx, id, false)
}

func (r slotRepo) setBooked(ctx context.Context, id uuid.UUID, booked bool) error {
	if r.s.txFrom(ctx) == nil {
		return errNoTx
	}
	sl, ok := r.s.slots[id]
	if !ok {
		return slot.ErrSlotNotFound
	}
	prev := sl.IsBooked
	r.s.onRollback(ctx, func() { sl.IsBooked = prev })
	sl.IsBooked = booked
	return nil
}
