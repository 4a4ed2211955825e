package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/availability"
)

type availabilityRepo struct{ s *Store }

func (r availabilityRepo) ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]availability.WeeklyTemplate, error) {
	defer r.s.acquire(ctx)()
	return r.s.templatesOf(doctorID), nil
}

func (s *Store) templatesOf(doctorID uuid.UUID) []availability.WeeklyTemplate {
	out := []availability.WeeklyTemplate{}
	for _, t := range s.templates {
		if t.DoctorID == doctorID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (r availabilityRepo) ReplaceTemplates(ctx context.Context, doctorID uuid.UUID, rows []availability.WeeklyTemplate) ([]availability.WeeklyTemplate, error) {
	defer r.s.acquire(ctx)()

	prev := r.s.templates
	r.s.onRollback(ctx, func() { r.s.templates = prev })

	next := make([]availability.WeeklyTemplate, 0, len(prev)+len(rows))
	for _, t := range prev {
		if t.DoctorID != doctorID {
			next = append(next, t)
		}
	}
	now := r.s.now()
	for _, t := range rows {
		t.ID = uuid.New()
		t.DoctorID = doctorID
		t.StartTime = normalizeClock(t.StartTime)
		t.EndTime = normalizeClock(t.EndTime)
		t.CreatedAt = now
		t.UpdatedAt = now
		next = append(next, t)
	}
	r.s.templates = next

	return r.s.templatesOf(doctorID), nil
}

func (r availabilityRepo) ListDoctorsWithTemplates(ctx context.Context) ([]uuid.UUID, error) {
	defer r.s.acquire(ctx)()

	seen := make(map[uuid.UUID]bool)
	out := []uuid.UUID{}
	for _, t := range r.s.templates {
		if !seen[t.DoctorID] {
			seen[t.DoctorID] = true
			out = append(out, t.DoctorID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r availabilityRepo) ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]availability.SlotException, error) {
	defer r.s.acquire(ctx)()

	out := []availability.SlotException{}
	for _, e := range r.s.exceptions {
		if e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day > out[j].Day
		}
		// full-day rows carry no start time and sort first
		if (out[i].StartTime == nil) != (out[j].StartTime == nil) {
			return out[i].StartTime == nil
		}
		if out[i].StartTime == nil {
			return false
		}
		return *out[i].StartTime < *out[j].StartTime
	})
	return out, nil
}

func (r availabilityRepo) CreateException(ctx context.Context, ex availability.SlotException) (*availability.SlotException, error) {
	defer r.s.acquire(ctx)()

	ex.ID = uuid.New()
	ex.CreatedAt = r.s.now()
	if ex.StartTime != nil {
		v := normalizeClock(*ex.StartTime)
		ex.StartTime = &v
	}
	if ex.EndTime != nil {
		v := normalizeClock(*ex.EndTime)
		ex.EndTime = &v
	}

	prev := r.s.exceptions
	r.s.onRollback(ctx, func() { r.s.exceptions = prev })
	r.s.exceptions = append(append([]availability.SlotException(nil), prev...), ex)

	out := ex
	return &out, nil
}

func (r availabilityRepo) DeleteException(ctx context.Context, id, doctorID uuid.UUID) error {
	defer r.s.acquire(ctx)()

	for i, e := range r.s.exceptions {
		if e.ID == id && e.DoctorID == doctorID {
			prev := r.s.exceptions
			r.s.onRollback(ctx, func() { r.s.exceptions = prev })

			next := append([]availability.SlotException(nil), prev[:i]...)
			r.s.exceptions = append(next, prev[i+1:]...)
			return nil
		}
	}
	return availability.ErrExceptionNotFound
}

// normalizeClock mirrors the TIME column: "09:00" reads back as "09:00:00".
func normalizeClock(s string) string {
	if v, err := availability.NormalizeClock(s); err == nil {
		return v
	}
	return s
}
