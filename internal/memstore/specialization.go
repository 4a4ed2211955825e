package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

type specializationRepo struct{ s *Store }

func (r specializationRepo) ListCatalogue(ctx context.Context) ([]specialization.Specialization, error) {
	defer r.s.acquire(ctx)()

	out := make([]specialization.Specialization, 0, len(r.s.specializations))
	for _, sp := range r.s.specializations {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r specializationRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]specialization.Link, error) {
	defer r.s.acquire(ctx)()
	return r.s.linksOf(doctorID), nil
}

func (s *Store) linksOf(doctorID uuid.UUID) []specialization.Link {
	out := []specialization.Link{}
	for _, l := range s.links {
		if l.DoctorID != doctorID {
			continue
		}
		sp := s.specializations[l.SpecializationID]
		l.Name = sp.Name
		l.Description = sp.Description
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r specializationRepo) ReplaceAll(ctx context.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]specialization.Link, error) {
	defer r.s.acquire(ctx)()

	for _, id := range ids {
		if _, ok := r.s.specializations[id]; !ok {
			return nil, specialization.ErrUnknownSpecialization
		}
	}

	prev := r.s.links
	r.s.onRollback(ctx, func() { r.s.links = prev })

	next := make([]specialization.Link, 0, len(prev)+len(ids))
	for _, l := range prev {
		if l.DoctorID != doctorID {
			next = append(next, l)
		}
	}
	seen := make(map[uuid.UUID]bool)
	now := r.s.now()
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, specialization.Link{
			ID:               uuid.New(),
			DoctorID:         doctorID,
			SpecializationID: id,
			CreatedAt:        now,
		})
	}
	r.s.links = next

	return r.s.linksOf(doctorID), nil
}

func (r specializationRepo) RemoveOne(ctx context.Context, doctorID, specializationID uuid.UUID) error {
	defer r.s.acquire(ctx)()

	for i, l := range r.s.links {
		if l.DoctorID == doctorID && l.SpecializationID == specializationID {
			prev := r.s.links
			r.s.onRollback(ctx, func() { r.s.links = prev })

			next := append([]specialization.Link(nil), prev[:i]...)
			r.s.links = append(next, prev[i+1:]...)
			return nil
		}
	}
	return specialization.ErrLinkNotFound
}
