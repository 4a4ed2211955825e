package specialization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

type Service struct {
	repo Repository
	tx   db.Transactor
}

func NewService(repo Repository, tx db.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Catalogue(ctx context.Context) ([]Specialization, error) {
	out, err := s.repo.ListCatalogue(ctx)
	if err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return out, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Link, error) {
	out, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list doctor specializations: %w", err)
	}
	return out, nil
}

func (s *Service) Replace(ctx context.Context, doctorID uuid.UUID, in ReplaceInput) ([]Link, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var out []Link
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.ReplaceAll(ctx, doctorID, in.SpecializationIDs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace doctor specializations: %w", err)
	}
	return out, nil
}

func (s *Service) Remove(ctx context.Context, doctorID, specializationID uuid.UUID) error {
	if err := s.repo.RemoveOne(ctx, doctorID, specializationID); err != nil {
		return fmt.Errorf("remove doctor specialization: %w", err)
	}
	return nil
}

// Resolve picks the specialization to tag a doctor's slots with. A supplied
// id is used as given; otherwise the doctor must have exactly one link.
func (s *Service) Resolve(ctx context.Context, doctorID uuid.UUID, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		return *requested, nil
	}

	links, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list doctor specializations: %w", err)
	}
	if len(links) != 1 {
		return uuid.Nil, ErrSpecializationRequired
	}
	return links[0].SpecializationID, nil
}
