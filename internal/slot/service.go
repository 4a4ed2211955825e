package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

// TemplateSource is the read side of the template and exception stores.
type TemplateSource interface {
	ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]availability.WeeklyTemplate, error)
	ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]availability.SlotException, error)
}

type SpecializationResolver interface {
	Resolve(ctx context.Context, doctorID uuid.UUID, requested *uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo      Repository
	templates TemplateSource
	specs     SpecializationResolver
	log       zerolog.Logger
	now       func() time.Time
	maxWeeks  int
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMaxWeeks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxWeeks = n
		}
	}
}

func NewService(repo Repository, templates TemplateSource, specs SpecializationResolver, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		templates: templates,
		specs:     specs,
		log:       log,
		now:       time.Now,
		maxWeeks:  26,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Regenerate materializes the doctor's templates minus exceptions into
// slots for the next weeks and returns how many new slots were stored.
// Existing slots, booked or not, are left alone, so repeated calls are safe.
func (s *Service) Regenerate(ctx context.Context, doctorID uuid.UUID, weeks int, specializationID *uuid.UUID) (RegenerateResult, error) {
	if weeks < 1 || weeks > s.maxWeeks {
		return RegenerateResult{}, validation.Newf("weeks", "range", "must be within 1..%d", s.maxWeeks)
	}

	specID, err := s.specs.Resolve(ctx, doctorID, specializationID)
	if err != nil {
		return RegenerateResult{}, err
	}

	templates, err := s.templates.ListTemplates(ctx, doctorID)
	if err != nil {
		return RegenerateResult{}, fmt.Errorf("load templates: %w", err)
	}
	if len(templates) == 0 {
		return RegenerateResult{}, nil
	}

	exceptions, err := s.templates.ListExceptions(ctx, doctorID)
	if err != nil {
		return RegenerateResult{}, fmt.Errorf("load exceptions: %w", err)
	}

	candidates := Plan(templates, exceptions, s.now(), weeks)
	if len(candidates) == 0 {
		return RegenerateResult{}, nil
	}

	inserted, err := s.repo.BulkInsertGenerated(ctx, doctorID, specID, candidates)
	if err != nil {
		return RegenerateResult{}, fmt.Errorf("store slots: %w", err)
	}

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Str("specialization_id", specID.String()).
		Int("weeks", weeks).
		Int("candidates", len(candidates)).
		Int("inserted", inserted).
		Msg("slots regenerated")

	return RegenerateResult{Inserted: inserted}, nil
}

// Search lists free slots; limit and offset are clamped, never rejected.
func (s *Service) Search(ctx context.Context, q SearchQuery) (Page, error) {
	q.Limit, q.Offset = ClampPage(q.Limit, q.Offset)
	page, err := s.repo.Search(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("search slots: %w", err)
	}
	return page, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Slot, error) {
	sl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return sl, nil
}
