package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/validation"
)

type Service struct {
	repo Repository
	tx   db.Transactor
	log  zerolog.Logger
}

func NewService(repo Repository, tx db.Transactor, log zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, log: log}
}

func (s *Service) ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]WeeklyTemplate, error) {
	out, err := s.repo.ListTemplates(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

// ReplaceTemplates swaps the doctor's whole weekly schedule for in.Items.
// An empty list clears it.
func (s *Service) ReplaceTemplates(ctx context.Context, doctorID uuid.UUID, in ReplaceTemplatesInput) ([]WeeklyTemplate, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	rows := make([]WeeklyTemplate, 0, len(in.Items))
	for i, item := range in.Items {
		start, _ := ParseClock(item.StartTime)
		end, _ := ParseClock(item.EndTime)
		if !start.Before(end) {
			return nil, validation.Newf(fmt.Sprintf("items[%d].end_time", i), "gtfield", "end_time must be after start_time")
		}
		rows = append(rows, WeeklyTemplate{
			DoctorID:         doctorID,
			Weekday:          *item.Weekday,
			StartTime:        start.String(),
			EndTime:          end.String(),
			SlotDurationMins: item.SlotDurationMins,
			Timezone:         item.Timezone,
		})
	}

	var out []WeeklyTemplate
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.ReplaceTemplates(ctx, doctorID, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace templates: %w", err)
	}

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Int("templates", len(out)).
		Msg("weekly availability replaced")
	return out, nil
}

func (s *Service) ListDoctorsWithTemplates(ctx context.Context) ([]uuid.UUID, error) {
	out, err := s.repo.ListDoctorsWithTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors with templates: %w", err)
	}
	return out, nil
}

func (s *Service) ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]SlotException, error) {
	out, err := s.repo.ListExceptions(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}
	return out, nil
}

// CreateException stores a full-day block (no times) or a partial block
// (both times, start before end).
func (s *Service) CreateException(ctx context.Context, doctorID uuid.UUID, in ExceptionInput) (*SlotException, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	ex := SlotException{DoctorID: doctorID, Day: in.Day, FullDay: in.FullDay, Reason: in.Reason}
	hasStart := in.StartTime != nil && *in.StartTime != ""
	hasEnd := in.EndTime != nil && *in.EndTime != ""

	if in.FullDay {
		if hasStart || hasEnd {
			return nil, validation.Newf("full_day", "exclusive", "full_day exceptions take no start_time or end_time")
		}
	} else {
		if !hasStart || !hasEnd {
			return nil, validation.Newf("start_time", "required_with", "partial exceptions need both start_time and end_time")
		}
		start, _ := ParseClock(*in.StartTime)
		end, _ := ParseClock(*in.EndTime)
		if !start.Before(end) {
			return nil, validation.Newf("end_time", "gtfield", "end_time must be after start_time")
		}
		startStr, endStr := start.String(), end.String()
		ex.StartTime = &startStr
		ex.EndTime = &endStr
	}

	created, err := s.repo.CreateException(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("create exception: %w", err)
	}
	return created, nil
}

func (s *Service) DeleteException(ctx context.Context, doctorID, id uuid.UUID) error {
	if err := s.repo.DeleteException(ctx, id, doctorID); err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	return nil
}
