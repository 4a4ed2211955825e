package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const templateCols = `id, doctor_id, weekday, start_time::text, end_time::text, slot_duration_mins, timezone, created_at, updated_at`

const exceptionCols = `id, doctor_id, day::text, start_time::text, end_time::text, full_day, reason, created_at`

func scanTemplate(row pgx.Row) (WeeklyTemplate, error) {
	var t WeeklyTemplate
	err := row.Scan(
		&t.ID,
		&t.DoctorID,
		&t.Weekday,
		&t.StartTime,
		&t.EndTime,
		&t.SlotDurationMins,
		&t.Timezone,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func scanException(row pgx.Row) (SlotException, error) {
	var e SlotException
	err := row.Scan(
		&e.ID,
		&e.DoctorID,
		&e.Day,
		&e.StartTime,
		&e.EndTime,
		&e.FullDay,
		&e.Reason,
		&e.CreatedAt,
	)
	return e, err
}

func (r *PgRepository) ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]WeeklyTemplate, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+templateCols+`
		FROM weekly_availability
		WHERE doctor_id = $1
		ORDER BY weekday ASC, start_time ASC
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []WeeklyTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepository) ReplaceTemplates(ctx context.Context, doctorID uuid.UUID, rows []WeeklyTemplate) ([]WeeklyTemplate, error) {
	q := db.Conn(ctx, r.pool)

	if _, err := q.Exec(ctx, `DELETE FROM weekly_availability WHERE doctor_id = $1`, doctorID); err != nil {
		return nil, fmt.Errorf("delete templates: %w", err)
	}
	if len(rows) == 0 {
		return []WeeklyTemplate{}, nil
	}

	weekdays := make([]int32, len(rows))
	starts := make([]string, len(rows))
	ends := make([]string, len(rows))
	durations := make([]int32, len(rows))
	zones := make([]string, len(rows))
	for i, t := range rows {
		weekdays[i] = int32(t.Weekday)
		starts[i] = t.StartTime
		ends[i] = t.EndTime
		durations[i] = int32(t.SlotDurationMins)
		zones[i] = t.Timezone
	}

	_, err := q.Exec(ctx, `
		INSERT INTO weekly_availability (doctor_id, weekday, start_time, end_time, slot_duration_mins, timezone)
		SELECT $1, w::smallint, s::time, e::time, d, tz
		FROM unnest($2::int[], $3::text[], $4::text[], $5::int[], $6::text[]) AS t(w, s, e, d, tz)
	`, doctorID, weekdays, starts, ends, durations, zones)
	if err != nil {
		return nil, fmt.Errorf("insert templates: %w", err)
	}

	return r.ListTemplates(ctx, doctorID)
}

func (r *PgRepository) ListDoctorsWithTemplates(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT doctor_id FROM weekly_availability ORDER BY doctor_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query doctors with templates: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan doctor id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]SlotException, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+exceptionCols+`
		FROM slot_exceptions
		WHERE doctor_id = $1
		ORDER BY day DESC, start_time NULLS FIRST
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("query exceptions: %w", err)
	}
	defer rows.Close()

	var out []SlotException
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exception: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PgRepository) CreateException(ctx context.Context, ex SlotException) (*SlotException, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO slot_exceptions (doctor_id, day, start_time, end_time, full_day, reason)
		VALUES ($1, $2::date, $3::time, $4::time, $5, $6)
		RETURNING `+exceptionCols,
		ex.DoctorID, ex.Day, ex.StartTime, ex.EndTime, ex.FullDay, ex.Reason,
	)
	created, err := scanException(row)
	if err != nil {
		return nil, fmt.Errorf("insert exception: %w", err)
	}
	return &created, nil
}

func (r *PgRepository) DeleteException(ctx context.Context, id, doctorID uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM slot_exceptions WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}
