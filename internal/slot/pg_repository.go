package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

var errNoTx = errors.New("slot lock requires a transaction")

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const slotCols = `id, doctor_id, specialization_id, start_time, end_time, duration_mins, is_booked, source, created_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.SpecializationID,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMins,
		&s.IsBooked,
		&s.Source,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) BulkInsertGenerated(ctx context.Context, doctorID, specializationID uuid.UUID, slots []Candidate) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	starts := make([]time.Time, len(slots))
	ends := make([]time.Time, len(slots))
	durations := make([]int32, len(slots))
	for i, c := range slots {
		starts[i] = c.StartTime
		ends[i] = c.EndTime
		durations[i] = int32(c.DurationMins)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO availability_slots
			(doctor_id, specialization_id, start_time, end_time, duration_mins, is_booked, source)
		SELECT $1, $2, s, e, d, false, 'generated'
		FROM unnest($3::timestamptz[], $4::timestamptz[], $5::int[]) AS t(s, e, d)
		ON CONFLICT (doctor_id, start_time) DO NOTHING
	`, doctorID, specializationID, starts, ends, durations)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, specialization.ErrUnknownSpecialization
		}
		return 0, fmt.Errorf("bulk insert slots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgRepository) Search(ctx context.Context, q SearchQuery) (Page, error) {
	page := Page{Limit: q.Limit, Offset: q.Offset, Items: []Slot{}}

	// a pgx.Tx serves one statement at a time
	if db.TxFromContext(ctx) != nil {
		items, err := r.searchItems(ctx, q)
		if err != nil {
			return Page{}, err
		}
		total, err := r.searchCount(ctx, q)
		if err != nil {
			return Page{}, err
		}
		page.Items, page.Total = items, total
		return page, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := r.searchItems(gctx, q)
		page.Items = items
		return err
	})
	g.Go(func() error {
		total, err := r.searchCount(gctx, q)
		page.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (r *PgRepository) searchItems(ctx context.Context, q SearchQuery) ([]Slot, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+slotCols+`
		FROM availability_slots
		WHERE specialization_id = $1
		  AND is_booked = false
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time ASC, id ASC
		LIMIT $4 OFFSET $5
	`, q.SpecializationID, q.From, q.To, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("search slots: %w", err)
	}
	defer rows.Close()

	items := []Slot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r *PgRepository) searchCount(ctx context.Context, q SearchQuery) (int, error) {
	var total int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT count(*)
		FROM availability_slots
		WHERE specialization_id = $1
		  AND is_booked = false
		  AND start_time >= $2
		  AND start_time < $3
	`, q.SpecializationID, q.From, q.To).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	return total, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+slotCols+` FROM availability_slots WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	tx := db.TxFromContext(ctx)
	if tx == nil {
		return nil, errNoTx
	}
	row := tx.QueryRow(ctx, `
		SELECT `+slotCols+` FROM availability_slots WHERE id = $1 FOR UPDATE
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) MarkBooked(ctx context.Context, id uuid.UUID) error {
	return r.setBooked(ctx, id, true)
}

func (r *PgRepository) MarkFree(ctx context.Context, id uuid.UUID) error {
	return r.setBooked(ctx, id, false)
}

func (r *PgRepository) setBooked(ctx context.Context, id uuid.UUID, booked bool) error {
	tx := db.TxFromContext(ctx)
	if tx == nil {
		return errNoTx
	}
	tag, err := tx.Exec(ctx, `UPDATE availability_slots SET is_booked = $2 WHERE id = $1`, id, booked)
	if err != nil {
		return fmt.Errorf("update slot booked state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}
