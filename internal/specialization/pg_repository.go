package specialization

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

const foreignKeyViolation = "23503"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListCatalogue(ctx context.Context) ([]Specialization, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, description FROM specializations ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query specializations: %w", err)
	}
	defer rows.Close()

	var out []Specialization
	for rows.Next() {
		var s Specialization
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan specialization: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Link, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT ds.id, ds.doctor_id, ds.specialization_id, s.name, s.description, ds.created_at
		FROM doctor_specializations ds
		JOIN specializations s ON s.id = ds.specialization_id
		WHERE ds.doctor_id = $1
		ORDER BY s.name ASC
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("query doctor specializations: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.DoctorID, &l.SpecializationID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doctor specialization: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PgRepository) ReplaceAll(ctx context.Context, doctorID uuid.UUID, ids []uuid.UUID) ([]Link, error) {
	q := db.Conn(ctx, r.pool)

	if _, err := q.Exec(ctx, `DELETE FROM doctor_specializations WHERE doctor_id = $1`, doctorID); err != nil {
		return nil, fmt.Errorf("delete doctor specializations: %w", err)
	}
	if len(ids) > 0 {
		_, err := q.Exec(ctx, `
			INSERT INTO doctor_specializations (doctor_id, specialization_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT (doctor_id, specialization_id) DO NOTHING
		`, doctorID, ids)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return nil, ErrUnknownSpecialization
			}
			return nil, fmt.Errorf("insert doctor specializations: %w", err)
		}
	}
	return r.ListForDoctor(ctx, doctorID)
}

func (r *PgRepository) RemoveOne(ctx context.Context, doctorID, specializationID uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM doctor_specializations WHERE doctor_id = $1 AND specialization_id = $2
	`, doctorID, specializationID)
	if err != nil {
		return fmt.Errorf("delete doctor specialization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}
