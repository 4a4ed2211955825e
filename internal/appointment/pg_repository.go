package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const appointmentCols = `id, availability_slot_id, patient_id, status, symptoms, notes, booked_at, cancelled_at`

const detailCols = `a.id, a.availability_slot_id, a.patient_id, a.status, a.symptoms, a.notes, a.booked_at, a.cancelled_at,
	s.doctor_id, s.specialization_id, s.start_time, s.end_time`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.SlotID,
		&a.PatientID,
		&a.Status,
		&a.Symptoms,
		&a.Notes,
		&a.BookedAt,
		&a.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	out := []AppointmentDetail{}
	for rows.Next() {
		var d AppointmentDetail
		err := rows.Scan(
			&d.ID,
			&d.SlotID,
			&d.PatientID,
			&d.Status,
			&d.Symptoms,
			&d.Notes,
			&d.BookedAt,
			&d.CancelledAt,
			&d.DoctorID,
			&d.SpecializationID,
			&d.StartTime,
			&d.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Interface methods

func (r *PgRepository) BookSlotAtomic(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*Appointment, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH reserved AS (
			UPDATE availability_slots
			   SET is_booked = true
			 WHERE id = $1
			   AND is_booked = false
			RETURNING id
		)
		INSERT INTO appointments (availability_slot_id, patient_id, status, symptoms, booked_at)
		SELECT id, $2, 'confirmed', $3, now()
		FROM reserved
		RETURNING `+appointmentCols,
		slotID, patientID, symptoms,
	)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) CancelAtomic(ctx context.Context, appointmentID, patientID uuid.UUID) error {
	var canceled int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH appt AS (
			UPDATE appointments
			   SET status = 'canceled', cancelled_at = now()
			 WHERE id = $1
			   AND patient_id = $2
			   AND status IN ('pending', 'confirmed')
			RETURNING availability_slot_id
		), freed AS (
			UPDATE availability_slots
			   SET is_booked = false
			 WHERE id IN (SELECT availability_slot_id FROM appt)
			RETURNING id
		)
		SELECT (SELECT count(*) FROM appt)::int
	`, appointmentID, patientID).Scan(&canceled)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if canceled == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) InsertConfirmed(ctx context.Context, slotID, patientID uuid.UUID, symptoms *string) (*Appointment, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (availability_slot_id, patient_id, status, symptoms, booked_at)
		VALUES ($1, $2, 'confirmed', $3, now())
		RETURNING `+appointmentCols,
		slotID, patientID, symptoms,
	)
	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return appt, nil
}

func (r *PgRepository) MarkCanceled(ctx context.Context, appointmentID, patientID uuid.UUID) (uuid.UUID, error) {
	var slotID uuid.UUID
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointments
		   SET status = 'canceled', cancelled_at = now()
		 WHERE id = $1
		   AND patient_id = $2
		   AND status IN ('pending', 'confirmed')
		RETURNING availability_slot_id
	`, appointmentID, patientID).Scan(&slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrAppointmentNotFound
		}
		return uuid.Nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return slotID, nil
}

func (r *PgRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	return r.list(ctx, "a.patient_id = $1", patientID, f)
}

func (r *PgRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	return r.list(ctx, "s.doctor_id = $1", doctorID, f)
}

func (r *PgRepository) list(ctx context.Context, owner string, ownerID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	where := []string{owner}
	args := []any{ownerID}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("s.start_time >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("s.start_time < $%d", len(args)))
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+detailCols+`
		FROM appointments a
		JOIN availability_slots s ON s.id = a.availability_slot_id
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY s.start_time ASC, a.booked_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return scanDetails(rows)
}

func (r *PgRepository) FindActiveStartingBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+detailCols+`
		FROM appointments a
		JOIN availability_slots s ON s.id = a.availability_slot_id
		WHERE a.status IN ('pending', 'confirmed')
		  AND s.start_time >= $1
		  AND s.start_time < $2
		ORDER BY s.start_time ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("find upcoming appointments: %w", err)
	}
	return scanDetails(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
