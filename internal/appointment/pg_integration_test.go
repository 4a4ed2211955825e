//go:build integration

package appointment_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
	"github.com/hackgods/clinic-scheduling/migrations"
)

// Run with: POSTGRES_DSN=postgres://... go test -tags integration ./internal/appointment/

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.NewMigrator(pool, migrations.FS).Up(ctx)
	require.NoError(t, err)
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool, role string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, email, role) VALUES ($1, $2, $3) RETURNING id`,
		role, uuid.NewString()+"@it.local", role,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertSpecialization(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO specializations (name) VALUES ($1) RETURNING id`, "it-"+uuid.NewString(),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func futureCandidates(n int) []slot.Candidate {
	base := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	out := make([]slot.Candidate, n)
	for i := range out {
		start := base.Add(time.Duration(i) * 30 * time.Minute)
		out[i] = slot.Candidate{StartTime: start, EndTime: start.Add(30 * time.Minute), DurationMins: 30}
	}
	return out
}

func TestPg_BulkInsertGenerated(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	slots := slot.NewPgRepository(pool)
	doctor, spec := insertUser(t, pool, "doctor"), insertSpecialization(t, pool)

	n, err := slots.BulkInsertGenerated(ctx, doctor, spec, futureCandidates(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = slots.BulkInsertGenerated(ctx, doctor, spec, futureCandidates(6))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "existing starts are skipped")

	_, err = slots.BulkInsertGenerated(ctx, doctor, uuid.New(), futureCandidates(8))
	assert.ErrorIs(t, err, specialization.ErrUnknownSpecialization)
}

func TestPg_BookSlotAtomic_OneWinner(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	slots := slot.NewPgRepository(pool)
	appts := appointment.NewPgRepository(pool)
	doctor, spec := insertUser(t, pool, "doctor"), insertSpecialization(t, pool)

	_, err := slots.BulkInsertGenerated(ctx, doctor, spec, futureCandidates(1))
	require.NoError(t, err)
	page, err := slots.Search(ctx, slot.SearchQuery{
		SpecializationID: spec, From: time.Now(), To: time.Now().AddDate(0, 0, 7), Limit: slot.DefaultLimit,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	target := page.Items[0].ID

	const callers = 16
	patients := make([]uuid.UUID, callers)
	for i := range patients {
		patients[i] = insertUser(t, pool, "patient")
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for _, p := range patients {
		wg.Add(1)
		go func(patient uuid.UUID) {
			defer wg.Done()
			_, err := appts.BookSlotAtomic(ctx, target, patient, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, appointment.ErrAlreadyBooked):
				conflicts++
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, conflicts)

	got, err := slots.GetByID(ctx, target)
	require.NoError(t, err)
	assert.True(t, got.IsBooked)

	_, err = appts.BookSlotAtomic(ctx, uuid.New(), patients[0], nil)
	assert.ErrorIs(t, err, appointment.ErrAlreadyBooked, "missing slot reads as a lost race")
}

func TestPg_CancelAtomic_FreesSlot(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()
	slots := slot.NewPgRepository(pool)
	appts := appointment.NewPgRepository(pool)
	doctor, spec := insertUser(t, pool, "doctor"), insertSpecialization(t, pool)
	patient, other := insertUser(t, pool, "patient"), insertUser(t, pool, "patient")

	_, err := slots.BulkInsertGenerated(ctx, doctor, spec, futureCandidates(1))
	require.NoError(t, err)
	page, err := slots.Search(ctx, slot.SearchQuery{
		SpecializationID: spec, From: time.Now(), To: time.Now().AddDate(0, 0, 7), Limit: slot.DefaultLimit,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	target := page.Items[0].ID

	appt, err := appts.BookSlotAtomic(ctx, target, patient, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, appts.CancelAtomic(ctx, appt.ID, other), appointment.ErrAppointmentNotFound)
	require.NoError(t, appts.CancelAtomic(ctx, appt.ID, patient))
	assert.ErrorIs(t, appts.CancelAtomic(ctx, appt.ID, patient), appointment.ErrAppointmentNotFound)

	got, err := slots.GetByID(ctx, target)
	require.NoError(t, err)
	assert.False(t, got.IsBooked)

	_, err = appts.BookSlotAtomic(ctx, target, other, nil)
	assert.NoError(t, err, "canceled slot can be booked again")
}
