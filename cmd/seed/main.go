package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var timezones = []string{"UTC", "Europe/Istanbul", "Europe/London", "America/New_York"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info", "seed")
		boot.Fatal().Err(err).Msg("config load error")
	}
	log := logging.New(cfg.Env, cfg.LogLevel, "seed")
	if cfg.StorageDriver != config.StoragePostgres {
		log.Fatal().Msg("seed writes to Postgres; set STORAGE_DRIVER=postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4, MinConns: 1})
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())
	svc := app.NewServices(app.PostgresBackend(pool), cfg, log)

	specIDs, err := seedSpecializations(ctx, pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed specializations")
	}
	if err := seedDoctors(ctx, pool, svc, specIDs, envInt("SEED_DOCTORS", 20), cfg.RegenDefaultWeeks, log); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(ctx, pool, envInt("SEED_PATIENTS", 500), log); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

func seedSpecializations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(specialties))
	for _, name := range specialties {
		var id uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO specializations (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name, name+" outpatient clinic").Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	log.Info().Int("count", len(ids)).Msg("specializations seeded")
	return ids, nil
}

// seedDoctors creates doctor users and publishes their week through the
// services, then materializes slots.
func seedDoctors(ctx context.Context, pool *pgxpool.Pool, svc app.Services, specIDs []uuid.UUID, count, weeks int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	inserted := 0
	for i := 0; i < count; i++ {
		var doctorID uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO users (username, email, role)
			VALUES ($1, $2, 'doctor')
			RETURNING id
		`, gofakeit.Name(), uniqueEmail()).Scan(&doctorID)
		if err != nil {
			return err
		}

		specID := specIDs[gofakeit.Number(0, len(specIDs)-1)]
		if _, err := svc.Specializations.Replace(ctx, doctorID, specialization.ReplaceInput{SpecializationIDs: []uuid.UUID{specID}}); err != nil {
			return fmt.Errorf("link doctor %s: %w", doctorID, err)
		}

		if _, err := svc.Availability.ReplaceTemplates(ctx, doctorID, randomWeek()); err != nil {
			return fmt.Errorf("templates for doctor %s: %w", doctorID, err)
		}

		res, err := svc.Slots.Regenerate(ctx, doctorID, weeks, nil)
		if err != nil {
			return fmt.Errorf("regenerate doctor %s: %w", doctorID, err)
		}
		inserted += res.Inserted
	}

	log.Info().Int("slots", inserted).Msg("doctors seeded")
	return nil
}

// randomWeek is a weekday schedule: mornings, sometimes an afternoon block.
func randomWeek() availability.ReplaceTemplatesInput {
	tz := timezones[gofakeit.Number(0, len(timezones)-1)]
	duration := []int{15, 20, 30}[gofakeit.Number(0, 2)]

	var items []availability.TemplateInput
	for wd := 1; wd <= 5; wd++ {
		if gofakeit.Number(0, 4) == 0 {
			continue
		}
		weekday := wd
		items = append(items, availability.TemplateInput{
			Weekday: &weekday, StartTime: "09:00", EndTime: "12:00", SlotDurationMins: duration, Timezone: tz,
		})
		if gofakeit.Bool() {
			items = append(items, availability.TemplateInput{
				Weekday: &weekday, StartTime: "13:30", EndTime: "17:00", SlotDurationMins: duration, Timezone: tz,
			})
		}
	}
	return availability.ReplaceTemplatesInput{Items: items}
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (username, email, role)
				VALUES ($1, $2, 'patient')
			`, gofakeit.Name(), uniqueEmail())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients batch")
	}

	return nil
}

func uniqueEmail() string {
	return fmt.Sprintf("%s.%s@%s", gofakeit.Username(), uuid.NewString()[:8], gofakeit.DomainName())
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
