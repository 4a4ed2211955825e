package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	"github.com/hackgods/clinic-scheduling/migrations"
)

var version = "dev"

// catalogue seeded into the memory driver so search has something to key on
var devSpecializations = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Neurology",
	"Pediatrics",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info", "api-server")
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "api-server")
	log.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("storage", cfg.StorageDriver).
		Str("booking_mode", cfg.BookingMode).
		Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, checks, cleanup := openBackend(rootCtx, cfg, log)
	defer cleanup()

	router := api.NewRouter(api.RouterConfig{
		Services:           app.NewServices(backend, cfg, log),
		Tokens:             identity.NewManager(cfg.JWTSecret, cfg.JWTIssuer),
		HealthChecks:       checks,
		Logger:             log,
		DefaultWeeks:       cfg.RegenDefaultWeeks,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Env:                cfg.Env,
		Version:            version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("http server error")
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (app.Backend, []api.HealthCheck, func()) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memstore.New()
		for _, name := range devSpecializations {
			store.AddSpecialization(name, nil)
		}
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		return app.MemoryBackend(store), nil, func() {}
	}

	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	log.Info().Msg("connected to Postgres")

	if cfg.AutoMigrate {
		migrate(ctx, pool, log)
	}

	checks := []api.HealthCheck{{Name: "postgres", Critical: true, Ping: pool.Ping}}
	return app.PostgresBackend(pool), checks, pool.Close
}

func migrate(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) {
	n, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("auto migrate failed")
	}
	log.Info().Int("applied", n).Msg("migrations applied")
}
