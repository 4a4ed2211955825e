package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("dev", "info", "slot-worker")
		boot.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel, "slot-worker")
	log.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.StorageDriver).
		Dur("lock_ttl", cfg.LeaderLockTTL).
		Msg("slot-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		backend app.Backend
		locker  redisclient.Locker
	)

	if cfg.StorageDriver == config.StorageMemory {
		backend = app.MemoryBackend(memstore.New())
		locker = redisclient.NewLocalLocker()
		log.Warn().Msg("using in-memory storage and a process-local lock")
	} else {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		cancelPg()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pool.Close()
		log.Info().Msg("connected to Postgres")

		rdb, err := redisclient.NewRedisClient(rootCtx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		log.Info().Msg("connected to Redis")

		backend = app.PostgresBackend(pool)
		locker = redisclient.NewRedisJobLocker(rdb, cfg.LeaderLockTTL)
	}

	w := worker.New(app.NewServices(backend, cfg, log), locker, cfg, log)

	// one regeneration pass at startup so a fresh deploy has slots
	w.RunOnce(rootCtx, worker.JobRegenerate)

	if err := w.Start(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("schedule jobs")
	}

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping slot-worker")
	w.Stop()
}
