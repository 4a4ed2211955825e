// Package worker runs the periodic slot regeneration and reminder jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

const (
	JobRegenerate = "slots-regenerate"
	JobReminders  = "appointment-reminders"
)

// RegenerateSummary is the outcome of one pass over every doctor.
type RegenerateSummary struct {
	Doctors  int
	Inserted int
	Skipped  int // specialization could not be resolved
	Failed   int
}

type Worker struct {
	svc    app.Services
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

func New(svc app.Services, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Worker {
	return &Worker{svc: svc, locker: locker, cfg: cfg, log: log}
}

// Start schedules both jobs and starts the cron loop.
func (w *Worker) Start(ctx context.Context) error {
	w.runCtx, w.cancel = context.WithCancel(ctx)

	logger := cronLogger{log: w.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(w.cfg.RegenCron, func() { w.RunOnce(w.runCtx, JobRegenerate) }); err != nil {
		w.cancel()
		return fmt.Errorf("schedule %s with %q: %w", JobRegenerate, w.cfg.RegenCron, err)
	}
	if _, err := c.AddFunc(w.cfg.ReminderCron, func() { w.RunOnce(w.runCtx, JobReminders) }); err != nil {
		w.cancel()
		return fmt.Errorf("schedule %s with %q: %w", JobReminders, w.cfg.ReminderCron, err)
	}

	c.Start()
	w.cron = c
	w.log.Info().
		Str("regen_cron", w.cfg.RegenCron).
		Str("reminder_cron", w.cfg.ReminderCron).
		Msg("worker scheduled")
	return nil
}

// Stop cancels in-flight jobs and waits for them to return.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// RunOnce runs one job under its leader lock. A lock held by another
// replica is not an error.
func (w *Worker) RunOnce(ctx context.Context, job string) {
	start := time.Now()
	log := w.log.With().Str("job", job).Logger()

	err := w.locker.WithLock(ctx, job, func(ctx context.Context) error {
		switch job {
		case JobRegenerate:
			sum, err := w.RegenerateAll(ctx)
			log.Info().
				Int("doctors", sum.Doctors).
				Int("inserted", sum.Inserted).
				Int("skipped", sum.Skipped).
				Int("failed", sum.Failed).
				Msg("regeneration pass")
			return err
		case JobReminders:
			res, err := w.svc.Appointments.SendReminders(ctx, w.cfg.ReminderWindow)
			log.Info().Int("processed", res.Processed).Int("sent", res.Sent).Msg("reminder pass")
			return err
		default:
			return fmt.Errorf("unknown job %q", job)
		}
	})
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		log.Info().Msg("leader lock held by another instance")
	case err != nil:
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
	default:
		log.Debug().Dur("took", time.Since(start)).Msg("job complete")
	}
}

// RegenerateAll extends every doctor's slots by the default number of
// weeks. Doctors whose specialization is ambiguous are skipped, not guessed.
func (w *Worker) RegenerateAll(ctx context.Context) (RegenerateSummary, error) {
	doctors, err := w.svc.Availability.ListDoctorsWithTemplates(ctx)
	if err != nil {
		return RegenerateSummary{}, err
	}

	sum := RegenerateSummary{Doctors: len(doctors)}
	for _, doctorID := range doctors {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := w.svc.Slots.Regenerate(ctx, doctorID, w.cfg.RegenDefaultWeeks, nil)
		switch {
		case errors.Is(err, specialization.ErrSpecializationRequired):
			sum.Skipped++
			w.log.Warn().Str("doctor_id", doctorID.String()).Msg("skipping doctor without a single specialization")
		case err != nil:
			sum.Failed++
			w.log.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("regenerate doctor")
		default:
			sum.Inserted += res.Inserted
		}
	}
	return sum, nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
