// Package app wires repositories and services for the binaries.
package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/memstore"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

// Backend is one storage implementation of every repository plus the
// transactor they share.
type Backend struct {
	Availability    availability.Repository
	Specializations specialization.Repository
	Slots           slot.Repository
	Appointments    appointment.Repository
	Tx              db.Transactor
}

func PostgresBackend(pool *pgxpool.Pool) Backend {
	return Backend{
		Availability:    availability.NewPgRepository(pool),
		Specializations: specialization.NewPgRepository(pool),
		Slots:           slot.NewPgRepository(pool),
		Appointments:    appointment.NewPgRepository(pool),
		Tx:              db.NewPgTransactor(pool),
	}
}

func MemoryBackend(store *memstore.Store) Backend {
	return Backend{
		Availability:    store.Availability(),
		Specializations: store.Specializations(),
		Slots:           store.Slots(),
		Appointments:    store.Appointments(),
		Tx:              store,
	}
}

type Services struct {
	Availability    *availability.Service
	Specializations *specialization.Service
	Slots           *slot.Service
	Appointments    *appointment.Service
}

type options struct {
	now      func() time.Time
	notifier appointment.Notifier
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNotifier(n appointment.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func NewServices(b Backend, cfg config.Config, log zerolog.Logger, opts ...Option) Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	avail := availability.NewService(b.Availability, b.Tx, log)
	specs := specialization.NewService(b.Specializations, b.Tx)

	slots := slot.NewService(b.Slots, avail, specs, log,
		slot.WithClock(o.now), slot.WithMaxWeeks(cfg.RegenMaxWeeks))

	apptOpts := []appointment.Option{appointment.WithClock(o.now)}
	if o.notifier != nil {
		apptOpts = append(apptOpts, appointment.WithNotifier(o.notifier))
	}
	appts := appointment.NewService(b.Appointments, b.Slots, b.Tx, cfg, log, apptOpts...)

	return Services{
		Availability:    avail,
		Specializations: specs,
		Slots:           slots,
		Appointments:    appts,
	}
}
