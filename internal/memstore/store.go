// Package memstore keeps every repository in process memory. One mutex is
// the single writer: each call, or each WithinTx block, holds it for its
// whole duration, which gives the same all-or-nothing booking behavior as
// the conditional statements of the Postgres store.
package memstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/slot"
	"github.com/hackgods/clinic-scheduling/internal/specialization"
)

var errNoTx = errors.New("memstore: row lock requires WithinTx")

type slotKey struct {
	doctorID uuid.UUID
	start    int64
}

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	specializations map[uuid.UUID]specialization.Specialization
	links           []specialization.Link
	templates       []availability.WeeklyTemplate
	exceptions      []availability.SlotException
	slots           map[uuid.UUID]*slot.Slot
	slotsByStart    map[slotKey]uuid.UUID
	appointments    []*appointment.Appointment
	events          []appointment.EventLog
	nextEventID     int64
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:             time.Now,
		specializations: make(map[uuid.UUID]specialization.Specialization),
		slots:           make(map[uuid.UUID]*slot.Slot),
		slotsByStart:    make(map[slotKey]uuid.UUID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txState struct {
	store *Store
	undo  []func()
}

type txKey struct{}

func (s *Store) txFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	if st == nil || st.store != s {
		return nil
	}
	return st
}

// acquire takes the store lock unless ctx already runs inside WithinTx.
func (s *Store) acquire(ctx context.Context) func() {
	if s.txFrom(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// onRollback registers how to revert a change made inside WithinTx.
func (s *Store) onRollback(ctx context.Context, undo func()) {
	if st := s.txFrom(ctx); st != nil {
		st.undo = append(st.undo, undo)
	}
}

// WithinTx holds the store lock while fn runs. If fn fails, every change it
// made through this store is reverted.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		return err
	}
	return nil
}

// AddSpecialization puts an entry in the catalogue.
func (s *Store) AddSpecialization(name string, description *string) specialization.Specialization {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := specialization.Specialization{ID: uuid.New(), Name: name, Description: description}
	s.specializations[sp.ID] = sp
	return sp
}

// AddSlot stores a slot as is, e.g. a manual one. A zero ID is filled in.
func (s *Store) AddSlot(sl slot.Slot) slot.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl.ID == uuid.Nil {
		sl.ID = uuid.New()
	}
	if sl.Source == "" {
		sl.Source = slot.SourceManual
	}
	if sl.CreatedAt.IsZero() {
		sl.CreatedAt = s.now()
	}
	stored := sl
	s.slots[sl.ID] = &stored
	s.slotsByStart[slotKey{doctorID: sl.DoctorID, start: sl.StartTime.UnixNano()}] = sl.ID
	return sl
}

// Events returns a copy of the event log.
func (s *Store) Events() []appointment.EventLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appointment.EventLog(nil), s.events...)
}

func (s *Store) Availability() availability.Repository      { return availabilityRepo{s} }
func (s *Store) Specializations() specialization.Repository { return specializationRepo{s} }
func (s *Store) Slots() slot.Repository                     { return slotRepo{s} }
func (s *Store) Appointments() appointment.Repository       { return appointmentRepo{s} }
