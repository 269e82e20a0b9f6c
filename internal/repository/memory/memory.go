// Package memory is an in-process implementation of the repository contracts.
// It backs local development, the simulation CLI and tests. Every transaction
// runs under one store-wide lock and is rolled back from a snapshot on error.
package memory

import (
	"context"
	"sync"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/repository"
)

type txKey struct{}

type Store struct {
	mu    sync.Mutex
	state *state

	events        repository.EventRepository
	needs         repository.NeedRepository
	assignments   repository.AssignmentRepository
	exchanges     repository.ExchangeRepository
	ledger        repository.LedgerRepository
	notifications repository.NotificationRepository
}

type sequences struct {
	event, need, assignment, exchange, entry, notification int32
}

type state struct {
	seq           sequences
	events        map[int32]domain.Event
	needs         map[int32]domain.Need
	assignments   map[int32]domain.Assignment
	exchanges     map[int32]domain.Exchange
	entries       []domain.LedgerEntry
	notifications []domain.Notification
}

func newState() *state {
	return &state{
		events:      make(map[int32]domain.Event),
		needs:       make(map[int32]domain.Need),
		assignments: make(map[int32]domain.Assignment),
		exchanges:   make(map[int32]domain.Exchange),
	}
}

// clone copies every table. Rows are stored by value with their pointer
// fields deep-copied on write, so a shallow copy of each map is enough.
func (s *state) clone() *state {
	c := &state{
		seq:           s.seq,
		events:        make(map[int32]domain.Event, len(s.events)),
		needs:         make(map[int32]domain.Need, len(s.needs)),
		assignments:   make(map[int32]domain.Assignment, len(s.assignments)),
		exchanges:     make(map[int32]domain.Exchange, len(s.exchanges)),
		entries:       append([]domain.LedgerEntry(nil), s.entries...),
		notifications: append([]domain.Notification(nil), s.notifications...),
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.needs {
		c.needs[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.exchanges {
		c.exchanges[k] = v
	}
	return c
}

func NewStore() *Store {
	s := &Store{state: newState()}
	s.events = &eventRepository{s: s}
	s.needs = &needRepository{s: s}
	s.assignments = &assignmentRepository{s: s}
	s.exchanges = &exchangeRepository{s: s}
	s.ledger = &ledgerRepository{s: s}
	s.notifications = &notificationRepository{s: s}
	return s
}

func (s *Store) Events() repository.EventRepository { return s.events }
func (s *Store) Needs() repository.NeedRepository { return s.needs }
func (s *Store) Assignments() repository.AssignmentRepository { return s.assignments }
func (s *Store) Exchanges() repository.ExchangeRepository { return s.exchanges }
func (s *Store) Ledger() repository.LedgerRepository { return s.ledger }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// view runs fn against the current state, taking the lock unless ctx already
// belongs to a transaction of this store.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func copyInt32(p *int32) *int32 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
