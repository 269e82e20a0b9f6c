package service

import (
	"time"

	"bobiz-backend/internal/repository"
)

const (
	defaultPageSize        = 20
	defaultHistoryPageSize = 100
	maxLedgerPage          = 500
)

type Options struct {
	Notifier        Notifier
	HistoryPageSize int32
	Now             func() time.Time
}

// Engine groups the four engine services. The exchange state machine and the
// allocator reference each other: positionings spawn exchanges and cancelled
// exchanges release their positioning.
type Engine struct {
	Exchanges     ExchangeService
	Allocator     NeedAllocator
	Ledger        LedgerService
	Catalog       EventCatalog
	Notifications NotificationService
}

func NewEngine(store repository.Store, opts Options) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	ledger := NewLedgerService(store, store.Exchanges(), store.Ledger(), opts.HistoryPageSize)
	exchanges := &exchangeService{
		tx:        store,
		exchanges: store.Exchanges(),
		ledger:    ledger,
		notifier:  opts.Notifier,
		now:       opts.Now,
	}
	allocator := &needAllocator{
		tx:          store,
		events:      store.Events(),
		needs:       store.Needs(),
		assignments: store.Assignments(),
		exchanges:   exchanges,
		notifier:    opts.Notifier,
	}
	exchanges.releaser = allocator
	catalog := &eventCatalog{
		tx:          store,
		events:      store.Events(),
		needs:       store.Needs(),
		assignments: store.Assignments(),
		exchanges:   exchanges,
	}

	return &Engine{
		Exchanges:     exchanges,
		Allocator:     allocator,
		Ledger:        ledger,
		Catalog:       catalog,
		Notifications: NewNotificationService(store.Notifications()),
	}
}
