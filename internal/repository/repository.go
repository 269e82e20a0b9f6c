package repository

import (
	"context"
	"errors"
	"time"

	"bobiz-backend/internal/domain"
)

// ErrNotFound is returned by lookups that have no domain-specific sentinel.
var ErrNotFound = errors.New("not found")

// Transactor runs fn inside a single storage transaction. Repository calls made
// with the ctx handed to fn take part in it; a nested WithinTx joins the outer one.
// Returning an error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one storage backend with its transactor.
type Store interface {
	Transactor
	Events() EventRepository
	Needs() NeedRepository
	Assignments() AssignmentRepository
	Exchanges() ExchangeRepository
	Ledger() LedgerRepository
	Notifications() NotificationRepository
	Ping(ctx context.Context) error
}

type EventRepository interface {
	Create(ctx context.Context, ev *domain.Event) error
	GetByID(ctx context.Context, id int32) (*domain.Event, error)
	// GetForUpdate reads the event and holds an exclusive lock on it until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Event, error)
	// GetForShare reads the event and blocks status changes to it until the
	// surrounding transaction ends.
	GetForShare(ctx context.Context, id int32) (*domain.Event, error)
	UpdateStatus(ctx context.Context, id int32, status domain.EventStatus) error
}

type NeedRepository interface {
	Create(ctx context.Context, need *domain.Need) error
	GetByID(ctx context.Context, id int32) (*domain.Need, error)
	// GetForUpdate reads the need and holds an exclusive lock on it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Need, error)
	ListByEvent(ctx context.Context, eventID int32) ([]domain.Need, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *domain.Assignment) error
	Get(ctx context.Context, needID, participantID int32) (*domain.Assignment, error)
	GetByExchange(ctx context.Context, exchangeID int32) (*domain.Assignment, error)
	ListByNeed(ctx context.Context, needID int32) ([]domain.Assignment, error)
	SumQuantity(ctx context.Context, needID int32) (int64, error)
	SumQuantityByEvent(ctx context.Context, eventID int32) (map[int32]int64, error)
	// Delete removes the assignment and reports whether one existed.
	Delete(ctx context.Context, needID, participantID int32) (bool, error)
}

type ExchangeRepository interface {
	Create(ctx context.Context, ex *domain.Exchange) error
	GetByID(ctx context.Context, id int32) (*domain.Exchange, error)
	// GetForUpdate reads the exchange and holds an exclusive lock on it until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Exchange, error)
	Update(ctx context.Context, ex *domain.Exchange) error
	ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error)
	ListStale(ctx context.Context, status domain.ExchangeStatus, createdBefore time.Time, limit int32) ([]domain.Exchange, error)
	ListCompletedIDs(ctx context.Context, afterID, limit int32) ([]int32, error)
}

type LedgerRepository interface {
	// CreateEntries appends one posting batch and fills in entry IDs.
	CreateEntries(ctx context.Context, entries []domain.LedgerEntry) error
	HasEntries(ctx context.Context, exchangeID int32) (bool, error)
	GetBalance(ctx context.Context, userID int32) (int64, error)
	// ListByUser returns up to limit entries with id > afterID in creation order.
	ListByUser(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, error)
	ListByExchange(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}
