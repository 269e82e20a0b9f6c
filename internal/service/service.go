package service

import (
	"context"
	"iter"
	"time"

	"bobiz-backend/internal/domain"
)

// ExchangeParams describes a new exchange. CounterpartyID is set only for
// exchanges that are matched at creation, such as need positionings.
type ExchangeParams struct {
	Kind           domain.ExchangeKind
	Title          string
	CreatorID      int32
	CounterpartyID *int32
	PointsValue    int32
	Origin         domain.ExchangeOrigin
}

// ExchangeService is the lifecycle state machine of bilateral exchanges.
type ExchangeService interface {
	Create(ctx context.Context, p ExchangeParams) (*domain.Exchange, error)
	AcceptAndStart(ctx context.Context, exchangeID, counterpartyID int32) (*domain.Exchange, error)
	Complete(ctx context.Context, exchangeID int32) (*domain.Exchange, error)
	Cancel(ctx context.Context, exchangeID int32, reason string) (*domain.Exchange, error)
	Get(ctx context.Context, exchangeID int32) (*domain.Exchange, error)
	ListForUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error)
}

type PositionRequest struct {
	NeedID        int32
	ParticipantID int32
	Quantity      int32
	PointsValue   int32
}

// NeedAllocator reserves need capacity for participants and spawns the
// exchange that fulfils each reservation.
type NeedAllocator interface {
	Position(ctx context.Context, req PositionRequest) (*domain.Assignment, *domain.Exchange, error)
	// Release frees the participant's reservation. Releasing an absent
	// reservation is a no-op.
	Release(ctx context.Context, needID, participantID int32) error
	Withdraw(ctx context.Context, needID, participantID int32) (*domain.Exchange, error)
	Status(ctx context.Context, needID int32) (domain.NeedStatus, error)
	Remaining(ctx context.Context, needID int32) (int32, error)
	Assignments(ctx context.Context, needID int32) ([]domain.Assignment, error)
}

// LedgerService is the append-only points ledger.
type LedgerService interface {
	Post(ctx context.Context, exchangeID int32, postings []domain.Posting) ([]domain.LedgerEntry, error)
	Balance(ctx context.Context, userID int32) (int64, error)
	// History yields the user's entries in creation order, reading them in
	// pages. Each range over the sequence starts from the first entry.
	History(ctx context.Context, userID int32) iter.Seq2[domain.LedgerEntry, error]
	// Page returns up to limit entries with id > afterID and the id to resume
	// from, which is zero on the last page.
	Page(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, int32, error)
	Entries(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error)
	Audit(ctx context.Context, exchangeID int32) (*domain.LedgerAudit, error)
}

type NeedParams struct {
	EventID           int32
	Label             string
	Category          domain.NeedCategory
	RequestedQuantity int32
	Urgent            bool
}

// EventCatalog owns events, their needs and the aggregate fulfillment view.
type EventCatalog interface {
	CreateEvent(ctx context.Context, organizerID int32, title string, startsAt *time.Time) (*domain.Event, error)
	GetEvent(ctx context.Context, eventID int32) (*domain.Event, error)
	SetEventStatus(ctx context.Context, eventID int32, status domain.EventStatus) (*domain.Event, error)
	AddNeed(ctx context.Context, p NeedParams) (*domain.Need, error)
	ListNeeds(ctx context.Context, eventID int32) ([]domain.Need, error)
	AggregateStatus(ctx context.Context, eventID int32) (*domain.EventAggregate, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// Notifier receives engine events after the transaction that produced them
// has committed. Implementations must not block the caller.
type Notifier interface {
	Notify(ctx context.Context, ev domain.EngineEvent)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, domain.EngineEvent) {}
