package service

import (
	"context"
	"fmt"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/repository"
)

// capacityReleaser frees the need reservation behind a cancelled exchange.
type capacityReleaser interface {
	releaseExchange(ctx context.Context, exchangeID int32) error
}

type exchangeService struct {
	tx        repository.Transactor
	exchanges repository.ExchangeRepository
	ledger    LedgerService
	releaser  capacityReleaser
	notifier  Notifier
	now       func() time.Time
}

// NewExchangeService builds a standalone state machine. Exchanges spawned by
// need positionings need the releaser of a NeedAllocator to free capacity on
// cancellation; use NewEngine to get both wired together.
func NewExchangeService(
	tx repository.Transactor,
	exchanges repository.ExchangeRepository,
	ledger LedgerService,
	notifier Notifier,
) ExchangeService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &exchangeService{
		tx:        tx,
		exchanges: exchanges,
		ledger:    ledger,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *exchangeService) Create(ctx context.Context, p ExchangeParams) (*domain.Exchange, error) {
	logger.EnterMethod("exchangeService.Create", "kind", p.Kind, "creatorID", p.CreatorID, "pointsValue", p.PointsValue)

	ex, err := s.create(ctx, p)
	if err != nil {
		logger.ExitMethodRejected("exchangeService.Create", err)
		return nil, err
	}

	var recipients []int32
	if ex.CounterpartyID != nil {
		recipients = append(recipients, *ex.CounterpartyID)
	}
	s.notify(ctx, domain.EngineEventExchangeCreated, ex, recipients, "")

	logger.ExitMethod("exchangeService.Create", "exchangeID", ex.ID)
	return ex, nil
}

// create validates and stores a new active exchange. It joins the caller's
// transaction and emits nothing, so positionings can spawn exchanges before
// their own commit.
func (s *exchangeService) create(ctx context.Context, p ExchangeParams) (*domain.Exchange, error) {
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, p.Kind)
	}
	if p.PointsValue < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPointsValue, p.PointsValue)
	}
	if p.CounterpartyID != nil && *p.CounterpartyID == p.CreatorID {
		return nil, domain.ErrSelfExchange
	}

	ex := &domain.Exchange{
		Kind:           p.Kind,
		Status:         domain.ExchangeStatusActive,
		Title:          p.Title,
		CreatorID:      p.CreatorID,
		CounterpartyID: p.CounterpartyID,
		PointsValue:    p.PointsValue,
		Origin:         p.Origin,
		CreatedAt:      s.now(),
	}
	if err := s.exchanges.Create(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func (s *exchangeService) AcceptAndStart(ctx context.Context, exchangeID, counterpartyID int32) (*domain.Exchange, error) {
	logger.EnterMethod("exchangeService.AcceptAndStart", "exchangeID", exchangeID, "counterpartyID", counterpartyID)

	var ex *domain.Exchange
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ex, err = s.exchanges.GetForUpdate(ctx, exchangeID)
		if err != nil {
			return err
		}
		if ex.Status != domain.ExchangeStatusActive {
			return fmt.Errorf("%w: cannot start %s exchange", domain.ErrInvalidStateTransition, ex.Status)
		}
		if counterpartyID == ex.CreatorID {
			return domain.ErrSelfExchange
		}
		if ex.CounterpartyID != nil && *ex.CounterpartyID != counterpartyID {
			return domain.ErrAlreadyAccepted
		}

		now := s.now()
		ex.CounterpartyID = &counterpartyID
		ex.Status = domain.ExchangeStatusInProgress
		ex.StartedAt = &now
		return s.exchanges.Update(ctx, ex)
	})
	metrics.ExchangeTransitionsTotal.WithLabelValues(string(domain.ExchangeStatusInProgress), metrics.Outcome(err)).Inc()
	if err != nil {
		logger.ExitMethodRejected("exchangeService.AcceptAndStart", err, "exchangeID", exchangeID)
		return nil, err
	}

	s.notify(ctx, domain.EngineEventExchangeStarted, ex, []int32{ex.CreatorID, counterpartyID}, "")

	logger.ExitMethod("exchangeService.AcceptAndStart", "exchangeID", exchangeID)
	return ex, nil
}

func (s *exchangeService) Complete(ctx context.Context, exchangeID int32) (*domain.Exchange, error) {
	logger.EnterMethod("exchangeService.Complete", "exchangeID", exchangeID)

	var ex *domain.Exchange
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ex, err = s.exchanges.GetForUpdate(ctx, exchangeID)
		if err != nil {
			return err
		}
		if !ex.Status.CanTransitionTo(domain.ExchangeStatusCompleted) || ex.CounterpartyID == nil {
			return fmt.Errorf("%w: cannot complete %s exchange", domain.ErrInvalidStateTransition, ex.Status)
		}

		now := s.now()
		ex.Status = domain.ExchangeStatusCompleted
		ex.EndedAt = &now
		if err := s.exchanges.Update(ctx, ex); err != nil {
			return err
		}

		_, err = s.ledger.Post(ctx, ex.ID, domain.SplitPostings(ex))
		return err
	})
	metrics.ExchangeTransitionsTotal.WithLabelValues(string(domain.ExchangeStatusCompleted), metrics.Outcome(err)).Inc()
	if err != nil {
		logger.ExitMethodRejected("exchangeService.Complete", err, "exchangeID", exchangeID)
		return nil, err
	}

	s.notify(ctx, domain.EngineEventExchangeCompleted, ex, []int32{ex.CreatorID, *ex.CounterpartyID}, "")

	logger.ExitMethod("exchangeService.Complete", "exchangeID", exchangeID)
	return ex, nil
}

func (s *exchangeService) Cancel(ctx context.Context, exchangeID int32, reason string) (*domain.Exchange, error) {
	logger.EnterMethod("exchangeService.Cancel", "exchangeID", exchangeID, "reason", reason)

	var ex *domain.Exchange
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ex, err = s.exchanges.GetForUpdate(ctx, exchangeID)
		if err != nil {
			return err
		}
		if !ex.Status.CanTransitionTo(domain.ExchangeStatusCancelled) {
			return fmt.Errorf("%w: cannot cancel %s exchange", domain.ErrInvalidStateTransition, ex.Status)
		}
		return s.markCancelled(ctx, ex, reason)
	})
	metrics.ExchangeTransitionsTotal.WithLabelValues(string(domain.ExchangeStatusCancelled), metrics.Outcome(err)).Inc()
	if err != nil {
		logger.ExitMethodRejected("exchangeService.Cancel", err, "exchangeID", exchangeID)
		return nil, err
	}

	s.notifyCancelled(ctx, ex)

	logger.ExitMethod("exchangeService.Cancel", "exchangeID", exchangeID)
	return ex, nil
}

// markCancelled writes the cancellation of a locked exchange and frees the
// need capacity it reserved. It must run inside the caller's transaction.
func (s *exchangeService) markCancelled(ctx context.Context, ex *domain.Exchange, reason string) error {
	now := s.now()
	ex.Status = domain.ExchangeStatusCancelled
	ex.CancelReason = reason
	ex.EndedAt = &now
	if err := s.exchanges.Update(ctx, ex); err != nil {
		return err
	}
	if ex.Origin.FromNeed() && s.releaser != nil {
		return s.releaser.releaseExchange(ctx, ex.ID)
	}
	return nil
}

func (s *exchangeService) notifyCancelled(ctx context.Context, ex *domain.Exchange) {
	recipients := []int32{ex.CreatorID}
	if ex.CounterpartyID != nil {
		recipients = append(recipients, *ex.CounterpartyID)
	}
	s.notify(ctx, domain.EngineEventExchangeCancelled, ex, recipients, ex.CancelReason)
}

func (s *exchangeService) Get(ctx context.Context, exchangeID int32) (*domain.Exchange, error) {
	return s.exchanges.GetByID(ctx, exchangeID)
}

func (s *exchangeService) ListForUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return s.exchanges.ListByUser(ctx, userID, status, page, pageSize)
}

func (s *exchangeService) notify(ctx context.Context, typ domain.EngineEventType, ex *domain.Exchange, recipients []int32, reason string) {
	ev := domain.EngineEvent{
		Type:       typ,
		Recipients: recipients,
		ExchangeID: ex.ID,
		Reason:     reason,
		OccurredAt: s.now(),
	}
	if ex.Origin.FromNeed() {
		ev.EventID = *ex.Origin.EventID
		ev.NeedID = *ex.Origin.NeedID
	}
	s.notifier.Notify(ctx, ev)
}
