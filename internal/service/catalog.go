package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/repository"
)

const eventCancelledReason = "event cancelled"

type eventCatalog struct {
	tx          repository.Transactor
	events      repository.EventRepository
	needs       repository.NeedRepository
	assignments repository.AssignmentRepository
	exchanges   *exchangeService
}

func (c *eventCatalog) CreateEvent(ctx context.Context, organizerID int32, title string, startsAt *time.Time) (*domain.Event, error) {
	ev := &domain.Event{
		OrganizerID: organizerID,
		Title:       strings.TrimSpace(title),
		Status:      domain.EventStatusPlanned,
		StartsAt:    startsAt,
	}
	if err := c.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	logger.Info("Event created", "eventID", ev.ID, "organizerID", organizerID)
	return ev, nil
}

func (c *eventCatalog) GetEvent(ctx context.Context, eventID int32) (*domain.Event, error) {
	return c.events.GetByID(ctx, eventID)
}

// SetEventStatus moves the event along its lifecycle. Cancelling an event
// also cancels every open exchange spawned by its needs, which releases
// their capacity. The status change and the cascade commit together while
// the event row is locked.
func (c *eventCatalog) SetEventStatus(ctx context.Context, eventID int32, status domain.EventStatus) (*domain.Event, error) {
	logger.EnterMethod("eventCatalog.SetEventStatus", "eventID", eventID, "status", status)

	var (
		ev        *domain.Event
		cancelled []*domain.Exchange
	)
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ev, err = c.events.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !ev.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: event %s -> %s", domain.ErrInvalidStateTransition, ev.Status, status)
		}
		if err := c.events.UpdateStatus(ctx, eventID, status); err != nil {
			return err
		}
		ev.Status = status

		if status == domain.EventStatusCancelled {
			cancelled, err = c.cancelOpenExchanges(ctx, eventID)
		}
		return err
	})
	if errors.Is(err, domain.ErrInvalidStateTransition) || errors.Is(err, domain.ErrUnknownEvent) {
		logger.ExitMethodRejected("eventCatalog.SetEventStatus", err, "eventID", eventID)
		return nil, err
	}
	if err != nil {
		logger.ExitMethodWithError("eventCatalog.SetEventStatus", err, "eventID", eventID)
		return nil, err
	}

	for _, ex := range cancelled {
		metrics.ExchangeTransitionsTotal.WithLabelValues(string(domain.ExchangeStatusCancelled), metrics.Outcome(nil)).Inc()
		c.exchanges.notifyCancelled(ctx, ex)
	}

	logger.ExitMethod("eventCatalog.SetEventStatus", "eventID", eventID, "cancelledExchanges", len(cancelled))
	return ev, nil
}

// cancelOpenExchanges cancels the non-terminal exchanges behind the event's
// positionings. It runs inside the status change transaction.
func (c *eventCatalog) cancelOpenExchanges(ctx context.Context, eventID int32) ([]*domain.Exchange, error) {
	needs, err := c.needs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	var cancelled []*domain.Exchange
	for _, need := range needs {
		assignments, err := c.assignments.ListByNeed(ctx, need.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range assignments {
			ex, err := c.exchanges.exchanges.GetForUpdate(ctx, a.ExchangeID)
			if err != nil {
				return nil, err
			}
			if ex.Status.Terminal() {
				continue
			}
			if err := c.exchanges.markCancelled(ctx, ex, eventCancelledReason); err != nil {
				return nil, err
			}
			cancelled = append(cancelled, ex)
		}
	}
	return cancelled, nil
}

func (c *eventCatalog) AddNeed(ctx context.Context, p NeedParams) (*domain.Need, error) {
	if p.RequestedQuantity < 1 {
		return nil, fmt.Errorf("%w: requested quantity %d", domain.ErrInvalidQuantity, p.RequestedQuantity)
	}
	if p.Category == "" {
		p.Category = domain.NeedCategoryItem
	}
	if !p.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, p.Category)
	}

	need := &domain.Need{
		EventID:           p.EventID,
		Label:             strings.TrimSpace(p.Label),
		Category:          p.Category,
		RequestedQuantity: p.RequestedQuantity,
		Urgent:            p.Urgent,
	}
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		ev, err := c.events.GetForShare(ctx, p.EventID)
		if err != nil {
			return err
		}
		if ev.Status.Closed() {
			return fmt.Errorf("%w: event %d is %s", domain.ErrEventClosed, ev.ID, ev.Status)
		}
		return c.needs.Create(ctx, need)
	})
	if err != nil {
		return nil, err
	}
	return need, nil
}

func (c *eventCatalog) ListNeeds(ctx context.Context, eventID int32) ([]domain.Need, error) {
	if _, err := c.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return c.needs.ListByEvent(ctx, eventID)
}

// AggregateStatus is informational only. It reads without locks, so it may
// trail positionings that commit while it runs.
func (c *eventCatalog) AggregateStatus(ctx context.Context, eventID int32) (*domain.EventAggregate, error) {
	ev, err := c.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	needs, err := c.needs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	assigned, err := c.assignments.SumQuantityByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	agg := &domain.EventAggregate{
		Event:   *ev,
		Needs:   make(map[int32]domain.NeedFulfillment, len(needs)),
		Overall: domain.FulfillmentReady,
	}
	if len(needs) == 0 {
		agg.Overall = domain.FulfillmentPlanned
	}
	for _, n := range needs {
		status := domain.NeedStatusFor(assigned[n.ID], n.RequestedQuantity)
		agg.Needs[n.ID] = domain.NeedFulfillment{Need: n, Assigned: assigned[n.ID], Status: status}
		if status != domain.NeedStatusComplete {
			agg.Overall = domain.FulfillmentPlanned
		}
	}
	return agg, nil
}
