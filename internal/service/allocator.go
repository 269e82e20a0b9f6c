package service

import (
	"context"
	"errors"
	"fmt"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/repository"
)

type needAllocator struct {
	tx          repository.Transactor
	events      repository.EventRepository
	needs       repository.NeedRepository
	assignments repository.AssignmentRepository
	exchanges   *exchangeService
	notifier    Notifier
}

// Position reserves quantity units of a need for a participant and spawns the
// exchange that fulfils the reservation. The need row stays locked from the
// capacity read to the assignment write, so concurrent positionings on one
// need are serialized and the requested quantity is never exceeded.
func (a *needAllocator) Position(ctx context.Context, req PositionRequest) (*domain.Assignment, *domain.Exchange, error) {
	logger.EnterMethod("needAllocator.Position", "needID", req.NeedID, "participantID", req.ParticipantID, "quantity", req.Quantity)

	if req.Quantity < 1 {
		return nil, nil, a.reject(ctx, req, 0, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, req.Quantity))
	}
	if req.PointsValue < 0 {
		return nil, nil, a.reject(ctx, req, 0, fmt.Errorf("%w: %d", domain.ErrInvalidPointsValue, req.PointsValue))
	}

	var (
		assignment *domain.Assignment
		ex         *domain.Exchange
		eventID    int32
	)
	err := a.tx.WithinTx(ctx, func(ctx context.Context) error {
		need, err := a.needs.GetForUpdate(ctx, req.NeedID)
		if err != nil {
			return err
		}
		eventID = need.EventID

		// The shared lock holds off a concurrent status change until this
		// positioning commits, so a cancelled event never gains an exchange.
		event, err := a.events.GetForShare(ctx, need.EventID)
		if err != nil {
			return err
		}
		if event.Status.Closed() {
			return fmt.Errorf("%w: event %d is %s", domain.ErrEventClosed, event.ID, event.Status)
		}
		if event.OrganizerID == req.ParticipantID {
			return domain.ErrSelfExchange
		}

		if _, err := a.assignments.Get(ctx, req.NeedID, req.ParticipantID); err == nil {
			return domain.ErrDuplicateAssignment
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		assigned, err := a.assignments.SumQuantity(ctx, req.NeedID)
		if err != nil {
			return err
		}
		if assigned+int64(req.Quantity) > int64(need.RequestedQuantity) {
			return fmt.Errorf("%w: %d of %d assigned, %d requested",
				domain.ErrNeedFullyAllocated, assigned, need.RequestedQuantity, req.Quantity)
		}

		participantID := req.ParticipantID
		ex, err = a.exchanges.create(ctx, ExchangeParams{
			Kind:           need.Category.ExchangeKind(),
			Title:          need.Label,
			CreatorID:      event.OrganizerID,
			CounterpartyID: &participantID,
			PointsValue:    req.PointsValue,
			Origin:         domain.NeedOrigin(need.EventID, need.ID),
		})
		if err != nil {
			return err
		}

		assignment = &domain.Assignment{
			NeedID:        req.NeedID,
			ParticipantID: req.ParticipantID,
			Quantity:      req.Quantity,
			ExchangeID:    ex.ID,
		}
		return a.assignments.Create(ctx, assignment)
	})
	if err != nil {
		return nil, nil, a.reject(ctx, req, eventID, err)
	}

	metrics.PositionsTotal.WithLabelValues(metrics.Outcome(nil)).Inc()
	a.notifier.Notify(ctx, domain.EngineEvent{
		Type:       domain.EngineEventPositionAccepted,
		Recipients: []int32{req.ParticipantID, ex.CreatorID},
		ExchangeID: ex.ID,
		NeedID:     req.NeedID,
		EventID:    eventID,
		OccurredAt: a.exchanges.now(),
	})

	logger.ExitMethod("needAllocator.Position", "assignmentID", assignment.ID, "exchangeID", ex.ID)
	return assignment, ex, nil
}

// reject records a refused positioning and tells the participant about it.
// Storage failures are returned without a notification.
func (a *needAllocator) reject(ctx context.Context, req PositionRequest, eventID int32, err error) error {
	outcome := metrics.Outcome(err)
	metrics.PositionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "error" {
		logger.ExitMethodWithError("needAllocator.Position", err, "needID", req.NeedID)
		return err
	}

	logger.ExitMethodRejected("needAllocator.Position", err, "needID", req.NeedID, "participantID", req.ParticipantID)
	a.notifier.Notify(ctx, domain.EngineEvent{
		Type:       domain.EngineEventPositionRejected,
		Recipients: []int32{req.ParticipantID},
		NeedID:     req.NeedID,
		EventID:    eventID,
		Reason:     err.Error(),
		OccurredAt: a.exchanges.now(),
	})
	return err
}

func (a *needAllocator) Release(ctx context.Context, needID, participantID int32) error {
	released, err := a.assignments.Delete(ctx, needID, participantID)
	if err != nil {
		return err
	}
	if released {
		logger.ForNeed(needID).Debug("Released need capacity", "participantID", participantID)
	}
	return nil
}

// releaseExchange frees the reservation that spawned the exchange, if any.
func (a *needAllocator) releaseExchange(ctx context.Context, exchangeID int32) error {
	assignment, err := a.assignments.GetByExchange(ctx, exchangeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.Release(ctx, assignment.NeedID, assignment.ParticipantID)
}

// Withdraw cancels the exchange spawned by the participant's positioning,
// which releases the reserved capacity in the same transaction.
func (a *needAllocator) Withdraw(ctx context.Context, needID, participantID int32) (*domain.Exchange, error) {
	assignment, err := a.assignments.Get(ctx, needID, participantID)
	if errors.Is(err, repository.ErrNotFound) {
		if _, err := a.needs.GetByID(ctx, needID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no positioning of participant %d on need %d", domain.ErrNotParticipant, participantID, needID)
	}
	if err != nil {
		return nil, err
	}
	return a.exchanges.Cancel(ctx, assignment.ExchangeID, "withdrawn by participant")
}

func (a *needAllocator) Status(ctx context.Context, needID int32) (domain.NeedStatus, error) {
	need, assigned, err := a.load(ctx, needID)
	if err != nil {
		return "", err
	}
	return domain.NeedStatusFor(assigned, need.RequestedQuantity), nil
}

func (a *needAllocator) Remaining(ctx context.Context, needID int32) (int32, error) {
	need, assigned, err := a.load(ctx, needID)
	if err != nil {
		return 0, err
	}
	return int32(max(int64(need.RequestedQuantity)-assigned, 0)), nil
}

func (a *needAllocator) Assignments(ctx context.Context, needID int32) ([]domain.Assignment, error) {
	if _, err := a.needs.GetByID(ctx, needID); err != nil {
		return nil, err
	}
	return a.assignments.ListByNeed(ctx, needID)
}

func (a *needAllocator) load(ctx context.Context, needID int32) (*domain.Need, int64, error) {
	need, err := a.needs.GetByID(ctx, needID)
	if err != nil {
		return nil, 0, err
	}
	assigned, err := a.assignments.SumQuantity(ctx, needID)
	if err != nil {
		return nil, 0, err
	}
	return need, assigned, nil
}
