package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/service"
)

func (h *Handler) CreateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	title, err := requireString(req, "title")
	if err != nil {
		return nil, err
	}
	startsAt, err := optionalTime(req, "starts_at")
	if err != nil {
		return nil, err
	}

	ev, err := h.catalog.CreateEvent(ctx, userID, title, startsAt)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"event": MapDomainEventToFields(ev)})
}

func (h *Handler) AddNeed(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID, err := h.authorizeOrganizer(ctx, req)
	if err != nil {
		return nil, err
	}
	label, err := requireString(req, "label")
	if err != nil {
		return nil, err
	}
	category, err := optionalString(req, "category")
	if err != nil {
		return nil, err
	}
	quantity, err := requireInt32(req, "requested_quantity")
	if err != nil {
		return nil, err
	}
	urgent, err := optionalBool(req, "urgent")
	if err != nil {
		return nil, err
	}

	need, err := h.catalog.AddNeed(ctx, service.NeedParams{
		EventID:           eventID,
		Label:             label,
		Category:          domain.NeedCategory(category),
		RequestedQuantity: quantity,
		Urgent:            urgent,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"need": MapDomainNeedToFields(need)})
}

func (h *Handler) SetEventStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID, err := h.authorizeOrganizer(ctx, req)
	if err != nil {
		return nil, err
	}
	next, err := requireString(req, "status")
	if err != nil {
		return nil, err
	}

	ev, err := h.catalog.SetEventStatus(ctx, eventID, domain.EventStatus(next))
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"event": MapDomainEventToFields(ev)})
}

func (h *Handler) GetEventStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	eventID, err := requireInt32(req, "event_id")
	if err != nil {
		return nil, err
	}
	agg, err := h.catalog.AggregateStatus(ctx, eventID)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(MapDomainAggregateToFields(agg))
}

func (h *Handler) Position(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	needID, err := requireInt32(req, "need_id")
	if err != nil {
		return nil, err
	}
	quantity, err := optionalInt32(req, "quantity", 1)
	if err != nil {
		return nil, err
	}
	points, err := optionalInt32(req, "points_value", 0)
	if err != nil {
		return nil, err
	}

	assignment, ex, err := h.allocator.Position(ctx, service.PositionRequest{
		NeedID:        needID,
		ParticipantID: userID,
		Quantity:      quantity,
		PointsValue:   points,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{
		"assignment": MapDomainAssignmentToFields(assignment),
		"exchange":   MapDomainExchangeToFields(ex),
	})
}

func (h *Handler) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	needID, err := requireInt32(req, "need_id")
	if err != nil {
		return nil, err
	}
	ex, err := h.allocator.Withdraw(ctx, needID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}
