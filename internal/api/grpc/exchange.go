package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/service"
)

func (h *Handler) CreateExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := requireString(req, "kind")
	if err != nil {
		return nil, err
	}
	title, err := optionalString(req, "title")
	if err != nil {
		return nil, err
	}
	points, err := requireInt32(req, "points_value")
	if err != nil {
		return nil, err
	}

	ex, err := h.exchanges.Create(ctx, service.ExchangeParams{
		Kind:        domain.ExchangeKind(kind),
		Title:       title,
		CreatorID:   userID,
		PointsValue: points,
		Origin:      domain.DirectOrigin(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}

func (h *Handler) AcceptExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	exchangeID, err := requireInt32(req, "exchange_id")
	if err != nil {
		return nil, err
	}

	ex, err := h.exchanges.AcceptAndStart(ctx, exchangeID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}

func (h *Handler) CompleteExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	exchangeID, err := h.authorizeParticipant(ctx, req)
	if err != nil {
		return nil, err
	}
	ex, err := h.exchanges.Complete(ctx, exchangeID)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}

func (h *Handler) CancelExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	exchangeID, err := h.authorizeParticipant(ctx, req)
	if err != nil {
		return nil, err
	}
	reason, err := optionalString(req, "reason")
	if err != nil {
		return nil, err
	}
	ex, err := h.exchanges.Cancel(ctx, exchangeID, reason)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}

func (h *Handler) GetExchange(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	exchangeID, err := requireInt32(req, "exchange_id")
	if err != nil {
		return nil, err
	}
	ex, err := h.exchanges.Get(ctx, exchangeID)
	if err != nil {
		return nil, toStatus(err)
	}
	// Open exchanges without a counterparty are visible to anyone who may accept them.
	if !ex.HasParticipant(userID) && ex.CounterpartyID != nil {
		return nil, toStatus(domain.ErrNotParticipant)
	}
	return respond(map[string]any{"exchange": MapDomainExchangeToFields(ex)})
}

func (h *Handler) ListMyExchanges(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	statusFilter, err := optionalString(req, "status")
	if err != nil {
		return nil, err
	}
	if statusFilter != "" {
		switch domain.ExchangeStatus(statusFilter) {
		case domain.ExchangeStatusActive, domain.ExchangeStatusInProgress,
			domain.ExchangeStatusCompleted, domain.ExchangeStatusCancelled:
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", statusFilter)
		}
	}
	page, err := optionalInt32(req, "page", 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt32(req, "page_size", 20)
	if err != nil {
		return nil, err
	}

	exchanges, total, err := h.exchanges.ListForUser(ctx, userID, statusFilter, page, pageSize)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, len(exchanges))
	for i := range exchanges {
		items[i] = MapDomainExchangeToFields(&exchanges[i])
	}
	return respond(map[string]any{"exchanges": items, "total_count": total})
}
