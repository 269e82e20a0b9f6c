package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxHistoryPage = 500

func (h *Handler) GetBalance(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"balance": balance})
}

// GetHistory returns up to limit entries created after after_id. Pass the
// returned next_after_id back to continue; it is absent on the last page.
func (h *Handler) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	afterID, err := optionalInt32(req, "after_id", 0)
	if err != nil {
		return nil, err
	}
	limit, err := optionalInt32(req, "limit", 50)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxHistoryPage {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be between 1 and %d", maxHistoryPage)
	}

	page, next, err := h.ledger.Page(ctx, userID, afterID, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	entries := make([]any, len(page))
	for i := range page {
		entries[i] = MapDomainLedgerEntryToFields(&page[i])
	}

	resp := map[string]any{"entries": entries}
	if next != 0 {
		resp["next_after_id"] = next
	}
	return respond(resp)
}
