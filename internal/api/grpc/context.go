package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"bobiz-backend/internal/api/grpc/interceptor"
	"bobiz-backend/internal/domain"
)

// callerID returns the member the auth interceptor resolved for this call.
func callerID(ctx context.Context) (int32, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(interceptor.UserIDKey)
	if len(values) == 0 {
		return 0, status.Error(codes.Unauthenticated, "caller is not authenticated")
	}
	id, err := strconv.ParseInt(values[0], 10, 32)
	if err != nil || id < 1 {
		return 0, status.Errorf(codes.Unauthenticated, "invalid caller id %q", values[0])
	}
	return int32(id), nil
}

// authorizeParticipant reads exchange_id and checks that the caller is one of
// the exchange's two parties.
func (h *Handler) authorizeParticipant(ctx context.Context, req *structpb.Struct) (int32, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return 0, err
	}
	exchangeID, err := requireInt32(req, "exchange_id")
	if err != nil {
		return 0, err
	}
	ex, err := h.exchanges.Get(ctx, exchangeID)
	if err != nil {
		return 0, toStatus(err)
	}
	if !ex.HasParticipant(userID) {
		return 0, toStatus(domain.ErrNotParticipant)
	}
	return exchangeID, nil
}

// authorizeOrganizer reads event_id and checks that the caller organizes it.
func (h *Handler) authorizeOrganizer(ctx context.Context, req *structpb.Struct) (int32, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return 0, err
	}
	eventID, err := requireInt32(req, "event_id")
	if err != nil {
		return 0, err
	}
	ev, err := h.catalog.GetEvent(ctx, eventID)
	if err != nil {
		return 0, toStatus(err)
	}
	if ev.OrganizerID != userID {
		return 0, status.Error(codes.PermissionDenied, "only the organizer can change this event")
	}
	return eventID, nil
}
