package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"
)

func (h *Handler) GetNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	page, err := optionalInt32(req, "page", 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt32(req, "page_size", 20)
	if err != nil {
		return nil, err
	}

	notes, count, err := h.notifications.GetNotifications(ctx, userID, page, pageSize)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, len(notes))
	for i := range notes {
		items[i] = mapDomainNotificationToFields(&notes[i])
	}
	return respond(map[string]any{"notifications": items, "total_count": count})
}

func (h *Handler) MarkNotificationRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	noteID, err := requireInt32(req, "notification_id")
	if err != nil {
		return nil, err
	}
	if err := h.notifications.MarkAsRead(ctx, userID, noteID); err != nil {
		return nil, toStatus(err)
	}
	return respond(map[string]any{"success": true})
}
