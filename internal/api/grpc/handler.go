package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"bobiz-backend/internal/security"
	"bobiz-backend/internal/service"
)

// Handler implements EngineServer on top of the engine services. Callers are
// identified by the user-id the auth interceptor puts into the metadata;
// ownership checks happen here, before the services are called.
type Handler struct {
	exchanges     service.ExchangeService
	allocator     service.NeedAllocator
	ledger        service.LedgerService
	catalog       service.EventCatalog
	notifications service.NotificationService
	tokens        security.TokenManager
}

func NewHandler(engine *service.Engine, tokens security.TokenManager) *Handler {
	return &Handler{
		exchanges:     engine.Exchanges,
		allocator:     engine.Allocator,
		ledger:        engine.Ledger,
		catalog:       engine.Catalog,
		notifications: engine.Notifications,
		tokens:        tokens,
	}
}

var _ EngineServer = (*Handler)(nil)

func (h *Handler) RefreshToken(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	session, err := h.tokens.NewSession(userID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "issue tokens: %v", err)
	}
	return respond(map[string]any{
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
	})
}
