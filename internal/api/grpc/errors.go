package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository"
)

// toStatus maps engine errors onto gRPC status codes. Errors that already
// carry a status pass through; anything unrecognised becomes Internal and is
// logged without leaking its text to the caller.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrAlreadyAccepted),
		errors.Is(err, domain.ErrEventClosed):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrDuplicateAssignment), errors.Is(err, domain.ErrLedgerPostingConflict):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrNeedFullyAllocated):
		code = codes.ResourceExhausted
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidPointsValue),
		errors.Is(err, domain.ErrInvalidKind), errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidPosting), errors.Is(err, domain.ErrSelfExchange):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrUnknownExchange), errors.Is(err, domain.ErrUnknownNeed),
		errors.Is(err, domain.ErrUnknownEvent), errors.Is(err, repository.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrNotParticipant):
		code = codes.PermissionDenied
	default:
		logger.Error("Unhandled engine error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
