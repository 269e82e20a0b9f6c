package interceptor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bobiz-backend/internal/logger"
)

// Logging logs every unary call with its status code and latency, and turns
// handler panics into Internal errors.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in gRPC handler", "method", info.FullMethod, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			args := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
			switch code {
			case codes.OK:
				logger.Debug("gRPC call", args...)
			case codes.Internal, codes.Unknown, codes.Unavailable:
				logger.Error("gRPC call failed", append(args, "error", err)...)
			default:
				logger.Info("gRPC call rejected", append(args, "error", err)...)
			}
		}()
		return handler(ctx, req)
	}
}
