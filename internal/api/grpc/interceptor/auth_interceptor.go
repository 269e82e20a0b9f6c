package interceptor

import (
	"context"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"bobiz-backend/internal/config"
	"bobiz-backend/internal/security"
)

// UserIDKey is the metadata key carrying the authenticated caller. Only this
// interceptor may set it; whatever the client sends under it is discarded.
const UserIDKey = "user-id"

type AuthInterceptor struct {
	tokenManager security.TokenManager
}

func NewAuthInterceptor(tm security.TokenManager) *AuthInterceptor {
	return &AuthInterceptor{tokenManager: tm}
}

// Unary authenticates every engine call and rewrites the incoming metadata so
// handlers see exactly one caller: the subject of a valid token of the kind the
// method requires. Public methods run with no caller at all.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func (i *AuthInterceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	md = md.Copy()
	md.Delete(UserIDKey)

	required := config.GetSecurityLevel(method)
	if required == config.SecurityPublic {
		return metadata.NewIncomingContext(ctx, md), nil
	}

	token, ok := bearerToken(md)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}
	claims, err := i.tokenManager.ValidateToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	if claims.UserID < 1 {
		return nil, status.Error(codes.Unauthenticated, "token carries no member")
	}
	if want := tokenTypeFor(required); claims.Type != want {
		return nil, status.Errorf(codes.PermissionDenied, "%s token required", want)
	}

	md.Set(UserIDKey, strconv.FormatInt(int64(claims.UserID), 10))
	return metadata.NewIncomingContext(ctx, md), nil
}

// tokenTypeFor maps a method's security level to the token kind it accepts.
// Only session renewal takes a refresh token.
func tokenTypeFor(level config.SecurityLevel) security.TokenType {
	if level == config.SecurityRefresh {
		return security.TokenTypeRefresh
	}
	return security.TokenTypeAccess
}

func bearerToken(md metadata.MD) (string, bool) {
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", false
	}
	token := strings.TrimSpace(values[0])
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token, token != ""
}
