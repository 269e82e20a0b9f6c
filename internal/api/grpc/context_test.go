package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestCallerID(t *testing.T) {
	withUser := func(v string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("user-id", v))
	}

	id, err := callerID(withUser("42"))
	assert.NoError(t, err)
	assert.Equal(t, int32(42), id)

	for name, ctx := range map[string]context.Context{
		"NoMetadata": context.Background(),
		"Zero":       withUser("0"),
		"Negative":   withUser("-3"),
		"Garbage":    withUser("alice"),
		"Overflow":   withUser("4294967296"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := callerID(ctx)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}
