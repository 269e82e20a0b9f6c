package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	api "bobiz-backend/internal/api/grpc"
	"bobiz-backend/internal/api/grpc/interceptor"
	"bobiz-backend/internal/repository/memory"
	"bobiz-backend/internal/security"
	"bobiz-backend/internal/service"
)

type testServer struct {
	client *api.Client
	conn   *grpc.ClientConn
	tokens security.TokenManager
}

func startServer(t *testing.T) *testServer {
	t.Helper()

	tokens := security.NewTokenManager(testSecret, time.Hour, time.Hour)
	engine := service.NewEngine(memory.NewStore(), service.Options{})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.Logging(),
		interceptor.NewAuthInterceptor(tokens).Unary(),
	))
	api.RegisterEngineServer(srv, api.NewHandler(engine, tokens))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
	})
	return &testServer{client: api.NewClient(conn), conn: conn, tokens: tokens}
}

func (s *testServer) session(t *testing.T, userID int32) *security.Session {
	t.Helper()
	session, err := s.tokens.NewSession(userID)
	require.NoError(t, err)
	return session
}

func TestServer_RequiresAccessToken(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()

	_, err := s.client.Call(ctx, "GetBalance", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.client.Call(api.WithToken(ctx, "garbage"), "GetBalance", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	session := s.session(t, 1)
	_, err = s.client.Call(api.WithToken(ctx, session.RefreshToken), "GetBalance", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = s.client.Call(api.WithToken(ctx, session.AccessToken), "RefreshToken", nil)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	refreshed, err := s.client.Call(api.WithToken(ctx, session.RefreshToken), "RefreshToken", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.GetFields()["access_token"].GetStringValue())
}

func TestServer_TokenIdentityWins(t *testing.T) {
	s := startServer(t)
	alice := s.session(t, 1)

	// a forged user-id header is replaced by the token's subject
	ctx := metadata.AppendToOutgoingContext(api.WithToken(context.Background(), alice.AccessToken), "user-id", "2")
	created, err := s.client.Call(ctx, "CreateExchange", map[string]any{"kind": "loan", "points_value": 10})
	require.NoError(t, err)
	assert.Equal(t, float64(1), num(created, "exchange", "creator_id"))
}

func TestServer_HealthIsPublic(t *testing.T) {
	s := startServer(t)

	resp, err := healthpb.NewHealthClient(s.conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_ConcurrentPositioning(t *testing.T) {
	s := startServer(t)
	ctx := context.Background()
	organizer := api.WithToken(ctx, s.session(t, 1).AccessToken)

	ev, err := s.client.Call(organizer, "CreateEvent", map[string]any{"title": "Garden cleanup"})
	require.NoError(t, err)
	need, err := s.client.Call(organizer, "AddNeed", map[string]any{
		"event_id":           num(ev, "event", "id"),
		"label":              "Rakes",
		"requested_quantity": 4,
	})
	require.NoError(t, err)
	needID := num(need, "need", "id")

	codesSeen := make([]codes.Code, 5)
	var g errgroup.Group
	for i := range codesSeen {
		participant := api.WithToken(ctx, s.session(t, int32(i+2)).AccessToken)
		g.Go(func() error {
			_, err := s.client.Call(participant, "Position", map[string]any{"need_id": needID, "points_value": 3})
			codesSeen[i] = status.Code(err)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	counts := map[codes.Code]int{}
	for _, c := range codesSeen {
		counts[c]++
	}
	assert.Equal(t, 4, counts[codes.OK])
	assert.Equal(t, 1, counts[codes.ResourceExhausted])

	agg, err := s.client.Call(organizer, "GetEventStatus", map[string]any{"event_id": num(ev, "event", "id")})
	require.NoError(t, err)
	assert.Equal(t, "ready", str(agg, "overall"))
}
