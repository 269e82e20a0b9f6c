package service_test

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"bobiz-backend/internal/domain"
)

// passthroughTx runs fn directly; mocked repositories have nothing to commit.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) Create(ctx context.Context, ex *domain.Exchange) error {
	args := m.Called(ctx, ex)
	return args.Error(0)
}

func (m *MockExchangeRepository) GetByID(ctx context.Context, id int32) (*domain.Exchange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Exchange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) Update(ctx context.Context, ex *domain.Exchange) error {
	args := m.Called(ctx, ex)
	return args.Error(0)
}

func (m *MockExchangeRepository) ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Exchange, int32, error) {
	args := m.Called(ctx, userID, status, page, pageSize)
	return args.Get(0).([]domain.Exchange), args.Get(1).(int32), args.Error(2)
}

func (m *MockExchangeRepository) ListStale(ctx context.Context, status domain.ExchangeStatus, createdBefore time.Time, limit int32) ([]domain.Exchange, error) {
	args := m.Called(ctx, status, createdBefore, limit)
	return args.Get(0).([]domain.Exchange), args.Error(1)
}

func (m *MockExchangeRepository) ListCompletedIDs(ctx context.Context, afterID, limit int32) ([]int32, error) {
	args := m.Called(ctx, afterID, limit)
	return args.Get(0).([]int32), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Post(ctx context.Context, exchangeID int32, postings []domain.Posting) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, exchangeID, postings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) Balance(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID int32) iter.Seq2[domain.LedgerEntry, error] {
	args := m.Called(ctx, userID)
	return args.Get(0).(iter.Seq2[domain.LedgerEntry, error])
}

func (m *MockLedgerService) Page(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, int32, error) {
	args := m.Called(ctx, userID, afterID, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int32), args.Error(2)
}

func (m *MockLedgerService) Entries(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, exchangeID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) Audit(ctx context.Context, exchangeID int32) (*domain.LedgerAudit, error) {
	args := m.Called(ctx, exchangeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAudit), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CreateEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockLedgerRepository) HasEntries(ctx context.Context, exchangeID int32) (bool, error) {
	args := m.Called(ctx, exchangeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) ListByUser(ctx context.Context, userID, afterID, limit int32) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, userID, afterID, limit)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListByExchange(ctx context.Context, exchangeID int32) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, exchangeID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

// recordingNotifier keeps every event handed to it.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.EngineEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev domain.EngineEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) ofType(typ domain.EngineEventType) []domain.EngineEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.EngineEvent
	for _, ev := range n.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
