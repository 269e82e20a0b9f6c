package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bobiz-backend/internal/domain"
)

func TestExchangeStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to domain.ExchangeStatus
		allowed  bool
	}{
		{domain.ExchangeStatusActive, domain.ExchangeStatusInProgress, true},
		{domain.ExchangeStatusActive, domain.ExchangeStatusCancelled, true},
		{domain.ExchangeStatusActive, domain.ExchangeStatusCompleted, false},
		{domain.ExchangeStatusInProgress, domain.ExchangeStatusCompleted, true},
		{domain.ExchangeStatusInProgress, domain.ExchangeStatusCancelled, true},
		{domain.ExchangeStatusInProgress, domain.ExchangeStatusActive, false},
		{domain.ExchangeStatusCompleted, domain.ExchangeStatusCancelled, false},
		{domain.ExchangeStatusCompleted, domain.ExchangeStatusCompleted, false},
		{domain.ExchangeStatusCancelled, domain.ExchangeStatusActive, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, domain.ExchangeStatusCompleted.Terminal())
	assert.True(t, domain.ExchangeStatusCancelled.Terminal())
	assert.False(t, domain.ExchangeStatusInProgress.Terminal())
}

func TestEventStatusTransitions(t *testing.T) {
	assert.True(t, domain.EventStatusPlanned.CanTransitionTo(domain.EventStatusInProgress))
	assert.True(t, domain.EventStatusPlanned.CanTransitionTo(domain.EventStatusCancelled))
	assert.False(t, domain.EventStatusPlanned.CanTransitionTo(domain.EventStatusCompleted))
	assert.True(t, domain.EventStatusInProgress.CanTransitionTo(domain.EventStatusCompleted))
	assert.False(t, domain.EventStatusCompleted.CanTransitionTo(domain.EventStatusCancelled))

	assert.False(t, domain.EventStatusInProgress.Closed())
	assert.True(t, domain.EventStatusCancelled.Closed())
}

func TestSplitPostings(t *testing.T) {
	counterparty := int32(2)
	tests := []struct {
		kind         domain.ExchangeKind
		creatorDelta int32
	}{
		{domain.ExchangeKindLoan, 30},
		{domain.ExchangeKindServiceOffered, 30},
		{domain.ExchangeKindBorrow, -30},
		{domain.ExchangeKindServiceRequested, -30},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ex := &domain.Exchange{Kind: tt.kind, CreatorID: 1, CounterpartyID: &counterparty, PointsValue: 30}
			postings := domain.SplitPostings(ex)
			assert.Len(t, postings, 2)

			byUser := map[int32]domain.Posting{}
			var sum int32
			for _, p := range postings {
				byUser[p.UserID] = p
				sum += p.Amount
			}
			assert.Zero(t, sum)
			assert.Equal(t, tt.creatorDelta, byUser[1].Amount)
			assert.Equal(t, -tt.creatorDelta, byUser[2].Amount)
			if tt.creatorDelta > 0 {
				assert.Equal(t, domain.LedgerReasonGain, byUser[1].Reason)
				assert.Equal(t, domain.LedgerReasonDepense, byUser[2].Reason)
			} else {
				assert.Equal(t, domain.LedgerReasonDepense, byUser[1].Reason)
				assert.Equal(t, domain.LedgerReasonGain, byUser[2].Reason)
			}
		})
	}

	t.Run("NoCounterparty", func(t *testing.T) {
		assert.Nil(t, domain.SplitPostings(&domain.Exchange{Kind: domain.ExchangeKindLoan, CreatorID: 1}))
	})

	t.Run("ZeroPoints", func(t *testing.T) {
		postings := domain.SplitPostings(&domain.Exchange{Kind: domain.ExchangeKindLoan, CreatorID: 1, CounterpartyID: &counterparty})
		assert.Len(t, postings, 2)
		assert.Zero(t, postings[0].Amount)
	})
}

func TestNeedStatusFor(t *testing.T) {
	assert.Equal(t, domain.NeedStatusFree, domain.NeedStatusFor(0, 4))
	assert.Equal(t, domain.NeedStatusPartial, domain.NeedStatusFor(2, 4))
	assert.Equal(t, domain.NeedStatusComplete, domain.NeedStatusFor(4, 4))
}

func TestNeedCategoryExchangeKind(t *testing.T) {
	assert.Equal(t, domain.ExchangeKindBorrow, domain.NeedCategoryItem.ExchangeKind())
	assert.Equal(t, domain.ExchangeKindServiceRequested, domain.NeedCategoryService.ExchangeKind())
	assert.False(t, domain.NeedCategory("food").Valid())
}

func TestExchangeHasParticipant(t *testing.T) {
	ex := &domain.Exchange{CreatorID: 1}
	assert.True(t, ex.HasParticipant(1))
	assert.False(t, ex.HasParticipant(2))

	counterparty := int32(2)
	ex.CounterpartyID = &counterparty
	assert.True(t, ex.HasParticipant(2))
	assert.False(t, ex.HasParticipant(3))
}

func TestExchangeOrigin(t *testing.T) {
	assert.False(t, domain.DirectOrigin().FromNeed())

	origin := domain.NeedOrigin(7, 9)
	assert.True(t, origin.FromNeed())
	assert.Equal(t, int32(7), *origin.EventID)
	assert.Equal(t, int32(9), *origin.NeedID)
}

func TestLedgerAuditBalanced(t *testing.T) {
	assert.True(t, domain.LedgerAudit{Entries: 2, Sum: 0}.Balanced())
	assert.False(t, domain.LedgerAudit{Entries: 1, Sum: 30}.Balanced())
}
