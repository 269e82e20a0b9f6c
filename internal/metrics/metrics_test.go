package metrics_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/metrics"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: completed", domain.ErrInvalidStateTransition), "invalid_state_transition"},
		{domain.ErrNeedFullyAllocated, "need_fully_allocated"},
		{domain.ErrDuplicateAssignment, "duplicate_assignment"},
		{domain.ErrLedgerPostingConflict, "ledger_posting_conflict"},
		{domain.ErrInvalidCategory, "invalid_input"},
		{domain.ErrUnknownEvent, "unknown_reference"},
		{errors.New("driver: bad connection"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, metrics.Outcome(tt.err))
	}
}

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(metrics.PositionsTotal.WithLabelValues("need_fully_allocated"))
	metrics.PositionsTotal.WithLabelValues("need_fully_allocated").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PositionsTotal.WithLabelValues("need_fully_allocated")))
}
