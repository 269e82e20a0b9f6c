package jobs

import (
	"context"
	"errors"
	"time"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
)

const staleCancelReason = "expired: not accepted in time"

// ExpireStaleExchanges cancels active exchanges nobody started in time
func (jr *JobRunner) ExpireStaleExchanges() {
	jr.runWithRecovery("ExpireStaleExchanges", func() error {
		_, err := jr.ExpireStale(context.Background())
		return err
	})
}

// ExpireStale cancels every exchange still active after the configured age
// and returns how many it cancelled. Cancelling an allocator exchange frees
// its need capacity.
func (jr *JobRunner) ExpireStale(ctx context.Context) (int, error) {
	age := time.Duration(jr.config.Engine.StaleExchangeAfterHours) * time.Hour
	cutoff := jr.now().Add(-age)
	batch := jr.config.Engine.JobBatchSize

	expired := 0
	for {
		stale, err := jr.store.Exchanges().ListStale(ctx, domain.ExchangeStatusActive, cutoff, batch)
		if err != nil {
			return expired, err
		}

		progressed := 0
		for _, ex := range stale {
			_, err := jr.engine.Exchanges.Cancel(ctx, ex.ID, staleCancelReason)
			switch {
			case err == nil:
				progressed++
			case errors.Is(err, domain.ErrInvalidStateTransition):
				// started or cancelled since it was listed
				progressed++
				continue
			default:
				logger.ForExchange(ex.ID).Error("Failed to expire exchange", "error", err)
				continue
			}
			expired++
		}

		if int32(len(stale)) < batch || progressed == 0 {
			break
		}
	}

	logger.Info("Expired stale exchanges", "count", expired, "cutoff", cutoff)
	return expired, nil
}
