package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobiz-backend/internal/config"
	"bobiz-backend/internal/jobs"
	"bobiz-backend/internal/repository/memory"
	"bobiz-backend/internal/scheduler"
	"bobiz-backend/internal/service"
)

func newJobRunner(expire, reconcile string) *jobs.JobRunner {
	store := memory.NewStore()
	cfg := &config.Config{
		Engine:    config.EngineConfig{StaleExchangeAfterHours: 24, JobBatchSize: 100},
		Scheduler: config.SchedulerConfig{ExpireStaleExchanges: expire, ReconcileLedger: reconcile},
	}
	return jobs.NewJobRunner(store, service.NewEngine(store, service.Options{}), cfg)
}

func TestNewScheduler(t *testing.T) {
	s, err := scheduler.NewScheduler(newJobRunner("0 0 2 * * *", "0 30 3 * * *"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := scheduler.NewScheduler(newJobRunner("every night", "0 30 3 * * *"))
	assert.ErrorContains(t, err, "ExpireStaleExchanges")

	_, err = scheduler.NewScheduler(newJobRunner("0 0 2 * * *", "0 30 3 * *"))
	assert.ErrorContains(t, err, "ReconcileLedger")
}
