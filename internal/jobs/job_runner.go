package jobs

import (
	"time"

	"bobiz-backend/internal/config"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
	"bobiz-backend/internal/repository"
	"bobiz-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store  repository.Store
	engine *service.Engine
	config *config.Config
	now    func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, engine *service.Engine, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:  store,
		engine: engine,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) {
	outcome := "ok"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
		metrics.JobRunsTotal.WithLabelValues(jobName, outcome).Inc()
	}()

	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(); err != nil {
		outcome = "error"
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ExpireStaleExchanges()
	jr.ReconcileLedger()
}
