package jobs

import (
	"context"

	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/metrics"
)

// ReconcileReport lists completed exchanges whose postings are wrong.
type ReconcileReport struct {
	Checked    int
	Missing    []int32
	Unbalanced []int32
}

// ReconcileLedger audits the postings of every completed exchange
func (jr *JobRunner) ReconcileLedger() {
	jr.runWithRecovery("ReconcileLedger", func() error {
		_, err := jr.Reconcile(context.Background())
		return err
	})
}

// Reconcile checks that every completed exchange has exactly one posting
// batch and that the batch sums to zero.
func (jr *JobRunner) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	batch := jr.config.Engine.JobBatchSize
	report := &ReconcileReport{}

	var afterID int32
	for {
		ids, err := jr.store.Exchanges().ListCompletedIDs(ctx, afterID, batch)
		if err != nil {
			return report, err
		}
		for _, id := range ids {
			audit, err := jr.engine.Ledger.Audit(ctx, id)
			if err != nil {
				return report, err
			}
			report.Checked++
			switch {
			case audit.Entries == 0:
				report.Missing = append(report.Missing, id)
				metrics.LedgerAnomaliesTotal.WithLabelValues("missing").Inc()
				logger.ForExchange(id).Error("Completed exchange has no ledger postings")
			case !audit.Balanced():
				report.Unbalanced = append(report.Unbalanced, id)
				metrics.LedgerAnomaliesTotal.WithLabelValues("unbalanced").Inc()
				logger.ForExchange(id).Error("Ledger postings do not sum to zero", "sum", audit.Sum, "entries", audit.Entries)
			}
			afterID = id
		}
		if int32(len(ids)) < batch {
			break
		}
	}

	logger.Info("Ledger reconciliation finished",
		"checked", report.Checked,
		"missing", len(report.Missing),
		"unbalanced", len(report.Unbalanced))
	return report, nil
}
