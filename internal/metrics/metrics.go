// Package metrics holds the Prometheus collectors of the engine.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bobiz-backend/internal/domain"
)

var PositionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "positions_total",
	Help:      "Need positioning attempts by outcome.",
}, []string{"outcome"})

var ExchangeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "exchange_transitions_total",
	Help:      "Exchange lifecycle transitions by target status and outcome.",
}, []string{"status", "outcome"})

var LedgerBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "ledger_batches_total",
	Help:      "Ledger posting batches by outcome.",
}, []string{"outcome"})

var LedgerAnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "ledger_anomalies_total",
	Help:      "Completed exchanges whose postings are missing or do not sum to zero.",
}, []string{"kind"})

var NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "notifications_total",
	Help:      "Notification deliveries by sink and outcome.",
}, []string{"sink", "outcome"})

var NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "notifications_dropped_total",
	Help:      "Engine events dropped because the notification queue was full.",
})

var JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bobiz",
	Name:      "job_runs_total",
	Help:      "Scheduled job runs by job and outcome.",
}, []string{"job", "outcome"})

// Outcome turns an operation result into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, domain.ErrAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, domain.ErrDuplicateAssignment):
		return "duplicate_assignment"
	case errors.Is(err, domain.ErrNeedFullyAllocated):
		return "need_fully_allocated"
	case errors.Is(err, domain.ErrLedgerPostingConflict):
		return "ledger_posting_conflict"
	case errors.Is(err, domain.ErrEventClosed):
		return "event_closed"
	case errors.Is(err, domain.ErrSelfExchange):
		return "self_exchange"
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidPointsValue),
		errors.Is(err, domain.ErrInvalidKind), errors.Is(err, domain.ErrInvalidPosting),
		errors.Is(err, domain.ErrInvalidCategory):
		return "invalid_input"
	case errors.Is(err, domain.ErrUnknownExchange), errors.Is(err, domain.ErrUnknownNeed),
		errors.Is(err, domain.ErrUnknownEvent):
		return "unknown_reference"
	default:
		return "error"
	}
}
