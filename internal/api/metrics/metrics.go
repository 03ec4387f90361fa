// Package metrics defines and registers all custom Prometheus metrics for the
// task API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskdesk/task-system/internal/core/domain"
)

const namespace = "taskdesk"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts registration and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: the outcome reason (e.g. "Success", "InvalidCredentials", "AccountLocked")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// AuthorizationDenialsTotal counts requests rejected by authentication or
// authorization checks.
// Label:
//   - reason: "Unauthenticated" or "Forbidden"
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of requests denied for missing credentials or insufficient rights.",
	},
	[]string{"reason"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskMutationsTotal counts task writes.
// Labels:
//   - operation: "create", "update", "update_status", "delete" or "comment"
//   - result: the outcome reason (e.g. "Success", "ConcurrencyError")
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of task mutations, by operation and outcome.",
	},
	[]string{"operation", "result"},
)

// ObserveAuth records one authentication attempt with the reason of err.
func ObserveAuth(operation string, err error) {
	AuthAttemptsTotal.WithLabelValues(operation, domain.ReasonOf(err).String()).Inc()
}

// ObserveTaskMutation records one task write with the reason of err.
func ObserveTaskMutation(operation string, err error) {
	TaskMutationsTotal.WithLabelValues(operation, domain.ReasonOf(err).String()).Inc()
}

// ObserveDenial records a request rejected with reason. Other reasons are
// ignored.
func ObserveDenial(reason domain.Reason) {
	switch reason {
	case domain.ReasonUnauthenticated, domain.ReasonForbidden:
		AuthorizationDenialsTotal.WithLabelValues(reason.String()).Inc()
	}
}
