// Package metrics defines and registers all custom Prometheus metrics for the
// Seed API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed by the router on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "seed"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts audited authentication events.
// Labels:
//   - event: the event type (e.g. "login_succeeded", "refresh_rejected")
//   - role: "student", "teacher", "admin", or "none" when unresolved
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication events recorded, by type and role.",
	},
	[]string{"event", "role"},
)

// SessionTransitionsTotal counts moves of the session state machine.
// Labels:
//   - from: previous state (e.g. "anonymous")
//   - to: new state (e.g. "authenticated")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"from", "to"},
)

// ── Audit pipeline metrics ────────────────────────────────────────────────────

// AuditErrorsTotal counts audit events that could not be persisted.
// Label:
//   - reason: "invalid_event", "insert_failed" or "dropped"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit events that failed or were dropped.",
	},
	[]string{"reason"},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditProcessingDuration measures how long a single audit event takes to persist.
// Label:
//   - event: the event type, or "error" on failure
var AuditProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_processing_duration_seconds",
		Help:      "Duration of audit event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"event"},
)
