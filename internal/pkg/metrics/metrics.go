// Package metrics defines and registers the custom Prometheus metrics of the
// hospital API. It is the single source of truth for metric names, labels and
// help strings. Request-level metrics (latency, status codes) come from the
// echoprometheus middleware; the ones here describe domain outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hms"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "invalid_credentials"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AccessDeniedTotal counts requests rejected by the access policy.
// Label:
//   - reason: "unauthenticated", "forbidden", "csrf" or "no_policy"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests denied by the access policy.",
	},
	[]string{"reason"},
)

// ── Appointment metrics ───────────────────────────────────────────────────────

// BookingsTotal counts booking attempts that reached the store.
// Label:
//   - result: "booked" or "conflict"
var BookingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of appointment bookings, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal tracks notifications through the dispatcher.
// Label:
//   - state: "queued", "dropped", "delivered" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications by dispatcher state.",
	},
	[]string{"state"},
)
