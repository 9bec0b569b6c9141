package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Billing job counters. Incremented by the reconciliation service and the
// sweeps regardless of whether the run was HTTP- or ticker-triggered.
var (
	ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "reconcile_runs_total",
		Help:      "Completed reconciliation runs (dry runs excluded).",
	})
	ReconcileTenantsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "reconcile_tenants_updated_total",
		Help:      "Tenants whose subscription row was rewritten by reconciliation.",
	})
	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "subscriptions_expired_total",
		Help:      "Subscriptions transitioned to expired by the expiry sweep.",
	})
	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "reminders_sent_total",
		Help:      "Expiry reminder emails successfully dispatched.",
	})
)
