// Package metrics exposes Prometheus collectors for the reminder engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_created_total",
		Help: "Total number of pending notifications created.",
	})

	NotificationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_skipped_total",
		Help: "Total number of reminder intervals whose fire time had already passed.",
	})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_notifications_delivered_total",
		Help: "Total number of notifications moved to a terminal status.",
	}, []string{"status"})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_sweep_runs_total",
		Help: "Total number of sweep ticks by result.",
	}, []string{"result"})

	SendLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reminder_send_latency_seconds",
		Help:    "Latency of a single email delivery attempt.",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveDelivery records a notification reaching status.
func ObserveDelivery(status string) {
	NotificationsDelivered.WithLabelValues(status).Inc()
}

// StartSendTimer starts timing an email delivery attempt.
func StartSendTimer() *prometheus.Timer {
	return prometheus.NewTimer(SendLatency)
}
