// Package metrics defines Prometheus metrics for cardwatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cardwatch"

// Cycle metrics.
var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of monitor cycles started.",
	})

	CycleErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycle_errors_total",
		Help:      "Total number of monitor cycles that ended in an error.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of monitor cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Catalog fetch metrics.
var (
	FetchPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_pages_total",
		Help:      "Total number of catalog pages fetched.",
	})

	ProductsFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "products_fetched",
		Help:      "Number of products returned by the most recent fetch.",
	})
)

// Change detection metrics.
var (
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total number of change events detected, by category.",
	}, []string{"category"})

	SnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_size",
		Help:      "Number of products in the most recently persisted snapshot.",
	})
)

// Notification metrics.
var (
	MessagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of alert messages delivered.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})
)
