package alerting

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	alertsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsub_alerts_total",
			Help: "Alert occurrences by pipeline outcome.",
		},
		[]string{"outcome"},
	)

	deliveriesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsub_deliveries_total",
			Help: "Delivery attempts by status.",
		},
		[]string{"status"},
	)

	deliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alertsub_delivery_duration_seconds",
			Help:    "Time spent inside the delivery sink per alert.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	queueDepthGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertsub_queue_depth",
			Help: "Alerts waiting in the dispatch queue.",
		},
	)

	cacheEntriesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertsub_dedup_cache_entries",
			Help: "Live dedup identities after the last purge.",
		},
	)

	cachePurgedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alertsub_dedup_cache_purged_total",
			Help: "Expired dedup identities removed by periodic purge.",
		},
	)
)

func init() {
	prometheus.MustRegister(alertsCounter)
	prometheus.MustRegister(deliveriesCounter)
	prometheus.MustRegister(deliveryDuration)
	prometheus.MustRegister(queueDepthGauge)
	prometheus.MustRegister(cacheEntriesGauge)
	prometheus.MustRegister(cachePurgedCounter)
}

func recordOutcome(o Outcome) {
	alertsCounter.WithLabelValues(o.String()).Inc()
}
