package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	deliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_deliveries_total",
		Help: "Total number of deliveries that reached a final outcome",
	}, []string{"outcome"})
	eventsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_events_dropped_total",
		Help: "Total number of triggered events rejected before any delivery record was created",
	}, []string{"reason"})
	providerCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_provider_calls_total",
		Help: "Total number of individual provider send calls",
	}, []string{"provider", "result"})
	providerCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_provider_call_duration_seconds",
		Help:    "Latency of individual provider send calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	logWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_delivery_log_write_failures_total",
		Help: "Total number of failed writes to the delivery log store",
	})
	sweepResumedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_retry_sweep_resumed_total",
		Help: "Total number of delivery records resumed by the retry sweep",
	})
	sweepSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_retry_sweep_skipped_total",
		Help: "Total number of delivery records skipped by the retry sweep because another writer held them",
	})
	retentionPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_retention_purged_total",
		Help: "Total number of delivery records removed by the retention purge",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		deliveriesTotal,
		eventsDroppedTotal,
		providerCallsTotal,
		providerCallDuration,
		logWriteFailuresTotal,
		sweepResumedTotal,
		sweepSkippedTotal,
		retentionPurgedTotal,
	)
}

// IncDelivery counts a delivery that reached the given final outcome.
func IncDelivery(outcome string) { deliveriesTotal.WithLabelValues(outcome).Inc() }

// IncEventDropped counts an event rejected for reason (not_configured, no_template).
func IncEventDropped(reason string) { eventsDroppedTotal.WithLabelValues(reason).Inc() }

// ObserveProviderCall records one provider call and its latency.
func ObserveProviderCall(provider, result string, took time.Duration) {
	providerCallsTotal.WithLabelValues(provider, result).Inc()
	providerCallDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// IncLogWriteFailure counts a failed delivery log write.
func IncLogWriteFailure() { logWriteFailuresTotal.Inc() }

func IncSweepResumed() { sweepResumedTotal.Inc() }

func IncSweepSkipped() { sweepSkippedTotal.Inc() }

// AddPurged counts records removed by retention.
func AddPurged(n int64) { retentionPurgedTotal.Add(float64(n)) }
