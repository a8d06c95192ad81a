// ABOUTME: Prometheus metrics for message ingestion, deduplication, and sweep activity.
// ABOUTME: Holds package-level counters plus a collector exposing live store gauges.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brianluft/threadloaf-sub002/internal/store"
)

var (
	// Ingestion metrics
	MessagesObserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_messages_observed_total",
			Help: "Total messages accepted into the store",
		},
	)

	DuplicateDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_duplicate_deliveries_total",
			Help: "Total deliveries dropped by the dedupe cache",
		},
	)

	ThreadsObserved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_threads_observed_total",
			Help: "Total thread metadata records observed",
		},
	)

	// Sweep metrics
	SweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_sweeps_total",
			Help: "Total expiry sweeps run",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "threadloaf_sweep_duration_seconds",
			Help:    "Expiry sweep duration",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	MessagesExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_messages_expired_total",
			Help: "Total messages removed by TTL expiry",
		},
	)

	ChannelsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_channels_pruned_total",
			Help: "Total channels fully drained by a sweep",
		},
	)

	ThreadsReclaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "threadloaf_threads_reclaimed_total",
			Help: "Total threads reclaimed after their messages expired",
		},
	)
)

// MustRegister registers every package metric on the default registry.
// Call once from main.
func MustRegister() {
	prometheus.MustRegister(
		MessagesObserved,
		DuplicateDeliveries,
		ThreadsObserved,
		SweepsTotal,
		SweepDuration,
		MessagesExpired,
		ChannelsPruned,
		ThreadsReclaimed,
	)
}

// StoreCollector exposes live store occupancy as gauges, reading Stats once
// per scrape instead of keeping shadow counters in sync.
type StoreCollector struct {
	store            *store.Store
	channels         *prometheus.Desc
	messages         *prometheus.Desc
	threads          *prometheus.Desc
	expiredMessages  *prometheus.Desc
	reclaimedThreads *prometheus.Desc
}

// NewStoreCollector creates a collector over the given store. Register it
// alongside the package metrics.
func NewStoreCollector(s *store.Store) *StoreCollector {
	return &StoreCollector{
		store: s,
		channels: prometheus.NewDesc(
			"threadloaf_store_channels",
			"Channels currently holding messages", nil, nil),
		messages: prometheus.NewDesc(
			"threadloaf_store_messages",
			"Messages currently held across all channels", nil, nil),
		threads: prometheus.NewDesc(
			"threadloaf_store_threads",
			"Thread metadata records currently held", nil, nil),
		expiredMessages: prometheus.NewDesc(
			"threadloaf_store_expired_messages_total",
			"Messages the store has expired since start", nil, nil),
		reclaimedThreads: prometheus.NewDesc(
			"threadloaf_store_reclaimed_threads_total",
			"Threads the store has reclaimed since start", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.channels
	ch <- c.messages
	ch <- c.threads
	ch <- c.expiredMessages
	ch <- c.reclaimedThreads
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.store.Stats()
	ch <- prometheus.MustNewConstMetric(c.channels, prometheus.GaugeValue, float64(st.Channels))
	ch <- prometheus.MustNewConstMetric(c.messages, prometheus.GaugeValue, float64(st.Messages))
	ch <- prometheus.MustNewConstMetric(c.threads, prometheus.GaugeValue, float64(st.Threads))
	ch <- prometheus.MustNewConstMetric(c.expiredMessages, prometheus.CounterValue, float64(st.ExpiredMessages))
	ch <- prometheus.MustNewConstMetric(c.reclaimedThreads, prometheus.CounterValue, float64(st.ReclaimedThreads))
}
