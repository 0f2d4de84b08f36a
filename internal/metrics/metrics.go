// Package metrics exposes the Prometheus collectors shared across
// pipeline stages: queue depth/utilization, record throughput, and
// batch processing latency, one metric set per stage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth reports the current number of records sitting in a
	// named queue (transformer input queue i or loader output queue j).
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corpusetl_queue_depth",
			Help: "Current number of records queued at a pipeline stage boundary",
		},
		[]string{"stage", "queue"},
	)

	// QueueUtilization reports QueueDepth / capacity, 0.0-1.0.
	QueueUtilization = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corpusetl_queue_utilization",
			Help: "Current utilization of a pipeline stage queue (0.0 to 1.0)",
		},
		[]string{"stage", "queue"},
	)

	// RecordsProcessedTotal counts records consumed by a stage.
	RecordsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpusetl_records_processed_total",
			Help: "Total records processed by a pipeline stage",
		},
		[]string{"stage"},
	)

	// RecordsSentTotal counts rows handed to a loader's sink.
	RecordsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpusetl_records_sent_total",
			Help: "Total rows sent to a loader's sink",
		},
		[]string{"loader"},
	)

	// RecordsDuplicatedTotal counts records suppressed by a UniqueFilter.
	RecordsDuplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpusetl_records_duplicated_total",
			Help: "Total records suppressed as duplicates by a UniqueFilter",
		},
		[]string{"bag_key"},
	)

	// RecordsErroredTotal counts per-record errors by stage and class.
	RecordsErroredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpusetl_records_errored_total",
			Help: "Total per-record errors observed at a pipeline stage",
		},
		[]string{"stage", "code"},
	)

	// BatchDuration measures the wall time of one LoadWithAck call on
	// a loader, which flushes to the sink only when the loader's buffer
	// fills or on last call.
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corpusetl_batch_duration_seconds",
			Help:    "Time spent in one LoadWithAck call on a loader",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"loader"},
	)
)

// SetQueueSize updates both the depth gauge and, when capacity > 0, the
// derived utilization gauge for stage/queue.
func SetQueueSize(stage, queue string, depth, capacity int) {
	QueueDepth.WithLabelValues(stage, queue).Set(float64(depth))
	if capacity > 0 {
		QueueUtilization.WithLabelValues(stage, queue).Set(float64(depth) / float64(capacity))
	}
}

// RecordProcessed increments the processed counter for stage.
func RecordProcessed(stage string) {
	RecordsProcessedTotal.WithLabelValues(stage).Inc()
}

// RecordSent increments the sent counter for a loader by n rows.
func RecordSent(loader string, n int) {
	RecordsSentTotal.WithLabelValues(loader).Add(float64(n))
}

// RecordDuplicated increments the duplicate counter for a bag key.
func RecordDuplicated(bagKey string) {
	RecordsDuplicatedTotal.WithLabelValues(bagKey).Inc()
}

// RecordError increments the per-stage error counter for an etlerr code.
func RecordError(stage, code string) {
	RecordsErroredTotal.WithLabelValues(stage, code).Inc()
}

// ObserveBatchDuration records how long one LoadWithAck call on a
// loader took.
func ObserveBatchDuration(loader string, d time.Duration) {
	BatchDuration.WithLabelValues(loader).Observe(d.Seconds())
}
