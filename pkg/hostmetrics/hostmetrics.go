// Package hostmetrics exposes Prometheus instrumentation for the plugin
// host, grounded on the teacher-adjacent pack's
// internal/httpapi/metrics.go: package-level vectors registered once in
// init, one label set per dimension that actually varies, incremented
// from call sites rather than threaded through every function signature.
package hostmetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	commandQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vsthost",
			Subsystem: "command",
			Name:      "queue_depth",
			Help:      "Commands currently queued for the worker thread, by instance",
		},
		[]string{"instance"},
	)

	commandsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsthost",
			Subsystem: "command",
			Name:      "processed_total",
			Help:      "Commands accepted onto the worker queue, by instance and command name",
		},
		[]string{"instance", "command"},
	)

	commandsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsthost",
			Subsystem: "command",
			Name:      "dropped_total",
			Help:      "Commands dropped because the queue was full, by instance and command name",
		},
		[]string{"instance", "command"},
	)

	inboxDrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsthost",
			Subsystem: "inbox",
			Name:      "drains_total",
			Help:      "Successful (try-lock acquired) Event Inbox drains, by instance",
		},
		[]string{"instance"},
	)

	inboxContendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsthost",
			Subsystem: "inbox",
			Name:      "contended_total",
			Help:      "Event Inbox drain attempts that lost the try-lock, by instance",
		},
		[]string{"instance"},
	)

	droppedOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vsthost",
			Subsystem: "control",
			Name:      "dropped_ops_total",
			Help:      "Control-surface operations dropped, by instance and error kind",
		},
		[]string{"instance", "kind"},
	)

	nextDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vsthost",
			Subsystem: "audio",
			Name:      "next_duration_seconds",
			Help:      "Wall-clock duration of one next() call, by instance",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
		[]string{"instance"},
	)
)

func init() {
	prometheus.MustRegister(
		commandQueueDepth,
		commandsProcessedTotal,
		commandsDroppedTotal,
		inboxDrainsTotal,
		inboxContendedTotal,
		droppedOpsTotal,
		nextDurationSeconds,
	)
}

// SetCommandQueueDepth records the current number of in-flight Commands
// for an instance.
func SetCommandQueueDepth(instance string, depth int) {
	commandQueueDepth.WithLabelValues(instance).Set(float64(depth))
}

// CommandProcessed increments the processed-Command counter.
func CommandProcessed(instance, command string) {
	commandsProcessedTotal.WithLabelValues(instance, command).Inc()
}

// CommandDropped increments the dropped-Command counter (submitted to a full queue).
func CommandDropped(instance, command string) {
	commandsDroppedTotal.WithLabelValues(instance, command).Inc()
}

// InboxDrained increments the successful Event Inbox drain counter.
func InboxDrained(instance string) {
	inboxDrainsTotal.WithLabelValues(instance).Inc()
}

// InboxContended increments the Event Inbox try-lock-failed counter.
func InboxContended(instance string) {
	inboxContendedTotal.WithLabelValues(instance).Inc()
}

// OperationDropped increments the dropped-control-surface-operation
// counter for the given hosterr.Kind name.
func OperationDropped(instance, kind string) {
	droppedOpsTotal.WithLabelValues(instance, kind).Inc()
}

// ObserveNextDuration records one next() call's wall-clock duration in
// seconds.
func ObserveNextDuration(instance string, seconds float64) {
	nextDurationSeconds.WithLabelValues(instance).Observe(seconds)
}
