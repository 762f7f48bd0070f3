package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	linesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groundlink",
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Console lines decoded, by event kind.",
		},
		[]string{"kind"},
	)
	telemetryFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groundlink",
			Subsystem: "ingest",
			Name:      "telemetry_frames_total",
			Help:      "Telemetry frames ingested into the store.",
		},
	)
	commandRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groundlink",
			Subsystem: "reliable",
			Name:      "command_retries_total",
			Help:      "Device-reported reliable command retries.",
		},
	)
	commandFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groundlink",
			Subsystem: "reliable",
			Name:      "command_failures_total",
			Help:      "Reliable commands that exhausted retries.",
		},
	)
	sendsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "groundlink",
			Subsystem: "reliable",
			Name:      "sends_rejected_total",
			Help:      "Reliable sends rejected by the in-flight gate.",
		},
	)
)

// RegisterMetrics installs the collectors once per process.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			linesDecoded,
			telemetryFrames,
			commandRetries,
			commandFailures,
			sendsRejected,
		)
	})
}

func RecordLine(kind string) {
	RegisterMetrics()
	linesDecoded.WithLabelValues(kind).Inc()
}

func RecordTelemetryFrame() {
	RegisterMetrics()
	telemetryFrames.Inc()
}

func RecordCommandRetry() {
	RegisterMetrics()
	commandRetries.Inc()
}

func RecordCommandFailure() {
	RegisterMetrics()
	commandFailures.Inc()
}

func RecordSendRejected() {
	RegisterMetrics()
	sendsRejected.Inc()
}
