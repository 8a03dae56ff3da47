// Package metrics defines the Prometheus instrumentation for the transcription relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription relay
type Metrics struct {
	// Session metrics
	ActiveSessions   prometheus.Gauge
	SessionsOpened   prometheus.Counter
	SessionsClosed   prometheus.Counter
	SessionDuration  prometheus.Histogram
	SegmentsReceived prometheus.Counter
	SegmentsRejected prometheus.Counter
	BytesReceived    prometheus.Counter

	// Transcription pass metrics
	PassesFired              prometheus.Counter
	PassesSkippedEmpty       prometheus.Counter
	PassDuration             prometheus.Histogram
	ArtifactSize             prometheus.Histogram
	TranscriptionFailures    prometheus.Counter
	TranscriptsDelivered     prometheus.Counter
	TranscriptsUndeliverable prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the given
// registerer. Production wiring passes prometheus.DefaultRegisterer; tests
// pass a fresh registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Session metrics
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_active_sessions",
			Help: "Current number of connected transcription sessions",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_sessions_opened_total",
			Help: "Total number of sessions opened",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_sessions_closed_total",
			Help: "Total number of sessions closed",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_session_duration_seconds",
			Help:    "Duration of sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),
		SegmentsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_segments_received_total",
			Help: "Total number of audio segments received",
		}),
		SegmentsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_segments_rejected_total",
			Help: "Total number of audio segments rejected by buffer limits",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_bytes_received_total",
			Help: "Total audio bytes received",
		}),

		// Transcription pass metrics
		PassesFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_passes_fired_total",
			Help: "Total number of transcription passes attempted",
		}),
		PassesSkippedEmpty: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_passes_skipped_empty_total",
			Help: "Total number of passes skipped because no audio was buffered",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_pass_duration_seconds",
			Help:    "Duration of transcription passes",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		ArtifactSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_artifact_size_bytes",
			Help:    "Size of assembled audio artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~16MB
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcription_failures_total",
			Help: "Total number of failed transcription passes",
		}),
		TranscriptsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcripts_delivered_total",
			Help: "Total number of transcripts delivered to clients",
		}),
		TranscriptsUndeliverable: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcripts_undeliverable_total",
			Help: "Total number of transcripts discarded because the session vanished",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordSessionOpened records a new session and updates the active gauge
func (m *Metrics) RecordSessionOpened() {
	m.SessionsOpened.Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionClosed records a finished session with its duration
func (m *Metrics) RecordSessionClosed(durationSeconds float64) {
	m.SessionsClosed.Inc()
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordSegment records one accepted inbound segment
func (m *Metrics) RecordSegment(sizeBytes int) {
	m.SegmentsReceived.Inc()
	m.BytesReceived.Add(float64(sizeBytes))
}

// RecordSegmentRejected records a segment refused by buffer limits
func (m *Metrics) RecordSegmentRejected() {
	m.SegmentsRejected.Inc()
}

// RecordPass records one transcription pass attempt
func (m *Metrics) RecordPass(artifactBytes int, durationSeconds float64, failed bool) {
	m.PassesFired.Inc()
	m.ArtifactSize.Observe(float64(artifactBytes))
	m.PassDuration.Observe(durationSeconds)
	if failed {
		m.TranscriptionFailures.Inc()
	}
}

// RecordPassSkippedEmpty records a pass short-circuited on an empty buffer
func (m *Metrics) RecordPassSkippedEmpty() {
	m.PassesSkippedEmpty.Inc()
}

// RecordDelivery records the outcome of one transcript delivery attempt
func (m *Metrics) RecordDelivery(delivered bool) {
	if delivered {
		m.TranscriptsDelivered.Inc()
	} else {
		m.TranscriptsUndeliverable.Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
