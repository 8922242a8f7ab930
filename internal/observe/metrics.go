// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics and the SDK provider setup that exposes them
// through a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution. All recording helpers are nil-receiver safe so
// components can run without metrics wired.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/openmediator/commonground"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// BackendDuration tracks model backend round-trip latency.
	BackendDuration metric.Float64Histogram

	// STTDuration tracks per-segment transcription latency.
	STTDuration metric.Float64Histogram

	// DiarizeDuration tracks diarization latency per recording.
	DiarizeDuration metric.Float64Histogram

	// --- Counters ---

	// BackendRequests counts model backend calls. Use with attribute:
	//   attribute.String("status", ...)
	BackendRequests metric.Int64Counter

	// VoiceSegments counts voice segments that produced a transcript, by
	// attribute.String("speaker", ...).
	VoiceSegments metric.Int64Counter

	// DroppedSegments counts diarized turns dropped for empty transcription.
	DroppedSegments metric.Int64Counter

	// --- Gauges ---

	// ActiveRecordings tracks in-flight microphone recordings (0 or 1).
	ActiveRecordings metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// network round trips to local and hosted inference services.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.BackendDuration, err = m.Float64Histogram("commonground.backend.duration",
		metric.WithDescription("Latency of model backend round trips."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.STTDuration, err = m.Float64Histogram("commonground.stt.duration",
		metric.WithDescription("Latency of per-segment transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DiarizeDuration, err = m.Float64Histogram("commonground.diarize.duration",
		metric.WithDescription("Latency of diarization per recording."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.BackendRequests, err = m.Int64Counter("commonground.backend.requests",
		metric.WithDescription("Total model backend requests by status."),
	); err != nil {
		return nil, err
	}
	if met.VoiceSegments, err = m.Int64Counter("commonground.voice.segments",
		metric.WithDescription("Voice segments that produced a transcript, by speaker."),
	); err != nil {
		return nil, err
	}
	if met.DroppedSegments, err = m.Int64Counter("commonground.voice.dropped_segments",
		metric.WithDescription("Diarized turns dropped because transcription was empty."),
	); err != nil {
		return nil, err
	}

	if met.ActiveRecordings, err = m.Int64UpDownCounter("commonground.active_recordings",
		metric.WithDescription("Number of in-flight microphone recordings."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordBackendRequest records one model backend round trip: a counter
// increment tagged with the outcome plus the latency histogram sample.
func (m *Metrics) RecordBackendRequest(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BackendRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	m.BackendDuration.Record(ctx, d.Seconds())
}

// RecordSTT records one per-segment transcription latency sample.
func (m *Metrics) RecordSTT(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.STTDuration.Record(ctx, d.Seconds())
}

// RecordDiarize records one diarization latency sample.
func (m *Metrics) RecordDiarize(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.DiarizeDuration.Record(ctx, d.Seconds())
}

// RecordVoiceSegment counts a voice segment that produced a transcript for
// the given speaker label.
func (m *Metrics) RecordVoiceSegment(ctx context.Context, speaker string) {
	if m == nil {
		return
	}
	m.VoiceSegments.Add(ctx, 1,
		metric.WithAttributes(attribute.String("speaker", speaker)),
	)
}

// RecordDroppedSegment counts a diarized turn dropped for empty
// transcription.
func (m *Metrics) RecordDroppedSegment(ctx context.Context) {
	if m == nil {
		return
	}
	m.DroppedSegments.Add(ctx, 1)
}

// RecordingStarted marks a recording as in flight.
func (m *Metrics) RecordingStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveRecordings.Add(ctx, 1)
}

// RecordingStopped marks a recording as finished.
func (m *Metrics) RecordingStopped(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveRecordings.Add(ctx, -1)
}
