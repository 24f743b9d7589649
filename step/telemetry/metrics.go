package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects Prometheus-compatible metrics for an execution
// engine. All metrics are namespaced "corestep".
type PrometheusMetrics struct {
	stepLatency    *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	checkpointFlush *prometheus.CounterVec
	bufferSize     prometheus.Gauge
}

// NewPrometheusMetrics registers every metric against registry. A nil
// registry falls back to prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corestep",
			Name:      "step_latency_ms",
			Help:      "Step body execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"op", "status"}),

		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corestep",
			Name:      "step_retries_total",
			Help:      "Cumulative step retry attempts",
		}, []string{"op", "reason"}),

		checkpointFlush: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corestep",
			Name:      "checkpoint_flush_total",
			Help:      "Checkpoint buffer flush attempts",
		}, []string{"status"}),

		bufferSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "corestep",
			Name:      "checkpoint_buffer_size",
			Help:      "Number of ops currently buffered awaiting flush",
		}),
	}
}

// RecordStepLatency observes one step's execution duration.
func (pm *PrometheusMetrics) RecordStepLatency(op string, latency time.Duration, status string) {
	pm.stepLatency.WithLabelValues(op, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries records one retry attempt.
func (pm *PrometheusMetrics) IncrementRetries(op, reason string) {
	pm.retries.WithLabelValues(op, reason).Inc()
}

// RecordCheckpointFlush records one flush attempt's outcome.
func (pm *PrometheusMetrics) RecordCheckpointFlush(status string) {
	pm.checkpointFlush.WithLabelValues(status).Inc()
}

// SetBufferSize reports the current buffer depth.
func (pm *PrometheusMetrics) SetBufferSize(n int) {
	pm.bufferSize.Set(float64(n))
}
