// Package metric provides Prometheus-based metrics for the client
// library: frame throughput, request outcomes, and pipeline depth.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every metric this library records.
type Metrics struct {
	FramesTotal      *prometheus.CounterVec
	FrameErrorsTotal prometheus.Counter
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	PipelineDepth    prometheus.Gauge
	ReconnectsTotal  prometheus.Counter
	ConnectionStatus prometheus.Gauge
}

// NewMetrics builds a fresh, unregistered Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		FramesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ember",
				Subsystem: "frames",
				Name:      "total",
				Help:      "Total number of S101 frames processed, by direction.",
			},
			[]string{"direction"},
		),
		FrameErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ember",
				Subsystem: "frames",
				Name:      "errors_total",
				Help:      "Total number of inbound frames rejected by framing or CRC checks.",
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ember",
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of client requests, by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ember",
				Subsystem: "requests",
				Name:      "duration_seconds",
				Help:      "Time from request send to matching response, by operation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		PipelineDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ember",
				Subsystem: "pipeline",
				Name:      "depth",
				Help:      "Number of requests currently in flight or queued.",
			},
		),
		ReconnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ember",
				Subsystem: "transport",
				Name:      "reconnects_total",
				Help:      "Total number of transport reconnection attempts.",
			},
		),
		ConnectionStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ember",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Connection status (0=disconnected, 1=connected).",
			},
		),
	}
}

// RecordFrame increments the frame counter for direction ("in" or "out").
func (m *Metrics) RecordFrame(direction string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(direction).Inc()
}

// RecordFrameError increments the frame error counter.
func (m *Metrics) RecordFrameError() {
	if m == nil {
		return
	}
	m.FrameErrorsTotal.Inc()
}

// RecordRequest increments the request counter and observes its duration.
func (m *Metrics) RecordRequest(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetPipelineDepth sets the current in-flight/queued request count.
func (m *Metrics) SetPipelineDepth(n int) {
	if m == nil {
		return
	}
	m.PipelineDepth.Set(float64(n))
}

// RecordReconnect increments the reconnect counter.
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.ReconnectsTotal.Inc()
}

// SetConnected updates the connection status gauge.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	m.ConnectionStatus.Set(value)
}
