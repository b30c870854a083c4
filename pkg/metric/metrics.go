// Package metric exposes Prometheus metrics for node activity.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukex/weatherflow/pkg/models"
)

const namespace = "weatherflow"

// Message results recorded on the messages counter.
const (
	ResultReceived    = "received"
	ResultSent        = "sent"
	ResultAcked       = "acked"
	ResultUnacked     = "unacked"
	ResultDecodeError = "decode_error"
)

// Metrics holds the engine collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	Messages       *prometheus.CounterVec
	Statuses       *prometheus.CounterVec
	HandleDuration *prometheus.HistogramVec
	NodesRunning   prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry together with Go runtime metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "node",
				Name:      "messages_total",
				Help:      "Messages seen per node, partitioned by result",
			},
			[]string{"node", "type", "result"},
		),

		Statuses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "node",
				Name:      "status_total",
				Help:      "Status reports per node and severity",
			},
			[]string{"node", "severity"},
		),

		HandleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "node",
				Name:      "handle_duration_seconds",
				Help:      "Time spent handling one input message",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"node", "type"},
		),

		NodesRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "nodes_running",
				Help:      "Node instances currently running",
			},
		),
	}

	m.registry.MustRegister(
		m.Messages,
		m.Statuses,
		m.HandleDuration,
		m.NodesRunning,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordMessage(nodeID, nodeType, result string) {
	m.Messages.WithLabelValues(nodeID, nodeType, result).Inc()
}

// RecordStatus counts a status report. Cleared statuses are counted as "cleared".
func (m *Metrics) RecordStatus(nodeID string, status models.Status) {
	severity := string(status.Severity)
	if status.IsCleared() {
		severity = "cleared"
	}

	m.Statuses.WithLabelValues(nodeID, severity).Inc()
}

func (m *Metrics) ObserveHandle(nodeID, nodeType string, elapsed time.Duration) {
	m.HandleDuration.WithLabelValues(nodeID, nodeType).Observe(elapsed.Seconds())
}
