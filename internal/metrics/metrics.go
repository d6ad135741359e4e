package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hamed0406/healthmonitor/internal/domain"
)

type Metrics struct {
	// Probe latency per category and resulting status.
	ProbeLatency *prometheus.HistogramVec

	// Latest status per category: 0 ok, 1 degraded, 2 down, -1 absent.
	CategoryStatus *prometheus.GaugeVec

	// Latest aggregated status, same encoding.
	OverallStatus prometheus.Gauge

	// Capture cycles by result: persisted, failed.
	CaptureCycles *prometheus.CounterVec

	RetentionDeleted prometheus.Counter
	RetentionErrors  prometheus.Counter
}

// NewMetrics registers collectors on reg. A nil reg gets a private registry so
// callers (and tests) never have to special-case metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		ProbeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthmonitor_probe_latency_seconds",
			Help:    "Latency of dependency probes.",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"category", "status"}),

		CategoryStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthmonitor_category_status",
			Help: "Latest probe status per category (0=ok, 1=degraded, 2=down, -1=absent).",
		}, []string{"category"}),

		OverallStatus: f.NewGauge(prometheus.GaugeOpts{
			Name: "healthmonitor_overall_status",
			Help: "Latest aggregated status (0=ok, 1=degraded, 2=down).",
		}),

		CaptureCycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthmonitor_capture_cycles_total",
			Help: "Capture cycles by result.",
		}, []string{"result"}),

		RetentionDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "healthmonitor_retention_deleted_total",
			Help: "Snapshots removed by the retention sweep.",
		}),

		RetentionErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "healthmonitor_retention_errors_total",
			Help: "Failed retention sweeps.",
		}),
	}
}

// ObserveSnapshot records every probe result and the overall status of s.
func (m *Metrics) ObserveSnapshot(s domain.Snapshot) {
	if m == nil {
		return
	}
	for _, pr := range s.Services {
		m.ObserveProbe(pr)
	}
	m.OverallStatus.Set(StatusValue(s.OverallStatus))
}

func (m *Metrics) ObserveProbe(pr domain.ProbeResult) {
	if m == nil {
		return
	}
	m.CategoryStatus.WithLabelValues(string(pr.Category)).Set(StatusValue(pr.Status))
	if pr.Status != domain.StatusAbsent {
		m.ProbeLatency.WithLabelValues(string(pr.Category), string(pr.Status)).
			Observe(float64(pr.LatencyMS) / 1000)
	}
}

func StatusValue(s domain.Status) float64 {
	switch s {
	case domain.StatusOK:
		return 0
	case domain.StatusDegraded:
		return 1
	case domain.StatusDown:
		return 2
	}
	return -1
}
