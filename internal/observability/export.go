package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Export outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeInlined  = "inlined"
	OutcomeRejected = "rejected"
)

// ExportMetrics tracks weekly export runs and image inlining. A nil value is
// a valid no-op recorder.
type ExportMetrics struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	images   *prometheus.CounterVec
}

// NewExportMetrics registers the export collectors on reg.
func NewExportMetrics(reg prometheus.Registerer) *ExportMetrics {
	m := &ExportMetrics{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyflow_weekly_exports_total",
			Help: "Weekly area exports by format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dailyflow_weekly_export_duration_seconds",
			Help:    "Time spent producing a weekly area export.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"format"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyflow_export_images_total",
			Help: "Report images processed for exports by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.exports, m.duration, m.images)
	}
	return m
}

// ObserveExport records one export attempt.
func (m *ExportMetrics) ObserveExport(format, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// ObserveImage records the result of inlining one image.
func (m *ExportMetrics) ObserveImage(outcome string) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(outcome).Inc()
}
