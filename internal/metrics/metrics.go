package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mikey/phishing-detector/internal/core"
)

// Metrics provides observability for URL assessments.
type Metrics struct {
	// Detector latencies by kind
	DetectorLatency *prometheus.HistogramVec

	// Detector fallbacks by kind and failure category
	DetectorFailures *prometheus.CounterVec

	// Verdicts by risk level
	Verdicts *prometheus.CounterVec

	// Verdict cache lookups by result
	CacheLookups *prometheus.CounterVec
}

// New creates a new Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DetectorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "phishing_detector_duration_seconds",
			Help:    "Duration of detector runs by detector kind",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"detector"}),

		DetectorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishing_detector_fallbacks_total",
			Help: "Detector runs that fell back to the conservative result",
		}, []string{"detector", "category"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishing_verdicts_total",
			Help: "Completed assessments by risk level",
		}, []string{"level"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phishing_verdict_cache_lookups_total",
			Help: "Verdict cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveDetector records the duration and, for fallbacks, the failure category of a detector run.
func (m *Metrics) ObserveDetector(kind core.DetectorKind, elapsed time.Duration, result core.DetectorResult) {
	if m == nil {
		return
	}
	m.DetectorLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	if result != nil && result.Failed() {
		category, _ := result.Failure()
		m.DetectorFailures.WithLabelValues(string(kind), string(category)).Inc()
	}
}

// ObserveVerdict records a completed assessment.
func (m *Metrics) ObserveVerdict(level core.RiskLevel) {
	if m != nil {
		m.Verdicts.WithLabelValues(string(level)).Inc()
	}
}

// ObserveCache records a verdict cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
