package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"propcost/internal/models"
)

const namespace = "propcost_security"

// Metrics holds the Prometheus instruments of the threat engine. A nil
// *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	candidates  *prometheus.CounterVec
	synthesized *prometheus.CounterVec
	persistErrs prometheus.Counter
	rateLimited prometheus.Counter
}

// New registers the instruments on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_runs_total",
			Help:      "Dashboard computations by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_duration_seconds",
			Help:      "Time spent computing a dashboard",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"timeframe"}),
		candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Threat candidates surviving deduplication by type",
		}, []string{"type"}),
		synthesized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesized_alerts_total",
			Help:      "Alerts synthesized for new candidates by level",
		}, []string{"level"}),
		persistErrs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Failed writes of candidates or synthesized alerts",
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Security API requests rejected by the rate limiter",
		}),
	}
}

func (m *Metrics) ObserveRun(tf models.Timeframe, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(string(tf)).Observe(d.Seconds())
}

func (m *Metrics) ObserveCandidates(candidates []models.ThreatRecord) {
	if m == nil {
		return
	}
	for _, c := range candidates {
		m.candidates.WithLabelValues(string(c.Type)).Inc()
	}
}

func (m *Metrics) ObserveSynthesized(alerts []models.AlertRecord) {
	if m == nil {
		return
	}
	for _, a := range alerts {
		m.synthesized.WithLabelValues(string(a.AlertLevel)).Inc()
	}
}

func (m *Metrics) IncPersistErrors() {
	if m == nil {
		return
	}
	m.persistErrs.Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
