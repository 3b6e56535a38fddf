package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects review pipeline counters. A nil *Metrics is valid and
// records nothing, which keeps test wiring trivial.
type Metrics struct {
	ReviewsTotal    *prometheus.CounterVec
	ReviewDuration  *prometheus.HistogramVec
	ReviewsInFlight prometheus.Gauge

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	PreflightFailuresTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ReviewsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "architect_reviews_total",
				Help: "Total number of reviews processed",
			},
			[]string{"provider", "kind", "status"},
		),
		ReviewDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "architect_review_duration_seconds",
				Help:    "End-to-end review duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		ReviewsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "architect_reviews_in_flight",
				Help: "Number of reviews currently being processed",
			},
		),

		LLMRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "architect_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "architect_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),

		PreflightFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "architect_preflight_failures_total",
				Help: "Total number of failed pre-flight checks",
			},
			[]string{"provider"},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordReview(provider, kind, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(provider, kind, status).Inc()
	m.ReviewDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordPreflightFailure(provider string) {
	if m == nil {
		return
	}
	m.PreflightFailuresTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncReviewsInFlight() {
	if m == nil {
		return
	}
	m.ReviewsInFlight.Inc()
}

func (m *Metrics) DecReviewsInFlight() {
	if m == nil {
		return
	}
	m.ReviewsInFlight.Dec()
}
