// Package metrics exposes resolver counters. Instances are constructed
// against an explicit registerer so tests get isolated state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/polycheck/internal/model"
)

type Metrics struct {
	Resolutions        *prometheus.CounterVec
	LiveFetches        *prometheus.CounterVec
	LiveFetchDuration  prometheus.Histogram
	RegistryPromotions prometheus.Counter
	MissesRecorded     *prometheus.CounterVec
	LimiterRejections  *prometheus.CounterVec
	Retries            *prometheus.CounterVec
}

// New registers the resolver metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polycheck_resolutions_total",
			Help: "Resolved names by the layer that produced the result",
		}, []string{"source"}),
		LiveFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polycheck_live_fetches_total",
			Help: "Knowledge-source lookups by outcome",
		}, []string{"outcome"}),
		LiveFetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "polycheck_live_fetch_duration_seconds",
			Help:    "Wall time of knowledge-source lookups including queueing and retries",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		RegistryPromotions: f.NewCounter(prometheus.CounterOpts{
			Name: "polycheck_registry_promotions_total",
			Help: "Results written to the persistent registry",
		}),
		MissesRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polycheck_misses_recorded_total",
			Help: "Miss registry writes by reason",
		}, []string{"reason"}),
		LimiterRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polycheck_ratelimit_rejections_total",
			Help: "Tasks rejected by a full rate limiter queue",
		}, []string{"limiter"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polycheck_retries_total",
			Help: "Retry attempts by service",
		}, []string{"service"}),
	}
}

// Nop returns metrics registered against a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) ObserveResolution(src model.ResultSource) {
	m.Resolutions.WithLabelValues(string(src)).Inc()
}

func (m *Metrics) ObserveLiveFetch(outcome string, d time.Duration) {
	m.LiveFetches.WithLabelValues(outcome).Inc()
	m.LiveFetchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncrementPromotions() {
	m.RegistryPromotions.Inc()
}

func (m *Metrics) IncrementMisses(reason model.MissReason) {
	m.MissesRecorded.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) IncrementRejections(limiter string) {
	m.LimiterRejections.WithLabelValues(limiter).Inc()
}

func (m *Metrics) IncrementRetries(service string) {
	m.Retries.WithLabelValues(service).Inc()
}
