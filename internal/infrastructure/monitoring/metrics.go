// Package monitoring exposes Prometheus metrics for the orchestration
// subsystem.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the orchestrator's Prometheus collectors.
type Metrics struct {
	AttemptsTotal    *prometheus.CounterVec
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	QualityScore     prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
	BudgetDenials    prometheus.Counter
	RateDenials      prometheus.Counter
	CostCentsTotal   prometheus.Counter
	SavedCentsTotal  prometheus.Counter
	BatchFlushes     *prometheus.CounterVec
	BatchSizeObserve prometheus.Histogram
}

// New registers all collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealprep_orchestration_attempts_total",
			Help: "Strategy attempts by fallback level and outcome.",
		}, []string{"level", "outcome"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealprep_orchestration_runs_total",
			Help: "Completed orchestration runs by terminal level.",
		}, []string{"level"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mealprep_orchestration_duration_seconds",
			Help:    "End-to-end orchestration latency.",
			Buckets: prometheus.DefBuckets,
		}),
		QualityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mealprep_suggestion_quality_score",
			Help:    "Overall quality score of accepted results.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealprep_response_cache_lookups_total",
			Help: "Response cache lookups by tier outcome.",
		}, []string{"tier"}),
		BudgetDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealprep_budget_denials_total",
			Help: "Requests denied by the budget hard limit.",
		}),
		RateDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealprep_rate_denials_total",
			Help: "Requests denied by a rate ceiling.",
		}),
		CostCentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealprep_provider_cost_cents_total",
			Help: "Accumulated provider spend in cents.",
		}),
		SavedCentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mealprep_cache_saved_cents_total",
			Help: "Estimated provider spend avoided by cache serves.",
		}),
		BatchFlushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mealprep_batch_flushes_total",
			Help: "Request batch flushes by trigger.",
		}, []string{"trigger"}),
		BatchSizeObserve: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mealprep_batch_size",
			Help:    "Number of requests coalesced per batch flush.",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry. Test hook.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
