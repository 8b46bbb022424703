// Package telemetry exposes Prometheus metrics for the relevance engine.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relevance_engine"

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	MappingRuns         prometheus.Counter
	PairsScored         prometheus.Counter
	SectionsMapped      prometheus.Counter
	MappingDuration     prometheus.Histogram
	ValidationAttempts  prometheus.Counter
	ValidationApplied   prometheus.Counter
	ValidationFallbacks *prometheus.CounterVec
	ValidationDuration  prometheus.Histogram
	SourcesDropped      *prometheus.CounterVec
}

// New creates the engine metrics registered against reg. Pass nil to create
// unregistered metrics, which tests use to avoid collisions.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MappingRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mapping_runs_total",
			Help:      "Total source-to-section mapping runs.",
		}),
		PairsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_scored_total",
			Help:      "Total section-source pairs scored.",
		}),
		SectionsMapped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_mapped_total",
			Help:      "Total sections that received at least one reference.",
		}),
		MappingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mapping_duration_seconds",
			Help:      "Duration of the algorithmic mapping stage.",
			Buckets:   prometheus.DefBuckets,
		}),
		ValidationAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_attempts_total",
			Help:      "Total AI validation attempts.",
		}),
		ValidationApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_applied_total",
			Help:      "Total sections whose mapping was improved by AI validation.",
		}),
		ValidationFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_fallbacks_total",
			Help:      "AI validation failures that fell back to the algorithmic result.",
		}, []string{"reason"}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Duration of the AI validation stage.",
			Buckets:   prometheus.DefBuckets,
		}),
		SourcesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_dropped_total",
			Help:      "Sources excluded before scoring, by reason.",
		}, []string{"reason"}),
	}
}

// ObserveMapping records one algorithmic mapping pass.
func (m *Metrics) ObserveMapping(start time.Time, pairs, sectionsWithSources int) {
	if m == nil {
		return
	}
	m.MappingRuns.Inc()
	m.PairsScored.Add(float64(pairs))
	m.SectionsMapped.Add(float64(sectionsWithSources))
	m.MappingDuration.Observe(time.Since(start).Seconds())
}

// ObserveValidationFallback records an AI validation failure by reason.
func (m *Metrics) ObserveValidationFallback(reason string) {
	if m == nil {
		return
	}
	m.ValidationFallbacks.WithLabelValues(reason).Inc()
}
