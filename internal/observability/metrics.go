package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the pipeline counters exposed on /metrics.
type Metrics struct {
	RunsTotal              *prometheus.CounterVec
	RowsTransferred        prometheus.Counter
	RowsEnriched           prometheus.Counter
	RecommendationFailures prometheus.Counter
	RunDuration            prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kama",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RowsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kama",
			Subsystem: "pipeline",
			Name:      "rows_transferred_total",
			Help:      "Rows copied from the realtime store into the server store.",
		}),
		RowsEnriched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kama",
			Subsystem: "pipeline",
			Name:      "rows_enriched_total",
			Help:      "Rows that received a spoilage prediction.",
		}),
		RecommendationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kama",
			Subsystem: "pipeline",
			Name:      "recommendation_failures_total",
			Help:      "Recommendation calls that failed and were skipped.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kama",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
