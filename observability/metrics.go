package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds the process-wide Prometheus metrics for the pipeline.
type Collector struct {
	registry *prometheus.Registry

	VectorizeRequests   *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	ConceptsExtracted   prometheus.Histogram
	GroupsProduced      prometheus.Histogram
	MapReduceInvocations prometheus.Counter
}

// NewCollector returns the process-wide metrics collector, creating it on
// first call (singleton, to avoid duplicate registration in tests).
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	collector := &Collector{
		registry: registry,
		VectorizeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vectorize_requests_total",
				Help:      "Total number of vectorize requests by outcome.",
			},
			[]string{"outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Duration of each pipeline stage.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		ConceptsExtracted: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "concepts_extracted",
				Help:      "Number of concepts extracted per request.",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		GroupsProduced: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "groups_produced",
				Help:      "Number of concept groups produced per request.",
				Buckets:   []float64{1, 2, 5, 10, 20, 50},
			},
		),
		MapReduceInvocations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mapreduce_invocations_total",
				Help:      "Number of times concept extraction ran in MapReduce mode.",
			},
		),
	}

	registry.MustRegister(
		collector.VectorizeRequests,
		collector.StageDuration,
		collector.ConceptsExtracted,
		collector.GroupsProduced,
		collector.MapReduceInvocations,
	)

	globalCollector = collector
	return collector
}

// Registry exposes the Prometheus registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
