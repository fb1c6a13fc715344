// Package metrics counts processed claims on a private Prometheus registry
// and exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/claimflow/internal/model"
)

const namespace = "claimflow"

// Recorder holds the claimflow collectors
type Recorder struct {
	registry *prometheus.Registry

	processed       *prometheus.CounterVec
	missingFields   *prometheus.CounterVec
	inconsistencies prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	duration        prometheus.Histogram
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_processed_total",
			Help:      "Claims processed, by recommended route.",
		}, []string{"route"}),
		missingFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_fields_total",
			Help:      "Mandatory fields found missing, by field.",
		}, []string{"field"}),
		inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inconsistencies_total",
			Help:      "Consistency findings reported across all claims.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Extraction cache lookups, by result (hit or miss).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time to extract, validate and route one document.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	r.registry.MustRegister(r.processed, r.missingFields, r.inconsistencies, r.cacheLookups, r.duration)

	// Pre-create route series so every queue shows up as 0 before its first claim
	for _, route := range model.Routes() {
		r.processed.WithLabelValues(route.String())
	}
	return r
}

// Observe records one processed claim
func (r *Recorder) Observe(res *model.ClaimResult, elapsed time.Duration) {
	if r == nil || res == nil {
		return
	}
	r.processed.WithLabelValues(res.RecommendedRoute.String()).Inc()
	for _, field := range res.MissingFields {
		r.missingFields.WithLabelValues(field).Inc()
	}
	r.inconsistencies.Add(float64(len(res.Inconsistencies)))
	r.duration.Observe(elapsed.Seconds())
}

// CacheLookup records an extraction cache hit or miss
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry for scraping or tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
