// Package metrics provides Prometheus metrics collection for shapegen.
package metrics

import (
	"strings"
	"time"

	"github.com/artpar/shapegen/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shapegen"

// Collector holds all Prometheus metrics for shapegen.
type Collector struct {
	// Generator metrics
	TargetsTotal        *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	PropertiesEmitted   *prometheus.CounterVec
	ConstructorOutcomes *prometheus.CounterVec
	BatchesTotal        prometheus.Counter
	BatchFailures       prometheus.Counter

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a collector registered with reg.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		TargetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "targets_total",
				Help:      "Total number of analyzed targets by result",
			},
			[]string{"result"},
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent analyzing a single target",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		PropertiesEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "properties_emitted_total",
				Help:      "Total number of members emitted per document section",
			},
			[]string{"section"},
		),
		ConstructorOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "constructor_outcomes_total",
				Help:      "Construction probe outcomes by status",
			},
			[]string{"status"},
		),
		BatchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of completed batches",
			},
		),
		BatchFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_target_failures_total",
				Help:      "Total number of targets that failed inside a batch",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveTarget records one analyzed target.
func (c *Collector) ObserveTarget(result string, d time.Duration) {
	c.TargetsTotal.WithLabelValues(result).Inc()
	c.AnalysisDuration.Observe(d.Seconds())
}

// ObserveSections adds emitted member counts per section.
func (c *Collector) ObserveSections(counts map[string]int) {
	for section, n := range counts {
		if n > 0 {
			c.PropertiesEmitted.WithLabelValues(section).Add(float64(n))
		}
	}
}

// ObserveConstructor records a construction probe outcome.
func (c *Collector) ObserveConstructor(status string) {
	c.ConstructorOutcomes.WithLabelValues(status).Inc()
}

// ObserveBatch records a finished batch.
func (c *Collector) ObserveBatch(targets, failures int) {
	c.BatchesTotal.Inc()
	c.BatchFailures.Add(float64(failures))
}

// ObserveReload records a config reload attempt.
func (c *Collector) ObserveReload(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// NormalizePath bounds label cardinality: query strings are dropped and long
// paths are truncated.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}

var _ ports.AnalysisRecorder = (*Collector)(nil)
