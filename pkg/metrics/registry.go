// Package metrics exposes Prometheus metrics for solver runs, the result
// cache and the HTTP API.
//
// A [Registry] implements the observability hook interfaces, so wiring it up
// is a matter of registering it at startup:
//
//	reg := metrics.NewRegistry()
//	observability.SetOptimizerHooks(reg)
//	observability.SetCacheHooks(reg)
//	observability.SetHTTPHooks(reg)
//	http.Handle("/metrics", reg.Handler())
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "antpack"

// Registry holds all metrics of the application.
type Registry struct {
	// Optimizer metrics
	RunsTotal         *prometheus.CounterVec
	RunsInFlight      prometheus.Gauge
	RunDuration       prometheus.Histogram
	EvaluationsTotal  prometheus.Counter
	BatchDuration     prometheus.Histogram
	BestFitness       prometheus.Histogram
	ImprovementsTotal prometheus.Counter
	NumericRecoveries *prometheus.CounterVec

	// Cache metrics
	CacheRequestsTotal *prometheus.CounterVec
	CacheWriteBytes    *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r.initOptimizerMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
