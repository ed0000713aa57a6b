package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every ciefunctions metric plus the Go and process
// collectors.
var Registry = prometheus.NewRegistry()

var (
	// Computations counts pipeline runs by quantity and outcome.
	Computations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ciefunctions",
		Name:      "computations_total",
		Help:      "Colorimetric computations by quantity and outcome.",
	}, []string{"quantity", "outcome"})

	// ComputationDuration observes pipeline wall time by quantity.
	ComputationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ciefunctions",
		Name:      "computation_duration_seconds",
		Help:      "Time spent computing and serializing one quantity.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"quantity"})

	// SolverRetries counts re-minimizations of the XYZ matrix solver.
	SolverRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ciefunctions",
		Name:      "solver_retries_total",
		Help:      "Transformation solver re-minimizations after a moved x-minimum.",
	})

	// HTTPRequests counts API responses by route and status code.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ciefunctions",
		Name:      "http_requests_total",
		Help:      "HTTP responses by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Computations,
		ComputationDuration,
		SolverRetries,
		HTTPRequests,
	)
}

// ObserveComputation records one pipeline run.
func ObserveComputation(quantity, outcome string, d time.Duration) {
	Computations.WithLabelValues(quantity, outcome).Inc()
	ComputationDuration.WithLabelValues(quantity).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
