// Package metrics exposes the prometheus collectors of the API server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by route, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flp_http_requests_total", Help: "Total HTTP requests."},
		[]string{"route", "method", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "flp_http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"route"},
	)

	// Solves counts solve runs by backend and result status.
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "flp_solves_total", Help: "Solve runs by backend and status."},
		[]string{"backend", "status"},
	)
	// SolveDuration records solver wall times in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "flp_solve_duration_seconds", Help: "Solver wall time in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600}},
		[]string{"backend"},
	)
	// SolutionCost tracks the total cost of the latest solution.
	SolutionCost = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "flp_solution_cost", Help: "Total cost of the latest solution."},
	)
)

var regOnce sync.Once

// Register registers all collectors on the dedicated registry.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolutionCost)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves the dedicated registry.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
