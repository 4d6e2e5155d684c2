package service

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/classtable-engine/internal/scheduler"
)

// SolveMetrics encapsulates Prometheus instrumentation for the solver: a
// dedicated registry and scrape handler, pointed at solve outcomes.
type SolveMetrics struct {
	registry       *prometheus.Registry
	handler        http.Handler
	solveDuration  prometheus.Histogram
	solvesByStatus *prometheus.CounterVec
	candidateCount prometheus.Histogram
}

// NewSolveMetrics registers the solver's Prometheus collectors.
func NewSolveMetrics() *SolveMetrics {
	registry := prometheus.NewRegistry()

	solveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Wall-clock duration of Solve invocations",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	})

	solvesByStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solves_total",
		Help: "Total solve invocations by outcome status",
	}, []string{"status"})

	candidateCount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solve_candidates_returned",
		Help:    "Number of ranked candidates returned per solve",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(solveDuration, solvesByStatus, candidateCount, goroutines)

	return &SolveMetrics{
		registry:       registry,
		handler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		solveDuration:  solveDuration,
		solvesByStatus: solvesByStatus,
		candidateCount: candidateCount,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *SolveMetrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveSolve records one Solve() outcome.
func (m *SolveMetrics) ObserveSolve(outcome scheduler.SolveOutcome) {
	if m == nil {
		return
	}
	m.solveDuration.Observe(outcome.Elapsed.Seconds())
	m.solvesByStatus.WithLabelValues(string(outcome.Status)).Inc()
	m.candidateCount.Observe(float64(len(outcome.Candidates)))
}
