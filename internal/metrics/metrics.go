// Package metrics holds the prometheus collectors of the solve pipeline. A CLI
// process has no scrape endpoint, so the registry is written to a node
// exporter textfile when one is configured.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry for the pipeline collectors.
	Registry = prometheus.NewRegistry()
	// Solves counts invocations by variant and final status.
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "facility_solves_total", Help: "Solve invocations by variant and status."},
		[]string{"variant", "status"},
	)
	// SolveDuration records wall time of the whole pipeline in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "facility_solve_duration_seconds", Help: "Pipeline duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600}},
		[]string{"variant"},
	)
	// ModelVariables is the variable count of the last built model.
	ModelVariables = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "facility_model_variables", Help: "Variables in the last built model."},
		[]string{"variant"},
	)
	// ModelConstraints is the constraint count of the last built model.
	ModelConstraints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "facility_model_constraints", Help: "Constraints in the last built model."},
		[]string{"variant"},
	)
)

var regOnce sync.Once

// Register registers the collectors on Registry. It is safe to call more
// than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(ModelVariables)
		Registry.MustRegister(ModelConstraints)
		Registry.MustRegister(collectors.NewGoCollector())
	})
}

// ObserveSolve records one finished invocation.
func ObserveSolve(variant, status string, elapsed time.Duration) {
	if variant == "" {
		variant = "unknown"
	}
	Solves.WithLabelValues(variant, status).Inc()
	SolveDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
}

// ObserveModel records the size of a built model.
func ObserveModel(variant string, variables, constraints int) {
	ModelVariables.WithLabelValues(variant).Set(float64(variables))
	ModelConstraints.WithLabelValues(variant).Set(float64(constraints))
}

// WriteTextfile writes Registry to path in the text exposition format. An
// empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}
