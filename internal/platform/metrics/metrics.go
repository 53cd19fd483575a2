// Package metrics exposes Prometheus metrics for settlement runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/homeplanner/settlement-scheduler/internal/settlement"
)

// Metrics holds all Prometheus metrics for the settlement scheduler.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	runDuration   *prometheus.HistogramVec
	outcomesTotal *prometheus.CounterVec
	settledAmount *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settlement_run_duration_seconds",
				Help:    "Duration of settlement runs by engine.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
		outcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_outcomes_total",
				Help: "Total settlement outcomes by engine and kind.",
			},
			[]string{"engine", "kind"},
		),
		settledAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_amount_total",
				Help: "Total amount settled, in minor units.",
			},
			[]string{"engine"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_runs_total",
				Help: "Total settlement runs by engine.",
			},
			[]string{"engine"},
		),
	}
}

// ObserveRun records the outcome counts, settled amount, and duration of a
// finished settlement run.
func (m *Metrics) ObserveRun(summary settlement.RunSummary, duration time.Duration) {
	m.runsTotal.WithLabelValues(summary.Engine).Inc()
	m.runDuration.WithLabelValues(summary.Engine).Observe(duration.Seconds())
	m.outcomesTotal.WithLabelValues(summary.Engine, "success").Add(float64(summary.SuccessCount))
	m.outcomesTotal.WithLabelValues(summary.Engine, "failure").Add(float64(summary.FailureCount))
	m.outcomesTotal.WithLabelValues(summary.Engine, "error").Add(float64(summary.ErrorCount))
	m.settledAmount.WithLabelValues(summary.Engine).Add(float64(summary.TotalAmount))
}

var _ settlement.RunObserver = (*Metrics)(nil)
