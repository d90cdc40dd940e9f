// Package metrics exposes solver activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives solver activity. Implementations must be safe for
// concurrent use: several solves may report at the same time.
type Recorder interface {
	AddScoreCalculations(n int64)
	MoveEvaluated()
	MoveAccepted()
	BestScoreUpdated()
	SolveStarted()
	SolveFinished(elapsed time.Duration)
}

// Noop discards everything.
type Noop struct{}

func (Noop) AddScoreCalculations(int64)  {}
func (Noop) MoveEvaluated()              {}
func (Noop) MoveAccepted()               {}
func (Noop) BestScoreUpdated()           {}
func (Noop) SolveStarted()               {}
func (Noop) SolveFinished(time.Duration) {}

// Collector holds the planner collectors, labelled by problem name.
type Collector struct {
	scoreCalculations *prometheus.CounterVec
	movesEvaluated    *prometheus.CounterVec
	movesAccepted     *prometheus.CounterVec
	bestScoreUpdates  *prometheus.CounterVec
	activeSolves      *prometheus.GaugeVec
	solveDuration     *prometheus.HistogramVec
}

// New registers the planner collectors with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	labels := []string{"problem"}
	return &Collector{
		scoreCalculations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_score_calculations_total",
			Help: "Total score calculations by problem",
		}, labels),
		movesEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_moves_evaluated_total",
			Help: "Total doable moves evaluated by local search",
		}, labels),
		movesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_moves_accepted_total",
			Help: "Total moves picked as step by local search",
		}, labels),
		bestScoreUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_best_score_updates_total",
			Help: "Total new best solutions found",
		}, labels),
		activeSolves: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "planner_active_jobs",
			Help: "Number of solves currently running",
		}, labels),
		solveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_solve_duration_seconds",
			Help:    "Solve duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, labels),
	}
}

// Recorder returns a Recorder reporting under the given problem label.
func (c *Collector) Recorder(problem string) Recorder {
	return &problemRecorder{
		scoreCalculations: c.scoreCalculations.WithLabelValues(problem),
		movesEvaluated:    c.movesEvaluated.WithLabelValues(problem),
		movesAccepted:     c.movesAccepted.WithLabelValues(problem),
		bestScoreUpdates:  c.bestScoreUpdates.WithLabelValues(problem),
		activeSolves:      c.activeSolves.WithLabelValues(problem),
		solveDuration:     c.solveDuration.WithLabelValues(problem),
	}
}

type problemRecorder struct {
	scoreCalculations prometheus.Counter
	movesEvaluated    prometheus.Counter
	movesAccepted     prometheus.Counter
	bestScoreUpdates  prometheus.Counter
	activeSolves      prometheus.Gauge
	solveDuration     prometheus.Observer
}

func (r *problemRecorder) AddScoreCalculations(n int64) { r.scoreCalculations.Add(float64(n)) }
func (r *problemRecorder) MoveEvaluated()               { r.movesEvaluated.Inc() }
func (r *problemRecorder) MoveAccepted()                { r.movesAccepted.Inc() }
func (r *problemRecorder) BestScoreUpdated()            { r.bestScoreUpdates.Inc() }
func (r *problemRecorder) SolveStarted()                { r.activeSolves.Inc() }

func (r *problemRecorder) SolveFinished(elapsed time.Duration) {
	r.activeSolves.Dec()
	r.solveDuration.Observe(elapsed.Seconds())
}
