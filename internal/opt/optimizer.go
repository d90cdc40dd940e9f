// Package opt adapts continuous optimizers to planning problems.
package opt

// Optimizer minimizes eval over the box [lower, upper] of dimension dim and
// returns the best point found with its value. Implementations must be
// deterministic for a fixed seed.
type Optimizer interface {
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
