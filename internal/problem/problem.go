// Package problem gives the job server and the CLI one untyped handle on the
// example domains, so they can load, score, explain and solve a dataset
// without knowing its solution or score type.
package problem

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/manager"
	"github.com/MarcyGO/optaplanner/internal/metrics"
)

// Instance is one loaded dataset of some problem.
type Instance interface {
	// Problem is the registered problem name.
	Problem() string

	// Marshal encodes the solution in the problem's YAML dataset format.
	Marshal() ([]byte, error)

	// Score calculates the score from scratch and stores it on the solution.
	Score(cfg config.SolverConfig) (ScoreInfo, error)

	// Explain calculates the score with constraint match tracking.
	Explain(cfg config.SolverConfig) (*Report, error)

	// Solve runs the solver configured by cfg on a clone of the solution.
	Solve(ctx context.Context, cfg config.SolverConfig, opts SolveOptions) (Outcome, error)
}

// ScoreInfo is a score in text form with its feasibility flags.
type ScoreInfo struct {
	Score       string `json:"score"`
	Feasible    bool   `json:"feasible"`
	Initialized bool   `json:"initialized"`
}

// Report is a score explanation: its JSON view and its text summary.
type Report struct {
	View    manager.View
	Summary string
}

// SolveOptions hooks a caller into a solve.
type SolveOptions struct {
	Recorder metrics.Recorder

	// OnBest is called on the solving goroutine for every new best solution.
	OnBest func(Best)
}

// Best is a new best solution. Solution is a clone the solver no longer
// touches, so it may be marshalled from any goroutine.
type Best struct {
	ScoreInfo
	Solution Instance
	Step     int
	Elapsed  time.Duration
}

// Outcome is the result of a solve.
type Outcome struct {
	ScoreInfo
	Solution         Instance
	Steps            int
	CalculationCount int64
	Elapsed          time.Duration
}

// Problem describes one registered problem.
type Problem struct {
	Name        string
	Description string

	// Parse decodes a YAML dataset.
	Parse func(data []byte) (Instance, error)

	// Generate builds a seeded dataset. Size is the number of planning
	// values (tasks, queens); zero picks the problem's default size.
	Generate func(seed int64, size int) (Instance, error)
}

var registry = map[string]Problem{}

func register(p Problem) {
	if _, exists := registry[p.Name]; exists {
		panic(fmt.Sprintf("problem %q registered twice", p.Name))
	}
	registry[p.Name] = p
}

// Lookup finds a registered problem by name.
func Lookup(name string) (Problem, error) {
	p, ok := registry[name]
	if !ok {
		return Problem{}, fmt.Errorf("unknown problem %q (known: %v)", name, Names())
	}
	return p, nil
}

// Names lists the registered problems in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load reads a dataset file of the named problem.
func Load(name, path string) (Instance, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	inst, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return inst, nil
}

// Save writes the instance in its YAML dataset format.
func Save(path string, inst Instance) error {
	data, err := inst.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write solution: %w", err)
	}
	return nil
}
