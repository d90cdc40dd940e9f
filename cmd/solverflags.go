package main

import (
	"fmt"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/spf13/cobra"
)

// solverFlags are the solver settings a command accepts on top of --config.
type solverFlags struct {
	configPath          string
	stepLimit           int
	timeLimit           time.Duration
	unimprovedStepLimit int
	bestScoreLimit      string
	construction        string
	acceptor            string
	moveSelector        string
	seed                int64
	environmentMode     string
}

func addSolverFlags(cmd *cobra.Command, f *solverFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "Solver config file (YAML or JSON)")
	flags.IntVar(&f.stepLimit, "step-limit", 0, "Stop each phase after N steps (0 = no limit)")
	flags.DurationVar(&f.timeLimit, "time-limit", 0, "Stop after this long (0 = no limit)")
	flags.IntVar(&f.unimprovedStepLimit, "unimproved-step-limit", 0, "Stop local search after N steps without a new best score")
	flags.StringVar(&f.bestScoreLimit, "best-score-limit", "", "Stop once the best score reaches this score")
	flags.StringVar(&f.construction, "construction", "", "Construction heuristic (first_fit, random_key, none)")
	flags.StringVar(&f.acceptor, "acceptor", "", "Local search acceptor (hill_climbing, late_acceptance, tabu)")
	flags.StringVar(&f.moveSelector, "move-selector", "", "Move selector (change, swap, union)")
	flags.Int64Var(&f.seed, "seed", 0, "Random seed")
	flags.StringVar(&f.environmentMode, "environment-mode", "", "Environment mode (reproducible, fast_assert, full_assert)")
}

// load reads --config, then applies the flags the user set.
func (f *solverFlags) load(cmd *cobra.Command) (config.SolverConfig, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	return f.apply(cmd, cfg)
}

// apply overrides cfg with the flags the user set and validates the result.
func (f *solverFlags) apply(cmd *cobra.Command, cfg config.SolverConfig) (config.SolverConfig, error) {
	changed := cmd.Flags().Changed
	if changed("step-limit") {
		cfg.Termination.StepLimit = f.stepLimit
	}
	if changed("time-limit") {
		cfg.Termination.TimeLimit = f.timeLimit
	}
	if changed("unimproved-step-limit") {
		cfg.Termination.UnimprovedStepLimit = f.unimprovedStepLimit
	}
	if changed("best-score-limit") {
		cfg.Termination.BestScoreLimit = f.bestScoreLimit
	}
	if changed("construction") {
		cfg.Construction.Type = f.construction
	}
	if changed("acceptor") {
		cfg.LocalSearch.Acceptor = f.acceptor
	}
	if changed("move-selector") {
		cfg.LocalSearch.MoveSelector = f.moveSelector
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("environment-mode") {
		cfg.EnvironmentMode = f.environmentMode
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid solver settings: %w", err)
	}
	return cfg, nil
}
