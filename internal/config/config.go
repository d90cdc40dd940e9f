// Package config loads solver configuration from YAML or JSON files and
// PLANNER_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Construction heuristics.
const (
	ConstructionFirstFit  = "first_fit"
	ConstructionRandomKey = "random_key"
	ConstructionNone      = "none"
)

// Local search acceptors.
const (
	AcceptorHillClimbing   = "hill_climbing"
	AcceptorLateAcceptance = "late_acceptance"
	AcceptorTabu           = "tabu"
)

// Move selectors.
const (
	MoveSelectorChange = "change"
	MoveSelectorSwap   = "swap"
	MoveSelectorUnion  = "union"
)

// SolverConfig is the top-level solver configuration.
type SolverConfig struct {
	// EnvironmentMode is reproducible, fast_assert or full_assert.
	EnvironmentMode string `json:"environment_mode" yaml:"environment_mode"`

	// Seed makes a run reproducible.
	Seed int64 `json:"seed" yaml:"seed"`

	Termination  TerminationConfig  `json:"termination" yaml:"termination"`
	Construction ConstructionConfig `json:"construction" yaml:"construction"`
	LocalSearch  LocalSearchConfig  `json:"local_search" yaml:"local_search"`

	// ConstraintWeights overrides default constraint weights. Keys are
	// constraint names or IDs, values are score strings such as "-1hard/0soft".
	ConstraintWeights map[string]string `json:"constraint_weights,omitempty" yaml:"constraint_weights,omitempty"`

	// CheckpointInterval is how often a running job persists its best solution.
	CheckpointInterval time.Duration `json:"checkpoint_interval" yaml:"checkpoint_interval"`
}

// TerminationConfig holds the stop conditions. Zero values are disabled; the
// solver stops as soon as any enabled condition holds.
type TerminationConfig struct {
	StepLimit           int           `json:"step_limit" yaml:"step_limit"`
	TimeLimit           time.Duration `json:"time_limit" yaml:"time_limit"`
	UnimprovedStepLimit int           `json:"unimproved_step_limit" yaml:"unimproved_step_limit"`
	BestScoreLimit      string        `json:"best_score_limit,omitempty" yaml:"best_score_limit,omitempty"`
}

// ConstructionConfig selects the construction heuristic.
type ConstructionConfig struct {
	Type string `json:"type" yaml:"type"`

	// Iterations and Population only apply to random_key.
	Iterations int `json:"iterations" yaml:"iterations"`
	Population int `json:"population" yaml:"population"`
}

// LocalSearchConfig configures the local search phase.
type LocalSearchConfig struct {
	Acceptor           string `json:"acceptor" yaml:"acceptor"`
	LateAcceptanceSize int    `json:"late_acceptance_size" yaml:"late_acceptance_size"`
	TabuSize           int    `json:"tabu_size" yaml:"tabu_size"`
	MoveSelector       string `json:"move_selector" yaml:"move_selector"`

	// AcceptedCountLimit is the number of candidate moves evaluated per step.
	AcceptedCountLimit int `json:"accepted_count_limit" yaml:"accepted_count_limit"`
}

// Default returns the default configuration.
func Default() SolverConfig {
	return SolverConfig{
		EnvironmentMode: "reproducible",
		Seed:            42,
		Termination: TerminationConfig{
			StepLimit:           2000,
			UnimprovedStepLimit: 500,
		},
		Construction: ConstructionConfig{
			Type:       ConstructionFirstFit,
			Iterations: 50,
			Population: 20,
		},
		LocalSearch: LocalSearchConfig{
			Acceptor:           AcceptorLateAcceptance,
			LateAcceptanceSize: 100,
			TabuSize:           7,
			MoveSelector:       MoveSelectorUnion,
			AcceptedCountLimit: 20,
		},
		CheckpointInterval: 10 * time.Second,
	}
}

// Load loads configuration with priority: env > file > defaults.
// An empty path or a missing file leaves the defaults in place.
func Load(path string) (SolverConfig, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *SolverConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadEnv(cfg *SolverConfig) error {
	ints := map[string]*int{
		"PLANNER_STEP_LIMIT":            &cfg.Termination.StepLimit,
		"PLANNER_UNIMPROVED_STEP_LIMIT": &cfg.Termination.UnimprovedStepLimit,
		"PLANNER_CONSTRUCTION_ITERS":    &cfg.Construction.Iterations,
		"PLANNER_CONSTRUCTION_POP":      &cfg.Construction.Population,
		"PLANNER_LATE_ACCEPTANCE_SIZE":  &cfg.LocalSearch.LateAcceptanceSize,
		"PLANNER_TABU_SIZE":             &cfg.LocalSearch.TabuSize,
		"PLANNER_ACCEPTED_COUNT_LIMIT":  &cfg.LocalSearch.AcceptedCountLimit,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = i
		}
	}

	durations := map[string]*time.Duration{
		"PLANNER_TIME_LIMIT":          &cfg.Termination.TimeLimit,
		"PLANNER_CHECKPOINT_INTERVAL": &cfg.CheckpointInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	strs := map[string]*string{
		"PLANNER_ENVIRONMENT_MODE": &cfg.EnvironmentMode,
		"PLANNER_BEST_SCORE_LIMIT": &cfg.Termination.BestScoreLimit,
		"PLANNER_CONSTRUCTION":     &cfg.Construction.Type,
		"PLANNER_ACCEPTOR":         &cfg.LocalSearch.Acceptor,
		"PLANNER_MOVE_SELECTOR":    &cfg.LocalSearch.MoveSelector,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PLANNER_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PLANNER_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c SolverConfig) Validate() error {
	switch strings.ToLower(c.EnvironmentMode) {
	case "", "reproducible", "fast_assert", "full_assert":
	default:
		return fmt.Errorf("environment_mode must be reproducible, fast_assert or full_assert, got %q", c.EnvironmentMode)
	}
	if c.Termination.StepLimit < 0 || c.Termination.UnimprovedStepLimit < 0 || c.Termination.TimeLimit < 0 {
		return fmt.Errorf("termination limits must be >= 0")
	}
	switch c.Construction.Type {
	case ConstructionFirstFit, ConstructionNone:
	case ConstructionRandomKey:
		if c.Construction.Iterations < 1 {
			return fmt.Errorf("construction iterations must be >= 1")
		}
		// mayfly needs a population of at least 20
		if c.Construction.Population < 20 {
			return fmt.Errorf("construction population must be >= 20")
		}
	default:
		return fmt.Errorf("construction type must be first_fit, random_key or none, got %q", c.Construction.Type)
	}
	switch c.LocalSearch.Acceptor {
	case AcceptorHillClimbing:
	case AcceptorLateAcceptance:
		if c.LocalSearch.LateAcceptanceSize < 1 {
			return fmt.Errorf("late_acceptance_size must be >= 1")
		}
	case AcceptorTabu:
		if c.LocalSearch.TabuSize < 1 {
			return fmt.Errorf("tabu_size must be >= 1")
		}
	default:
		return fmt.Errorf("acceptor must be hill_climbing, late_acceptance or tabu, got %q", c.LocalSearch.Acceptor)
	}
	switch c.LocalSearch.MoveSelector {
	case MoveSelectorChange, MoveSelectorSwap, MoveSelectorUnion:
	default:
		return fmt.Errorf("move_selector must be change, swap or union, got %q", c.LocalSearch.MoveSelector)
	}
	if c.LocalSearch.AcceptedCountLimit < 1 {
		return fmt.Errorf("accepted_count_limit must be >= 1")
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint_interval must be >= 0")
	}
	return nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg SolverConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
