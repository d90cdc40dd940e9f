package solver

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// FactoryOptions translates the environment mode and constraint weight
// overrides of cfg into director factory options.
func FactoryOptions(cfg config.SolverConfig) ([]director.FactoryOption, error) {
	mode, err := director.ParseAssertionMode(cfg.EnvironmentMode)
	if err != nil {
		return nil, err
	}
	opts := []director.FactoryOption{director.WithAssertionMode(mode)}
	if len(cfg.ConstraintWeights) > 0 {
		opts = append(opts, director.WithConstraintWeightTexts(cfg.ConstraintWeights))
	}
	return opts, nil
}

// TerminationFromConfig combines every enabled limit of cfg.
func TerminationFromConfig[S score.Score[S]](cfg config.TerminationConfig, def score.Definition[S]) (Termination[S], error) {
	var terminations []Termination[S]
	if cfg.StepLimit > 0 {
		terminations = append(terminations, StepLimit[S](cfg.StepLimit))
	}
	if cfg.TimeLimit > 0 {
		terminations = append(terminations, TimeLimit[S](cfg.TimeLimit))
	}
	if cfg.UnimprovedStepLimit > 0 {
		terminations = append(terminations, UnimprovedStepLimit[S](cfg.UnimprovedStepLimit))
	}
	if cfg.BestScoreLimit != "" {
		limit, err := def.Parse(cfg.BestScoreLimit)
		if err != nil {
			return nil, fmt.Errorf("best_score_limit: %w", err)
		}
		terminations = append(terminations, BestScoreLimit(limit))
	}
	if len(terminations) == 0 {
		return nil, fmt.Errorf("no termination configured: local search would never stop")
	}
	return AnyOf(terminations...), nil
}

// AcceptorFromConfig builds the configured acceptor.
func AcceptorFromConfig[S score.Score[S]](cfg config.LocalSearchConfig) (Acceptor[S], error) {
	switch cfg.Acceptor {
	case config.AcceptorHillClimbing:
		return HillClimbing[S]{}, nil
	case config.AcceptorLateAcceptance:
		return NewLateAcceptance[S](cfg.LateAcceptanceSize), nil
	case config.AcceptorTabu:
		return NewMoveTabu[S](cfg.TabuSize), nil
	default:
		return nil, fmt.Errorf("unknown acceptor %q", cfg.Acceptor)
	}
}
