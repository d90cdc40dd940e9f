// Package director owns a working solution and keeps its score current.
//
// A Factory is built once per problem type: it seals the solution descriptor
// and resolves the constraint weight table. Each Director built from it owns
// one working solution, one score holder and one constraint session, and is
// used by a single goroutine.
package director

import (
	"fmt"
	"strings"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
)

// ConstraintProvider defines the constraints of a problem and evaluates them.
type ConstraintProvider[Sol any, S score.Score[S]] interface {
	// DefineConstraints returns every constraint with its default weight.
	DefineConstraints() []constraint.Definition[S]
	// NewSession returns a session that impacts h. The holder is already
	// configured with every constraint weight.
	NewSession(h holder.Holder[S]) ConstraintSession[Sol]
}

// ConstraintSession evaluates constraints incrementally. It receives every
// variable notification of the working solution between Insert and Close.
type ConstraintSession[Sol any] interface {
	domain.VariableListener
	// Insert evaluates a new working solution from scratch.
	Insert(solution Sol) error
	// Flush brings the holder up to date with all notified changes.
	Flush() error
	Close()
}

// AssertionMode selects how much self-checking directors and solvers do.
type AssertionMode int

const (
	// Reproducible does no extra checking.
	Reproducible AssertionMode = iota
	// FastAssert checks notification brackets and asserts the working score
	// from scratch after every step.
	FastAssert
	// FullAssert also asserts every evaluated move and its undo.
	FullAssert
)

func (m AssertionMode) String() string {
	switch m {
	case FastAssert:
		return "fast_assert"
	case FullAssert:
		return "full_assert"
	default:
		return "reproducible"
	}
}

// ParseAssertionMode parses "reproducible", "fast_assert" or "full_assert".
func ParseAssertionMode(text string) (AssertionMode, error) {
	switch strings.ToLower(text) {
	case "", "reproducible":
		return Reproducible, nil
	case "fast_assert":
		return FastAssert, nil
	case "full_assert":
		return FullAssert, nil
	default:
		return Reproducible, fmt.Errorf("unknown environment mode %q (want reproducible, fast_assert or full_assert)", text)
	}
}

type factoryConfig struct {
	mode        AssertionMode
	weights     any
	weightTexts map[string]string
}

// FactoryOption configures a Factory.
type FactoryOption func(*factoryConfig)

// WithAssertionMode sets the assertion mode of every director.
func WithAssertionMode(mode AssertionMode) FactoryOption {
	return func(c *factoryConfig) { c.mode = mode }
}

// WithConstraintWeights overrides default weights. Keys are constraint IDs
// ("package/name") or bare constraint names.
func WithConstraintWeights[S score.Score[S]](weights map[string]S) FactoryOption {
	return func(c *factoryConfig) { c.weights = weights }
}

// WithConstraintWeightTexts overrides default weights with score strings
// parsed by the factory's score definition, e.g. "-1hard/0soft".
func WithConstraintWeightTexts(weights map[string]string) FactoryOption {
	return func(c *factoryConfig) { c.weightTexts = weights }
}

// Factory builds directors for one solution type.
type Factory[Sol any, S score.Score[S]] struct {
	descriptor *domain.SolutionDescriptor[Sol]
	definition score.Definition[S]
	provider   ConstraintProvider[Sol, S]
	weights    []constraint.Definition[S]
	mode       AssertionMode
}

// NewFactory resolves the constraint weight table and seals descriptor.
func NewFactory[Sol any, S score.Score[S]](descriptor *domain.SolutionDescriptor[Sol], definition score.Definition[S],
	provider ConstraintProvider[Sol, S], opts ...FactoryOption) (*Factory[Sol, S], error) {
	cfg := factoryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	defs := provider.DefineConstraints()
	weights := make([]constraint.Definition[S], len(defs))
	index := make(map[string]int, 2*len(defs))
	for i, def := range defs {
		if _, dup := index[def.Ref.ID()]; dup {
			return nil, &score.ConfigurationError{Constraint: def.Ref.ID(), Reason: "is defined twice"}
		}
		weights[i] = def
		index[def.Ref.ID()] = i
		if _, ok := index[def.Ref.Name]; !ok {
			index[def.Ref.Name] = i
		}
	}

	override := func(name string, weight S) error {
		i, ok := index[name]
		if !ok {
			return &score.ConfigurationError{Constraint: name, Reason: "has a configured weight but is not defined"}
		}
		weights[i].Weight = weight
		return nil
	}
	for name, text := range cfg.weightTexts {
		weight, err := definition.Parse(text)
		if err != nil {
			return nil, &score.ConfigurationError{Constraint: name, Reason: fmt.Sprintf("has an invalid weight: %v", err)}
		}
		if err := override(name, weight); err != nil {
			return nil, err
		}
	}
	if cfg.weights != nil {
		typed, ok := cfg.weights.(map[string]S)
		if !ok {
			return nil, &score.ConfigurationError{Reason: fmt.Sprintf("constraint weights of type %T do not match score type %s",
				cfg.weights, definition.Label())}
		}
		for name, weight := range typed {
			if err := override(name, weight); err != nil {
				return nil, err
			}
		}
	}

	descriptor.Seal()
	return &Factory[Sol, S]{
		descriptor: descriptor,
		definition: definition,
		provider:   provider,
		weights:    weights,
		mode:       cfg.mode,
	}, nil
}

func (f *Factory[Sol, S]) SolutionDescriptor() *domain.SolutionDescriptor[Sol] { return f.descriptor }
func (f *Factory[Sol, S]) ScoreDefinition() score.Definition[S]                { return f.definition }
func (f *Factory[Sol, S]) AssertionMode() AssertionMode                        { return f.mode }

// ConstraintWeights returns the resolved weight table.
func (f *Factory[Sol, S]) ConstraintWeights() []constraint.Definition[S] {
	return append([]constraint.Definition[S](nil), f.weights...)
}

// BuildDirector returns a director without a working solution. Working object
// lookup and constraint match tracking cost memory and time, so they are
// only enabled on request.
func (f *Factory[Sol, S]) BuildDirector(lookUpEnabled, constraintMatchEnabled bool) *Director[Sol, S] {
	return &Director[Sol, S]{
		factory:                f,
		lookUpEnabled:          lookUpEnabled,
		constraintMatchEnabled: constraintMatchEnabled,
		checkBrackets:          f.mode != Reproducible,
	}
}
