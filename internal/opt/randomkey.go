package opt

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/solver"
)

// levelBase separates score levels in Scalarize.
const levelBase = 1e6

// Scalarize maps a score to one float64 that orders like the score as long as
// every level stays within ±levelBase/2. The init score is the most
// significant level.
func Scalarize[S score.Score[S]](s S) float64 {
	v := float64(s.InitScore())
	for _, level := range s.LevelNumbers() {
		v = v*levelBase + level
	}
	return v
}

// RandomKeyConstruction assigns every unassigned list value with a
// continuous optimizer. Each value gets one key in [0, #entities): the
// integer part picks the entity and the keys order the values appended to
// each entity's list. The objective is the negated scalarized score.
type RandomKeyConstruction[Sol any, E, V comparable, S score.Score[S]] struct {
	Variable *domain.ListVariable[E, V]
	Entities func(Sol) []E
	Values   func(Sol) []V

	Iterations int
	Population int

	// Optimizer overrides the default Mayfly optimizer.
	Optimizer Optimizer
}

func (p RandomKeyConstruction[Sol, E, V, S]) Name() string { return "random key construction" }

func (p RandomKeyConstruction[Sol, E, V, S]) Solve(scope *solver.Scope[Sol, S]) error {
	d := scope.Director()
	solution := d.WorkingSolution()
	entities := p.Entities(solution)
	values := p.unassigned(solution, entities)

	initial, err := d.CalculateScore()
	if err != nil {
		return err
	}
	scope.PhaseStarted(initial)
	if len(values) == 0 || len(entities) == 0 {
		return nil
	}

	optimizer := p.Optimizer
	if optimizer == nil {
		optimizer = NewMayfly(p.Iterations, p.Population, scope.Rand().Int63())
	}
	slog.Info("Random key construction started",
		"values", len(values),
		"entities", len(entities),
		"iterations", p.Iterations,
		"population", p.Population,
	)

	var evalErr error
	eval := func(keys []float64) float64 {
		if evalErr != nil || scope.Context().Err() != nil {
			return math.Inf(1)
		}
		s, err := p.evaluate(d, p.decode(keys, entities, values))
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		scope.Recorder().MoveEvaluated()
		return -Scalarize(s)
	}

	dim := len(values)
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := range upper {
		upper[i] = float64(len(entities))
	}
	best, cost := optimizer.Run(eval, lower, upper, dim)
	if evalErr != nil {
		return evalErr
	}

	for _, m := range p.decode(best, entities, values) {
		d.DoMove(m)
	}
	scope.Recorder().MoveAccepted()
	stepScore, err := d.CalculateScore()
	if err != nil {
		return err
	}
	if err := scope.StepEnded(stepScore); err != nil {
		return err
	}

	slog.Info("Random key construction ended", "score", stepScore.String(), "best_cost", cost)
	return nil
}

// unassigned lists the values that are in no entity's list.
func (p RandomKeyConstruction[Sol, E, V, S]) unassigned(solution Sol, entities []E) []V {
	assigned := make(map[V]struct{})
	for _, e := range entities {
		for _, v := range p.Variable.Elements(e) {
			assigned[v] = struct{}{}
		}
	}
	var out []V
	for _, v := range p.Values(solution) {
		if _, ok := assigned[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

type keyedValue struct {
	index  int
	entity int
	key    float64
}

// decode turns keys into assign moves that append values to entity lists.
func (p RandomKeyConstruction[Sol, E, V, S]) decode(keys []float64, entities []E, values []V) []move.Move {
	keyed := make([]keyedValue, len(values))
	for i := range values {
		e := int(math.Floor(keys[i]))
		keyed[i] = keyedValue{index: i, entity: min(max(e, 0), len(entities)-1), key: keys[i]}
	}
	slices.SortStableFunc(keyed, func(a, b keyedValue) int {
		if c := cmp.Compare(a.entity, b.entity); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	next := make([]int, len(entities))
	for i, e := range entities {
		next[i] = p.Variable.Size(e)
	}
	moves := make([]move.Move, len(keyed))
	for i, k := range keyed {
		moves[i] = move.NewListAssignMove(p.Variable, values[k.index], entities[k.entity], next[k.entity])
		next[k.entity]++
	}
	return moves
}

// evaluate does the moves, scores the result and undoes them again.
func (p RandomKeyConstruction[Sol, E, V, S]) evaluate(d *director.Director[Sol, S], moves []move.Move) (S, error) {
	undos := make([]move.Move, len(moves))
	for i, m := range moves {
		undos[i] = d.DoMove(m)
	}
	s, err := d.CalculateScore()
	for i := len(undos) - 1; i >= 0; i-- {
		d.DoMove(undos[i])
	}
	return s, err
}
