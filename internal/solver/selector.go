package solver

import (
	"math/rand"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/move"
)

// MoveSelector picks random moves on the working solution. It returns false
// when the solution offers no move of its kind.
type MoveSelector[Sol any] interface {
	Select(solution Sol, rnd *rand.Rand) (move.Move, bool)
}

// ListChangeMoveSelector relocates a random list element to a random position.
type ListChangeMoveSelector[Sol any, E, V comparable] struct {
	Variable *domain.ListVariable[E, V]
	Entities func(Sol) []E
}

func (s ListChangeMoveSelector[Sol, E, V]) Select(solution Sol, rnd *rand.Rand) (move.Move, bool) {
	entities := s.Entities(solution)
	source, ok := randomNonEmpty(entities, s.Variable, rnd)
	if !ok {
		return nil, false
	}
	sourceIndex := rnd.Intn(s.Variable.Size(source))
	destination := entities[rnd.Intn(len(entities))]
	size := s.Variable.Size(destination)
	if destination == source {
		size--
	}
	return move.NewListChangeMove(s.Variable, source, sourceIndex, destination, rnd.Intn(size+1)), true
}

// ListSwapMoveSelector swaps two random list elements.
type ListSwapMoveSelector[Sol any, E, V comparable] struct {
	Variable *domain.ListVariable[E, V]
	Entities func(Sol) []E
}

func (s ListSwapMoveSelector[Sol, E, V]) Select(solution Sol, rnd *rand.Rand) (move.Move, bool) {
	entities := s.Entities(solution)
	left, ok := randomNonEmpty(entities, s.Variable, rnd)
	if !ok {
		return nil, false
	}
	right, _ := randomNonEmpty(entities, s.Variable, rnd)
	return move.NewListSwapMove(s.Variable,
		left, rnd.Intn(s.Variable.Size(left)),
		right, rnd.Intn(s.Variable.Size(right))), true
}

// randomNonEmpty picks a random entity with a non-empty list.
func randomNonEmpty[E, V comparable](entities []E, variable *domain.ListVariable[E, V], rnd *rand.Rand) (E, bool) {
	var zero E
	var nonEmpty []E
	for _, e := range entities {
		if variable.Size(e) > 0 {
			nonEmpty = append(nonEmpty, e)
		}
	}
	if len(nonEmpty) == 0 {
		return zero, false
	}
	return nonEmpty[rnd.Intn(len(nonEmpty))], true
}

// ChangeMoveSelector assigns a random value to a random entity.
type ChangeMoveSelector[Sol any, E, V comparable] struct {
	Variable *domain.BasicVariable[E, V]
	Entities func(Sol) []E
	Values   func(Sol) []V
}

func (s ChangeMoveSelector[Sol, E, V]) Select(solution Sol, rnd *rand.Rand) (move.Move, bool) {
	entities := s.Entities(solution)
	values := s.Values(solution)
	if len(entities) == 0 || len(values) == 0 {
		return nil, false
	}
	entity := entities[rnd.Intn(len(entities))]
	return move.NewChangeMove(s.Variable, entity, values[rnd.Intn(len(values))]), true
}

// SwapMoveSelector swaps the values of two random entities.
type SwapMoveSelector[Sol any, E, V comparable] struct {
	Variable *domain.BasicVariable[E, V]
	Entities func(Sol) []E
}

func (s SwapMoveSelector[Sol, E, V]) Select(solution Sol, rnd *rand.Rand) (move.Move, bool) {
	entities := s.Entities(solution)
	if len(entities) < 2 {
		return nil, false
	}
	left := rnd.Intn(len(entities))
	right := rnd.Intn(len(entities) - 1)
	if right >= left {
		right++
	}
	return move.NewSwapMove(s.Variable, entities[left], entities[right]), true
}

// UnionMoveSelector delegates to a random child selector.
type UnionMoveSelector[Sol any] struct {
	Children []MoveSelector[Sol]
}

func (s UnionMoveSelector[Sol]) Select(solution Sol, rnd *rand.Rand) (move.Move, bool) {
	if len(s.Children) == 0 {
		return nil, false
	}
	first := rnd.Intn(len(s.Children))
	for i := range s.Children {
		if m, ok := s.Children[(first+i)%len(s.Children)].Select(solution, rnd); ok {
			return m, true
		}
	}
	return nil, false
}
