// Package move defines the reversible mutations local search applies to a
// working solution.
//
// A move reads state in IsMoveDoable and CreateUndoMove and writes state only
// in DoMove, where every write is wrapped in a Before/After notification to
// the director. Undo moves are created before the move is done so they can
// capture the values they must restore.
//
// Moves in this package are comparable values: equal moves compare == and can
// be used as map keys.
package move

import (
	"strings"

	"github.com/MarcyGO/optaplanner/internal/domain"
)

// Director is the part of a score director moves talk to.
type Director interface {
	domain.VariableListener
}

// Move is a change that can be done, undone and evaluated.
type Move interface {
	// IsMoveDoable reports whether doing the move would change the solution.
	// It must not change any state.
	IsMoveDoable(d Director) bool
	// CreateUndoMove is called before DoMove.
	CreateUndoMove(d Director) Move
	DoMove(d Director)
	// SimpleMoveTypeDescription is the move kind plus its variable, e.g.
	// "ListChangeMove(Employee.tasks)".
	SimpleMoveTypeDescription() string
	String() string
}

// CompositeMove does several moves in sequence. The children must change
// disjoint variables, because their undo moves are all created up front.
type CompositeMove struct {
	moves []Move
}

// NewCompositeMove returns a pointer so that composites compare by identity.
func NewCompositeMove(moves ...Move) *CompositeMove {
	return &CompositeMove{moves: moves}
}

func (c *CompositeMove) Moves() []Move { return c.moves }

// IsMoveDoable is true when any of the moves is doable.
func (c *CompositeMove) IsMoveDoable(d Director) bool {
	for _, m := range c.moves {
		if m.IsMoveDoable(d) {
			return true
		}
	}
	return false
}

// CreateUndoMove undoes the moves in reverse order.
func (c *CompositeMove) CreateUndoMove(d Director) Move {
	undos := make([]Move, len(c.moves))
	for i, m := range c.moves {
		undos[len(c.moves)-1-i] = m.CreateUndoMove(d)
	}
	return NewCompositeMove(undos...)
}

func (c *CompositeMove) DoMove(d Director) {
	for _, m := range c.moves {
		m.DoMove(d)
	}
}

func (c *CompositeMove) SimpleMoveTypeDescription() string {
	descriptions := make([]string, len(c.moves))
	for i, m := range c.moves {
		descriptions[i] = m.SimpleMoveTypeDescription()
	}
	return "CompositeMove(" + strings.Join(descriptions, "+") + ")"
}

func (c *CompositeMove) String() string {
	parts := make([]string, len(c.moves))
	for i, m := range c.moves {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
