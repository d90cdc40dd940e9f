package move

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/domain"
)

// SwapMove exchanges the values of a basic variable between two entities.
// It is its own undo move.
type SwapMove[E, V comparable] struct {
	variable *domain.BasicVariable[E, V]
	left     E
	right    E
}

// NewSwapMove creates a move that swaps the values of two entities.
func NewSwapMove[E, V comparable](variable *domain.BasicVariable[E, V], left, right E) SwapMove[E, V] {
	return SwapMove[E, V]{variable: variable, left: left, right: right}
}

func (m SwapMove[E, V]) Left() E  { return m.left }
func (m SwapMove[E, V]) Right() E { return m.right }

// IsMoveDoable is false when both entities hold the same value.
func (m SwapMove[E, V]) IsMoveDoable(Director) bool {
	return m.left != m.right && m.variable.Get(m.left) != m.variable.Get(m.right)
}

// CreateUndoMove returns the move itself: a swap undoes itself.
func (m SwapMove[E, V]) CreateUndoMove(Director) Move { return m }

func (m SwapMove[E, V]) DoMove(d Director) {
	leftValue := m.variable.Get(m.left)
	rightValue := m.variable.Get(m.right)
	d.BeforeVariableChanged(m.variable, m.left)
	m.variable.Set(m.left, rightValue)
	d.AfterVariableChanged(m.variable, m.left)
	d.BeforeVariableChanged(m.variable, m.right)
	m.variable.Set(m.right, leftValue)
	d.AfterVariableChanged(m.variable, m.right)
}

func (m SwapMove[E, V]) SimpleMoveTypeDescription() string {
	return "SwapMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m SwapMove[E, V]) String() string {
	return fmt.Sprintf("%v {%v} <-> %v {%v}", m.left, m.variable.Get(m.left), m.right, m.variable.Get(m.right))
}

// ListSwapMove exchanges two list positions, possibly in the same entity.
// It is its own undo move.
type ListSwapMove[E, V comparable] struct {
	variable    *domain.ListVariable[E, V]
	leftEntity  E
	leftIndex   int
	rightEntity E
	rightIndex  int
}

// NewListSwapMove creates a move that swaps two list elements.
func NewListSwapMove[E, V comparable](variable *domain.ListVariable[E, V], leftEntity E, leftIndex int,
	rightEntity E, rightIndex int) ListSwapMove[E, V] {
	return ListSwapMove[E, V]{
		variable:    variable,
		leftEntity:  leftEntity,
		leftIndex:   leftIndex,
		rightEntity: rightEntity,
		rightIndex:  rightIndex,
	}
}

func (m ListSwapMove[E, V]) LeftEntity() E   { return m.leftEntity }
func (m ListSwapMove[E, V]) LeftIndex() int  { return m.leftIndex }
func (m ListSwapMove[E, V]) RightEntity() E  { return m.rightEntity }
func (m ListSwapMove[E, V]) RightIndex() int { return m.rightIndex }

func (m ListSwapMove[E, V]) IsMoveDoable(Director) bool {
	if m.leftEntity == m.rightEntity && m.leftIndex == m.rightIndex {
		return false
	}
	return m.leftIndex >= 0 && m.leftIndex < m.variable.Size(m.leftEntity) &&
		m.rightIndex >= 0 && m.rightIndex < m.variable.Size(m.rightEntity)
}

// CreateUndoMove returns the move itself.
func (m ListSwapMove[E, V]) CreateUndoMove(Director) Move { return m }

func (m ListSwapMove[E, V]) DoMove(d Director) {
	if m.leftEntity == m.rightEntity {
		d.BeforeVariableChanged(m.variable, m.leftEntity)
		m.swap()
		d.AfterVariableChanged(m.variable, m.leftEntity)
		return
	}
	d.BeforeVariableChanged(m.variable, m.leftEntity)
	d.BeforeVariableChanged(m.variable, m.rightEntity)
	m.swap()
	d.AfterVariableChanged(m.variable, m.leftEntity)
	d.AfterVariableChanged(m.variable, m.rightEntity)
}

func (m ListSwapMove[E, V]) swap() {
	right := m.variable.Element(m.rightEntity, m.rightIndex)
	left := m.variable.SetElement(m.leftEntity, m.leftIndex, right)
	m.variable.SetElement(m.rightEntity, m.rightIndex, left)
}

func (m ListSwapMove[E, V]) SimpleMoveTypeDescription() string {
	return "ListSwapMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m ListSwapMove[E, V]) String() string {
	return fmt.Sprintf("%s {%v[%d]} <-> %s {%v[%d]}",
		elementText(m.variable, m.leftEntity, m.leftIndex), m.leftEntity, m.leftIndex,
		elementText(m.variable, m.rightEntity, m.rightIndex), m.rightEntity, m.rightIndex)
}
