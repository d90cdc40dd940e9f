package move

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/domain"
)

// ChangeMove assigns a new value to a basic variable.
type ChangeMove[E, V comparable] struct {
	variable *domain.BasicVariable[E, V]
	entity   E
	toValue  V
}

// NewChangeMove creates a move that sets variable on entity to toValue.
func NewChangeMove[E, V comparable](variable *domain.BasicVariable[E, V], entity E, toValue V) ChangeMove[E, V] {
	return ChangeMove[E, V]{variable: variable, entity: entity, toValue: toValue}
}

func (m ChangeMove[E, V]) Variable() *domain.BasicVariable[E, V] { return m.variable }
func (m ChangeMove[E, V]) Entity() E                             { return m.entity }
func (m ChangeMove[E, V]) ToValue() V                            { return m.toValue }

// IsMoveDoable is false when the entity already holds toValue.
func (m ChangeMove[E, V]) IsMoveDoable(Director) bool {
	return m.variable.Get(m.entity) != m.toValue
}

// CreateUndoMove restores the current value. Call it before DoMove.
func (m ChangeMove[E, V]) CreateUndoMove(Director) Move {
	return NewChangeMove(m.variable, m.entity, m.variable.Get(m.entity))
}

// DoMove sets the value inside a notification bracket.
func (m ChangeMove[E, V]) DoMove(d Director) {
	d.BeforeVariableChanged(m.variable, m.entity)
	m.variable.Set(m.entity, m.toValue)
	d.AfterVariableChanged(m.variable, m.entity)
}

func (m ChangeMove[E, V]) SimpleMoveTypeDescription() string {
	return "ChangeMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m ChangeMove[E, V]) String() string {
	return fmt.Sprintf("%v {%v -> %v}", m.entity, m.variable.Get(m.entity), m.toValue)
}
