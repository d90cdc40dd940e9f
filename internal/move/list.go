package move

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/domain"
)

// ListAssignMove inserts an unassigned value into an entity's list.
type ListAssignMove[E, V comparable] struct {
	variable          *domain.ListVariable[E, V]
	value             V
	destinationEntity E
	destinationIndex  int
}

// NewListAssignMove creates a move that inserts value into the list of
// destinationEntity at destinationIndex.
func NewListAssignMove[E, V comparable](variable *domain.ListVariable[E, V], value V,
	destinationEntity E, destinationIndex int) ListAssignMove[E, V] {
	return ListAssignMove[E, V]{
		variable:          variable,
		value:             value,
		destinationEntity: destinationEntity,
		destinationIndex:  destinationIndex,
	}
}

func (m ListAssignMove[E, V]) Variable() *domain.ListVariable[E, V] { return m.variable }
func (m ListAssignMove[E, V]) Value() V                             { return m.value }
func (m ListAssignMove[E, V]) DestinationEntity() E                 { return m.destinationEntity }
func (m ListAssignMove[E, V]) DestinationIndex() int                { return m.destinationIndex }

func (m ListAssignMove[E, V]) IsMoveDoable(Director) bool { return true }

// CreateUndoMove removes the value again.
func (m ListAssignMove[E, V]) CreateUndoMove(Director) Move {
	return NewListUnassignMove(m.variable, m.destinationEntity, m.destinationIndex)
}

// DoMove inserts the value and notifies the director around the change.
func (m ListAssignMove[E, V]) DoMove(d Director) {
	d.BeforeVariableChanged(m.variable, m.destinationEntity)
	m.variable.AddElement(m.destinationEntity, m.destinationIndex, m.value)
	d.AfterVariableChanged(m.variable, m.destinationEntity)
}

func (m ListAssignMove[E, V]) SimpleMoveTypeDescription() string {
	return "ListAssignMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m ListAssignMove[E, V]) String() string {
	return fmt.Sprintf("%v {null -> %v[%d]}", m.value, m.destinationEntity, m.destinationIndex)
}

// ListUnassignMove removes the value at an index of an entity's list.
type ListUnassignMove[E, V comparable] struct {
	variable     *domain.ListVariable[E, V]
	sourceEntity E
	sourceIndex  int
}

// NewListUnassignMove creates a move that removes the element at sourceIndex.
func NewListUnassignMove[E, V comparable](variable *domain.ListVariable[E, V], sourceEntity E,
	sourceIndex int) ListUnassignMove[E, V] {
	return ListUnassignMove[E, V]{variable: variable, sourceEntity: sourceEntity, sourceIndex: sourceIndex}
}

func (m ListUnassignMove[E, V]) Variable() *domain.ListVariable[E, V] { return m.variable }
func (m ListUnassignMove[E, V]) SourceEntity() E                      { return m.sourceEntity }
func (m ListUnassignMove[E, V]) SourceIndex() int                     { return m.sourceIndex }

func (m ListUnassignMove[E, V]) IsMoveDoable(Director) bool {
	return m.sourceIndex >= 0 && m.sourceIndex < m.variable.Size(m.sourceEntity)
}

// CreateUndoMove reads the value that DoMove will remove.
func (m ListUnassignMove[E, V]) CreateUndoMove(Director) Move {
	value := m.variable.Element(m.sourceEntity, m.sourceIndex)
	return NewListAssignMove(m.variable, value, m.sourceEntity, m.sourceIndex)
}

// DoMove removes the element and notifies the director around the change.
func (m ListUnassignMove[E, V]) DoMove(d Director) {
	d.BeforeVariableChanged(m.variable, m.sourceEntity)
	m.variable.RemoveElement(m.sourceEntity, m.sourceIndex)
	d.AfterVariableChanged(m.variable, m.sourceEntity)
}

func (m ListUnassignMove[E, V]) SimpleMoveTypeDescription() string {
	return "ListUnassignMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m ListUnassignMove[E, V]) String() string {
	return fmt.Sprintf("%s {%v[%d] -> null}", elementText(m.variable, m.sourceEntity, m.sourceIndex),
		m.sourceEntity, m.sourceIndex)
}

// ListChangeMove moves a value from one list position to another, possibly
// in the same entity. The destination index refers to the destination list
// after the value has been removed from its source.
type ListChangeMove[E, V comparable] struct {
	variable          *domain.ListVariable[E, V]
	sourceEntity      E
	sourceIndex       int
	destinationEntity E
	destinationIndex  int
}

// NewListChangeMove creates a move that relocates one element, possibly
// within the same list.
func NewListChangeMove[E, V comparable](variable *domain.ListVariable[E, V], sourceEntity E, sourceIndex int,
	destinationEntity E, destinationIndex int) ListChangeMove[E, V] {
	return ListChangeMove[E, V]{
		variable:          variable,
		sourceEntity:      sourceEntity,
		sourceIndex:       sourceIndex,
		destinationEntity: destinationEntity,
		destinationIndex:  destinationIndex,
	}
}

func (m ListChangeMove[E, V]) Variable() *domain.ListVariable[E, V] { return m.variable }
func (m ListChangeMove[E, V]) SourceEntity() E                      { return m.sourceEntity }
func (m ListChangeMove[E, V]) SourceIndex() int                     { return m.sourceIndex }
func (m ListChangeMove[E, V]) DestinationEntity() E                 { return m.destinationEntity }
func (m ListChangeMove[E, V]) DestinationIndex() int                { return m.destinationIndex }

// IsMoveDoable is false when an index is out of range or the element would
// stay where it is.
func (m ListChangeMove[E, V]) IsMoveDoable(Director) bool {
	sameEntity := m.sourceEntity == m.destinationEntity
	if sameEntity && m.sourceIndex == m.destinationIndex {
		return false
	}
	sourceSize := m.variable.Size(m.sourceEntity)
	if m.sourceIndex < 0 || m.sourceIndex >= sourceSize {
		return false
	}
	destinationSize := m.variable.Size(m.destinationEntity)
	if sameEntity {
		destinationSize--
	}
	return m.destinationIndex >= 0 && m.destinationIndex <= destinationSize
}

func (m ListChangeMove[E, V]) CreateUndoMove(Director) Move {
	return NewListChangeMove(m.variable, m.destinationEntity, m.destinationIndex, m.sourceEntity, m.sourceIndex)
}

// DoMove brackets both lists, or one list when source and destination match.
func (m ListChangeMove[E, V]) DoMove(d Director) {
	if m.sourceEntity == m.destinationEntity {
		d.BeforeVariableChanged(m.variable, m.sourceEntity)
		value := m.variable.RemoveElement(m.sourceEntity, m.sourceIndex)
		m.variable.AddElement(m.destinationEntity, m.destinationIndex, value)
		d.AfterVariableChanged(m.variable, m.sourceEntity)
		return
	}
	d.BeforeVariableChanged(m.variable, m.sourceEntity)
	value := m.variable.RemoveElement(m.sourceEntity, m.sourceIndex)
	d.AfterVariableChanged(m.variable, m.sourceEntity)
	d.BeforeVariableChanged(m.variable, m.destinationEntity)
	m.variable.AddElement(m.destinationEntity, m.destinationIndex, value)
	d.AfterVariableChanged(m.variable, m.destinationEntity)
}

func (m ListChangeMove[E, V]) SimpleMoveTypeDescription() string {
	return "ListChangeMove(" + m.variable.SimpleEntityAndVariableName() + ")"
}

func (m ListChangeMove[E, V]) String() string {
	return fmt.Sprintf("%s {%v[%d] -> %v[%d]}", elementText(m.variable, m.sourceEntity, m.sourceIndex),
		m.sourceEntity, m.sourceIndex, m.destinationEntity, m.destinationIndex)
}

func elementText[E, V comparable](variable *domain.ListVariable[E, V], entity E, index int) string {
	if index < 0 || index >= variable.Size(entity) {
		return "?"
	}
	return fmt.Sprint(variable.Element(entity, index))
}
