package domain

import (
	"fmt"
	"slices"
)

// BasicVariable is a planning variable holding one value. The zero value of V
// means unassigned.
type BasicVariable[E, V comparable] struct {
	entityName string
	name       string
	get        func(E) V
	set        func(E, V)
}

// NewBasicVariable creates a basic variable accessor.
func NewBasicVariable[E, V comparable](entityName, name string, get func(E) V, set func(E, V)) *BasicVariable[E, V] {
	return &BasicVariable[E, V]{entityName: entityName, name: name, get: get, set: set}
}

func (v *BasicVariable[E, V]) EntityName() string   { return v.entityName }
func (v *BasicVariable[E, V]) VariableName() string { return v.name }
func (v *BasicVariable[E, V]) IsList() bool         { return false }

func (v *BasicVariable[E, V]) SimpleEntityAndVariableName() string {
	return variableKey(v.entityName, v.name)
}

func (v *BasicVariable[E, V]) Get(entity E) V           { return v.get(entity) }
func (v *BasicVariable[E, V]) Set(entity E, value V)    { v.set(entity, value) }
func (v *BasicVariable[E, V]) IsAssigned(entity E) bool { return v.get(entity) != *new(V) }

func (v *BasicVariable[E, V]) UninitializedContribution(entity any) int {
	if v.IsAssigned(entity.(E)) {
		return 0
	}
	return 1
}

func (v *BasicVariable[E, V]) String() string { return v.SimpleEntityAndVariableName() }

// ListVariable is a planning variable holding an ordered list of values.
// Each value appears in at most one entity's list.
type ListVariable[E, V comparable] struct {
	entityName string
	name       string
	list       func(E) *[]V
}

// NewListVariable creates a list variable accessor. list must return a pointer
// to the entity's backing slice.
func NewListVariable[E, V comparable](entityName, name string, list func(E) *[]V) *ListVariable[E, V] {
	return &ListVariable[E, V]{entityName: entityName, name: name, list: list}
}

func (v *ListVariable[E, V]) EntityName() string   { return v.entityName }
func (v *ListVariable[E, V]) VariableName() string { return v.name }
func (v *ListVariable[E, V]) IsList() bool         { return true }

func (v *ListVariable[E, V]) SimpleEntityAndVariableName() string {
	return variableKey(v.entityName, v.name)
}

func (v *ListVariable[E, V]) UninitializedContribution(entity any) int {
	return -v.Size(entity.(E))
}

// Elements returns the entity's list. Callers must not modify it.
func (v *ListVariable[E, V]) Elements(entity E) []V { return *v.list(entity) }

func (v *ListVariable[E, V]) Size(entity E) int { return len(*v.list(entity)) }

func (v *ListVariable[E, V]) Element(entity E, index int) V {
	return (*v.list(entity))[index]
}

// AddElement inserts value at index, shifting later elements right.
func (v *ListVariable[E, V]) AddElement(entity E, index int, value V) {
	l := v.list(entity)
	if index < 0 || index > len(*l) {
		panic(fmt.Sprintf("%s: index %d out of range for list of size %d", v, index, len(*l)))
	}
	*l = slices.Insert(*l, index, value)
}

// RemoveElement removes and returns the value at index.
func (v *ListVariable[E, V]) RemoveElement(entity E, index int) V {
	l := v.list(entity)
	if index < 0 || index >= len(*l) {
		panic(fmt.Sprintf("%s: index %d out of range for list of size %d", v, index, len(*l)))
	}
	value := (*l)[index]
	*l = slices.Delete(*l, index, index+1)
	return value
}

// SetElement replaces the value at index and returns the old value.
func (v *ListVariable[E, V]) SetElement(entity E, index int, value V) V {
	l := *v.list(entity)
	if index < 0 || index >= len(l) {
		panic(fmt.Sprintf("%s: index %d out of range for list of size %d", v, index, len(l)))
	}
	old := l[index]
	l[index] = value
	return old
}

// IndexOf returns the position of value in the entity's list, or -1.
func (v *ListVariable[E, V]) IndexOf(entity E, value V) int {
	return slices.Index(*v.list(entity), value)
}

func (v *ListVariable[E, V]) String() string { return v.SimpleEntityAndVariableName() }
