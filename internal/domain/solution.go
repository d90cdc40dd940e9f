package domain

import (
	"fmt"
	"sort"
)

// Identifiable objects can be looked up across solution clones.
type Identifiable interface {
	PlanningID() any
}

type entityDescriptor[Sol any] struct {
	name     string
	entities func(Sol) []any
}

type listValueRange[Sol any] struct {
	count func(Sol) int
}

// SolutionDescriptor is the accessor registry for one solution type. It is
// filled once at startup and sealed before the first director is built;
// after that it is read-only and may be shared between goroutines.
type SolutionDescriptor[Sol any] struct {
	name         string
	cloner       func(Sol) Sol
	entities     []entityDescriptor[Sol]
	facts        []entityDescriptor[Sol]
	variables    map[string]VariableDescriptor
	order        []string
	listRanges   []listValueRange[Sol]
	listeners    map[string][]VariableListener
	resetShadows func(Sol)
	sealed       bool
}

// NewSolutionDescriptor creates an empty registry. cloner must return a
// planning clone: new entity instances with copied variable values, sharing
// immutable problem facts.
func NewSolutionDescriptor[Sol any](name string, cloner func(Sol) Sol) *SolutionDescriptor[Sol] {
	return &SolutionDescriptor[Sol]{
		name:      name,
		cloner:    cloner,
		variables: make(map[string]VariableDescriptor),
		listeners: make(map[string][]VariableListener),
	}
}

func (sd *SolutionDescriptor[Sol]) Name() string { return sd.name }

func (sd *SolutionDescriptor[Sol]) checkNotSealed() {
	if sd.sealed {
		panic(fmt.Sprintf("solution descriptor %s is sealed", sd.name))
	}
}

// Seal freezes the registry. Registering anything afterwards panics.
func (sd *SolutionDescriptor[Sol]) Seal() { sd.sealed = true }

func (sd *SolutionDescriptor[Sol]) IsSealed() bool { return sd.sealed }

// AddEntity registers an entity collection of the solution.
func AddEntity[Sol any, E any](sd *SolutionDescriptor[Sol], name string, entities func(Sol) []E) {
	sd.checkNotSealed()
	sd.entities = append(sd.entities, entityDescriptor[Sol]{name: name, entities: widen(entities)})
}

// AddProblemFacts registers a collection of problem facts. Facts are never
// changed by moves but take part in working object lookup.
func AddProblemFacts[Sol any, F any](sd *SolutionDescriptor[Sol], name string, facts func(Sol) []F) {
	sd.checkNotSealed()
	sd.facts = append(sd.facts, entityDescriptor[Sol]{name: name, entities: widen(facts)})
}

func widen[Sol any, T any](list func(Sol) []T) func(Sol) []any {
	return func(sol Sol) []any {
		items := list(sol)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out
	}
}

// AddBasicVariable registers a basic planning variable on an already
// registered entity.
func AddBasicVariable[Sol any, E, V comparable](sd *SolutionDescriptor[Sol], entityName, name string,
	get func(E) V, set func(E, V)) *BasicVariable[E, V] {
	v := NewBasicVariable(entityName, name, get, set)
	sd.addVariable(v)
	return v
}

// AddListVariable registers a list planning variable. values returns every
// value that must end up in exactly one entity's list.
func AddListVariable[Sol any, E, V comparable](sd *SolutionDescriptor[Sol], entityName, name string,
	list func(E) *[]V, values func(Sol) []V) *ListVariable[E, V] {
	v := NewListVariable(entityName, name, list)
	sd.addVariable(v)
	sd.listRanges = append(sd.listRanges, listValueRange[Sol]{
		count: func(sol Sol) int { return len(values(sol)) },
	})
	return v
}

func (sd *SolutionDescriptor[Sol]) addVariable(v VariableDescriptor) {
	sd.checkNotSealed()
	if sd.entityDescriptor(v.EntityName()) == nil {
		panic(fmt.Sprintf("variable %s: entity %s is not registered", v.SimpleEntityAndVariableName(), v.EntityName()))
	}
	key := variableKey(v.EntityName(), v.VariableName())
	if _, ok := sd.variables[key]; ok {
		panic(fmt.Sprintf("variable %s is already registered", key))
	}
	sd.variables[key] = v
	sd.order = append(sd.order, key)
}

// AddVariableListener registers a shadow variable listener for v. Listeners
// run inside the notification bracket of every change to v.
func (sd *SolutionDescriptor[Sol]) AddVariableListener(v VariableDescriptor, l VariableListener) {
	sd.checkNotSealed()
	key := variableKey(v.EntityName(), v.VariableName())
	if _, ok := sd.variables[key]; !ok {
		panic(fmt.Sprintf("variable %s is not registered", key))
	}
	sd.listeners[key] = append(sd.listeners[key], l)
}

// SetShadowReset registers a function that clears every shadow variable of a
// solution. RefreshShadowVariables runs it before replaying the listeners, so
// entities no listened variable refers to end up cleared too.
func (sd *SolutionDescriptor[Sol]) SetShadowReset(reset func(Sol)) {
	sd.checkNotSealed()
	sd.resetShadows = reset
}

// RefreshShadowVariables recomputes the shadow variables of sol by
// bracketing every entity of every listened variable once.
func (sd *SolutionDescriptor[Sol]) RefreshShadowVariables(sol Sol) {
	if sd.resetShadows != nil {
		sd.resetShadows(sol)
	}
	for _, key := range sd.order {
		listeners := sd.listeners[key]
		if len(listeners) == 0 {
			continue
		}
		v := sd.variables[key]
		for _, entity := range sd.Entities(sol, v.EntityName()) {
			for _, l := range listeners {
				l.BeforeVariableChanged(v, entity)
			}
			for _, l := range listeners {
				l.AfterVariableChanged(v, entity)
			}
		}
	}
}

// VariableListeners returns the shadow listeners of v in registration order.
func (sd *SolutionDescriptor[Sol]) VariableListeners(v VariableDescriptor) []VariableListener {
	return sd.listeners[variableKey(v.EntityName(), v.VariableName())]
}

func (sd *SolutionDescriptor[Sol]) entityDescriptor(name string) *entityDescriptor[Sol] {
	for i := range sd.entities {
		if sd.entities[i].name == name {
			return &sd.entities[i]
		}
	}
	return nil
}

// Variable returns the variable registered as entityName.variableName.
func (sd *SolutionDescriptor[Sol]) Variable(entityName, variableName string) (VariableDescriptor, bool) {
	v, ok := sd.variables[variableKey(entityName, variableName)]
	return v, ok
}

// Variables returns every registered variable in registration order.
func (sd *SolutionDescriptor[Sol]) Variables() []VariableDescriptor {
	out := make([]VariableDescriptor, len(sd.order))
	for i, key := range sd.order {
		out[i] = sd.variables[key]
	}
	return out
}

// EntityNames returns the registered entity names, sorted.
func (sd *SolutionDescriptor[Sol]) EntityNames() []string {
	names := make([]string, len(sd.entities))
	for i, e := range sd.entities {
		names[i] = e.name
	}
	sort.Strings(names)
	return names
}

// Entities lists every entity of the given type in the solution.
func (sd *SolutionDescriptor[Sol]) Entities(sol Sol, entityName string) []any {
	e := sd.entityDescriptor(entityName)
	if e == nil {
		return nil
	}
	return e.entities(sol)
}

// EntityCount counts entities of every type.
func (sd *SolutionDescriptor[Sol]) EntityCount(sol Sol) int {
	n := 0
	for _, e := range sd.entities {
		n += len(e.entities(sol))
	}
	return n
}

// UninitializedCount counts unassigned basic variables plus list values that
// are not in any entity's list.
func (sd *SolutionDescriptor[Sol]) UninitializedCount(sol Sol) int {
	n := 0
	for _, key := range sd.order {
		v := sd.variables[key]
		for _, entity := range sd.Entities(sol, v.EntityName()) {
			n += v.UninitializedContribution(entity)
		}
	}
	return n + sd.ListValueCount(sol)
}

// ListValueCount is the number of values every list variable must place.
func (sd *SolutionDescriptor[Sol]) ListValueCount(sol Sol) int {
	n := 0
	for _, r := range sd.listRanges {
		n += r.count(sol)
	}
	return n
}

// Clone returns a planning clone of sol.
func (sd *SolutionDescriptor[Sol]) Clone(sol Sol) Sol {
	return sd.cloner(sol)
}

// VisitIdentifiable calls fn for every entity and problem fact that has a
// planning ID.
func (sd *SolutionDescriptor[Sol]) VisitIdentifiable(sol Sol, fn func(Identifiable)) {
	for _, group := range [][]entityDescriptor[Sol]{sd.entities, sd.facts} {
		for _, e := range group {
			for _, obj := range e.entities(sol) {
				if id, ok := obj.(Identifiable); ok {
					fn(id)
				}
			}
		}
	}
}
