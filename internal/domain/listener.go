// Package domain describes a planning problem to the engine: which entities
// a solution holds, which of their fields are planning variables and how to
// read and write them.
//
// Everything is registered explicitly with typed accessor functions when the
// program starts; the engine never inspects types by reflection.
package domain

// VariableListener is notified around every planning variable mutation.
//
// For each mutation the caller invokes BeforeVariableChanged, performs the
// change, then invokes AfterVariableChanged with the same arguments. Brackets
// for one (variable, entity) pair never nest, and each Before is matched by
// exactly one After before the move completes.
type VariableListener interface {
	BeforeVariableChanged(v VariableDescriptor, entity any)
	AfterVariableChanged(v VariableDescriptor, entity any)
}

// VariableDescriptor identifies one planning variable of one entity type.
type VariableDescriptor interface {
	EntityName() string
	VariableName() string
	// SimpleEntityAndVariableName returns "Entity.variable".
	SimpleEntityAndVariableName() string
	IsList() bool
	// UninitializedContribution is this entity's share of the uninitialized
	// variable count. List variables contribute minus their size; the number
	// of values is added once per solution.
	UninitializedContribution(entity any) int
}

func variableKey(entityName, variableName string) string {
	return entityName + "." + variableName
}
