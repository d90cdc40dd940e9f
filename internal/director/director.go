package director

import (
	"fmt"
	"reflect"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
)

type bracketKey struct {
	variable string
	entity   any
}

type lookUpKey struct {
	typ reflect.Type
	id  any
}

// Director holds a working solution and calculates its score incrementally.
// It is not safe for concurrent use.
type Director[Sol any, S score.Score[S]] struct {
	factory                *Factory[Sol, S]
	lookUpEnabled          bool
	constraintMatchEnabled bool
	checkBrackets          bool

	solution         Sol
	hasSolution      bool
	holder           holder.Holder[S]
	session          ConstraintSession[Sol]
	uninitialized    int
	calculationCount int64
	lookUp           map[lookUpKey]any
	open             map[bracketKey]struct{}
	closed           bool
}

var _ move.Director = (*Director[any, score.SimpleScore])(nil)

func (d *Director[Sol, S]) checkOpen() error {
	if d.closed {
		return &score.StateError{Reason: "the score director is closed"}
	}
	return nil
}

func (d *Director[Sol, S]) checkWorking() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if !d.hasSolution {
		return &score.StateError{Reason: "no working solution has been set"}
	}
	return nil
}

// SetWorkingSolution replaces the working solution, recomputes its shadow
// variables and evaluates it from scratch with a fresh holder and session.
func (d *Director[Sol, S]) SetWorkingSolution(solution Sol) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if d.session != nil {
		d.session.Close()
		d.session = nil
	}

	h, err := holder.New(d.factory.definition, d.constraintMatchEnabled)
	if err != nil {
		return err
	}
	for _, w := range d.factory.weights {
		h.ConfigureConstraintWeight(w.Ref, w.Weight)
	}
	d.holder = h
	d.solution = solution
	d.hasSolution = true
	d.factory.descriptor.RefreshShadowVariables(solution)
	d.uninitialized = d.factory.descriptor.UninitializedCount(solution)
	d.open = nil
	if d.checkBrackets {
		d.open = make(map[bracketKey]struct{})
	}
	if d.lookUpEnabled {
		d.indexWorkingObjects()
	}

	d.session = d.factory.provider.NewSession(h)
	if err := d.session.Insert(solution); err != nil {
		return fmt.Errorf("insert working solution: %w", err)
	}
	return nil
}

// WorkingSolution returns the solution moves are applied to.
func (d *Director[Sol, S]) WorkingSolution() Sol { return d.solution }

func (d *Director[Sol, S]) Factory() *Factory[Sol, S] { return d.factory }

// CalculateScore flushes pending changes and extracts the score.
func (d *Director[Sol, S]) CalculateScore() (S, error) {
	var zero S
	if err := d.checkWorking(); err != nil {
		return zero, err
	}
	if err := d.session.Flush(); err != nil {
		return zero, fmt.Errorf("flush constraint session: %w", err)
	}
	d.calculationCount++
	return d.holder.ExtractScore(-d.uninitialized), nil
}

// CalculationCount is the number of CalculateScore calls since the director was built.
func (d *Director[Sol, S]) CalculationCount() int64 { return d.calculationCount }

// ResetCalculationCount returns the count and starts a new one.
func (d *Director[Sol, S]) ResetCalculationCount() int64 {
	n := d.calculationCount
	d.calculationCount = 0
	return n
}

func (d *Director[Sol, S]) IsConstraintMatchEnabled() bool { return d.constraintMatchEnabled }
func (d *Director[Sol, S]) IsLookUpEnabled() bool          { return d.lookUpEnabled }

// ConstraintMatchTotals returns the totals of the current working solution.
func (d *Director[Sol, S]) ConstraintMatchTotals() (map[string]*constraint.MatchTotal[S], error) {
	if err := d.checkWorking(); err != nil {
		return nil, err
	}
	if err := d.session.Flush(); err != nil {
		return nil, fmt.Errorf("flush constraint session: %w", err)
	}
	return d.holder.ConstraintMatchTotals()
}

// Indictments returns the indictments of the current working solution.
func (d *Director[Sol, S]) Indictments() (map[any]*constraint.Indictment[S], error) {
	if err := d.checkWorking(); err != nil {
		return nil, err
	}
	if err := d.session.Flush(); err != nil {
		return nil, fmt.Errorf("flush constraint session: %w", err)
	}
	return d.holder.Indictments()
}

func (d *Director[Sol, S]) mustHaveSession() {
	if d.session == nil {
		panic("variable change notified to a score director without a working solution")
	}
}

func (d *Director[Sol, S]) BeforeVariableChanged(v domain.VariableDescriptor, entity any) {
	d.mustHaveSession()
	if d.checkBrackets {
		key := bracketKey{variable: v.SimpleEntityAndVariableName(), entity: entity}
		if _, ok := d.open[key]; ok {
			panic(fmt.Sprintf("beforeVariableChanged called twice for variable %s on entity %v without afterVariableChanged",
				key.variable, entity))
		}
		d.open[key] = struct{}{}
	}
	d.uninitialized -= v.UninitializedContribution(entity)
	d.session.BeforeVariableChanged(v, entity)
	for _, l := range d.factory.descriptor.VariableListeners(v) {
		l.BeforeVariableChanged(v, entity)
	}
}

func (d *Director[Sol, S]) AfterVariableChanged(v domain.VariableDescriptor, entity any) {
	d.mustHaveSession()
	if d.checkBrackets {
		key := bracketKey{variable: v.SimpleEntityAndVariableName(), entity: entity}
		if _, ok := d.open[key]; !ok {
			panic(fmt.Sprintf("afterVariableChanged called for variable %s on entity %v without beforeVariableChanged",
				key.variable, entity))
		}
		delete(d.open, key)
	}
	for _, l := range d.factory.descriptor.VariableListeners(v) {
		l.AfterVariableChanged(v, entity)
	}
	d.uninitialized += v.UninitializedContribution(entity)
	d.session.AfterVariableChanged(v, entity)
}

// DoMove does m on the working solution and returns its undo move.
func (d *Director[Sol, S]) DoMove(m move.Move) move.Move {
	undo := m.CreateUndoMove(d)
	m.DoMove(d)
	if d.checkBrackets && len(d.open) > 0 {
		panic(fmt.Sprintf("move %s left %d variable notification(s) open", m, len(d.open)))
	}
	return undo
}

// DoAndEvaluate does m, calculates the resulting score and undoes m again.
// In full assert mode both the move's score and the restored score are
// checked from scratch.
func (d *Director[Sol, S]) DoAndEvaluate(m move.Move) (S, error) {
	var before, zero S
	if d.factory.mode == FullAssert {
		s, err := d.CalculateScore()
		if err != nil {
			return zero, err
		}
		before = s
	}
	undo := d.DoMove(m)
	s, err := d.CalculateScore()
	if err != nil {
		return zero, err
	}
	if d.factory.mode == FullAssert {
		if err := d.AssertWorkingScoreFromScratch(s, "after move "+m.String()); err != nil {
			return zero, err
		}
	}
	d.DoMove(undo)
	if d.factory.mode == FullAssert {
		if err := d.AssertExpectedUndoMoveScore(m, before); err != nil {
			return zero, err
		}
	}
	return s, nil
}

func (d *Director[Sol, S]) indexWorkingObjects() {
	d.lookUp = make(map[lookUpKey]any)
	d.factory.descriptor.VisitIdentifiable(d.solution, func(obj domain.Identifiable) {
		d.lookUp[lookUpKey{typ: reflect.TypeOf(obj), id: obj.PlanningID()}] = obj
	})
}

// LookUpWorkingObject translates an object of another solution instance (for
// example a clone or a deserialized copy) to the working solution's instance
// with the same planning ID. A nil object yields nil.
func (d *Director[Sol, S]) LookUpWorkingObject(external any) (any, error) {
	if err := d.checkWorking(); err != nil {
		return nil, err
	}
	if !d.lookUpEnabled {
		return nil, &score.StateError{Capability: "lookUpEnabled",
			Reason: "working object lookup was requested from a director built without lookUpEnabled (false)"}
	}
	if external == nil {
		return nil, nil
	}
	obj, ok := external.(domain.Identifiable)
	if !ok {
		return nil, &score.ConfigurationError{Reason: fmt.Sprintf("object %v of type %T has no planning ID", external, external)}
	}
	working, ok := d.lookUp[lookUpKey{typ: reflect.TypeOf(external), id: obj.PlanningID()}]
	if !ok {
		return nil, fmt.Errorf("no working object for %v (%T) with planning ID %v", external, external, obj.PlanningID())
	}
	return working, nil
}

// LookUp is the typed form of Director.LookUpWorkingObject.
func LookUp[T any, Sol any, S score.Score[S]](d *Director[Sol, S], external T) (T, error) {
	var zero T
	working, err := d.LookUpWorkingObject(external)
	if err != nil || working == nil {
		return zero, err
	}
	return working.(T), nil
}

// Close releases the session. It is safe to call more than once.
func (d *Director[Sol, S]) Close() {
	if d.closed {
		return
	}
	d.closed = true
	if d.session != nil {
		d.session.Close()
		d.session = nil
	}
	d.holder = nil
	d.lookUp = nil
	d.open = nil
}
