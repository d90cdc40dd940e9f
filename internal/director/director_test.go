package director

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type task struct {
	ID       int
	Skill    string
	Duration int
}

func (t *task) PlanningID() any { return t.ID }
func (t *task) String() string  { return fmt.Sprintf("task%d", t.ID) }

type employee struct {
	Name  string
	Skill string
	Tasks []*task
}

func (e *employee) PlanningID() any { return e.Name }
func (e *employee) String() string  { return e.Name }

type schedule struct {
	Employees []*employee
	Tasks     []*task
}

var (
	skillRef    = constraint.NewRef("test", "Required skill")
	workloadRef = constraint.NewRef("test", "Workload")
)

var testConstraints = []constraint.Definition[score.HardSoftScore]{
	{Ref: skillRef, Weight: score.OfHard(1)},
	{Ref: workloadRef, Weight: score.OfSoft(1)},
}

type fixture struct {
	descriptor *domain.SolutionDescriptor[*schedule]
	tasks      *domain.ListVariable[*employee, *task]
}

func newFixture() fixture {
	sd := domain.NewSolutionDescriptor("schedule", cloneSchedule)
	domain.AddEntity(sd, "Employee", func(s *schedule) []*employee { return s.Employees })
	domain.AddProblemFacts(sd, "Task", func(s *schedule) []*task { return s.Tasks })
	tasks := domain.AddListVariable(sd, "Employee", "tasks",
		func(e *employee) *[]*task { return &e.Tasks },
		func(s *schedule) []*task { return s.Tasks })
	return fixture{descriptor: sd, tasks: tasks}
}

func cloneSchedule(s *schedule) *schedule {
	c := &schedule{Tasks: s.Tasks}
	for _, e := range s.Employees {
		c.Employees = append(c.Employees, &employee{Name: e.Name, Skill: e.Skill, Tasks: append([]*task(nil), e.Tasks...)})
	}
	return c
}

// evaluateEmployee impacts the holder for one employee's list.
func evaluateEmployee(e *employee, h holder.Holder[score.HardSoftScore]) ([]holder.Retraction, error) {
	var rs []holder.Retraction
	total := 0
	for _, t := range e.Tasks {
		total += t.Duration
		if t.Skill != e.Skill {
			r, err := h.Penalize(holder.NewMatch(skillRef, t, e))
			if err != nil {
				return rs, err
			}
			rs = append(rs, r)
		}
	}
	if total > 0 {
		r, err := h.ImpactScore(holder.NewMatch(workloadRef, e), -total)
		if err != nil {
			return rs, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func evaluateSchedule(s *schedule, h holder.Holder[score.HardSoftScore]) ([]holder.Retraction, error) {
	var all []holder.Retraction
	for _, e := range s.Employees {
		rs, err := evaluateEmployee(e, h)
		all = append(all, rs...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// incrementalProvider re-evaluates only the employees whose list changed.
// When broken is set it ignores change notifications.
type incrementalProvider struct {
	broken bool
}

func (p incrementalProvider) DefineConstraints() []constraint.Definition[score.HardSoftScore] {
	return testConstraints
}

func (p incrementalProvider) NewSession(h holder.Holder[score.HardSoftScore]) ConstraintSession[*schedule] {
	return &incrementalSession{
		holder:      h,
		broken:      p.broken,
		retractions: make(map[*employee][]holder.Retraction),
		dirty:       make(map[*employee]bool),
	}
}

type incrementalSession struct {
	holder      holder.Holder[score.HardSoftScore]
	broken      bool
	retractions map[*employee][]holder.Retraction
	dirty       map[*employee]bool
	closed      bool
}

func (s *incrementalSession) Insert(sol *schedule) error {
	for _, e := range sol.Employees {
		s.dirty[e] = true
	}
	return s.Flush()
}

func (s *incrementalSession) BeforeVariableChanged(_ domain.VariableDescriptor, entity any) {
	if s.broken {
		return
	}
	e := entity.(*employee)
	for _, r := range s.retractions[e] {
		r()
	}
	delete(s.retractions, e)
}

func (s *incrementalSession) AfterVariableChanged(_ domain.VariableDescriptor, entity any) {
	if s.broken {
		return
	}
	s.dirty[entity.(*employee)] = true
}

func (s *incrementalSession) Flush() error {
	for e := range s.dirty {
		rs, err := evaluateEmployee(e, s.holder)
		s.retractions[e] = rs
		if err != nil {
			return err
		}
		delete(s.dirty, e)
	}
	return nil
}

func (s *incrementalSession) Close() { s.closed = true }

func newSchedule() (*schedule, *employee, *employee, []*task) {
	tasks := []*task{
		{ID: 1, Skill: "java", Duration: 2},
		{ID: 2, Skill: "go", Duration: 3},
		{ID: 3, Skill: "go", Duration: 5},
	}
	ann := &employee{Name: "Ann", Skill: "go", Tasks: []*task{tasks[1]}}
	beth := &employee{Name: "Beth", Skill: "java"}
	return &schedule{Employees: []*employee{ann, beth}, Tasks: tasks}, ann, beth, tasks
}

func newFactory(t *testing.T, f fixture, p ConstraintProvider[*schedule, score.HardSoftScore], opts ...FactoryOption) *Factory[*schedule, score.HardSoftScore] {
	t.Helper()
	factory, err := NewFactory[*schedule, score.HardSoftScore](f.descriptor, score.HardSoftDefinition{}, p, opts...)
	require.NoError(t, err)
	return factory
}

func TestDirector_CalculateScore(t *testing.T) {
	f := newFixture()
	for name, p := range map[string]ConstraintProvider[*schedule, score.HardSoftScore]{
		"incremental":  incrementalProvider{},
		"from scratch": FromScratchProvider[*schedule, score.HardSoftScore]{Constraints: testConstraints, Evaluate: evaluateSchedule},
	} {
		t.Run(name, func(t *testing.T) {
			sol, ann, beth, tasks := newSchedule()
			d := newFactory(t, f, p).BuildDirector(false, false)
			defer d.Close()
			require.NoError(t, d.SetWorkingSolution(sol))

			s, err := d.CalculateScore()
			require.NoError(t, err)
			assert.Equal(t, "-2init/0hard/-3soft", s.String())

			d.DoMove(move.NewListAssignMove(f.tasks, tasks[0], ann, 1))
			s, err = d.CalculateScore()
			require.NoError(t, err)
			assert.Equal(t, "-1init/-1hard/-5soft", s.String())

			undo := d.DoMove(move.NewListChangeMove(f.tasks, ann, 1, beth, 0))
			s, err = d.CalculateScore()
			require.NoError(t, err)
			assert.Equal(t, "-1init/0hard/-5soft", s.String())

			d.DoMove(undo)
			s, err = d.CalculateScore()
			require.NoError(t, err)
			assert.Equal(t, "-1init/-1hard/-5soft", s.String())
			assert.Equal(t, int64(4), d.CalculationCount())
			require.NoError(t, d.AssertWorkingScoreFromScratch(s, "test"))
		})
	}
}

func TestDirector_DoAndEvaluate(t *testing.T) {
	f := newFixture()
	sol, ann, _, tasks := newSchedule()
	d := newFactory(t, f, incrementalProvider{}, WithAssertionMode(FullAssert)).BuildDirector(false, false)
	defer d.Close()
	require.NoError(t, d.SetWorkingSolution(sol))

	s, err := d.DoAndEvaluate(move.NewListAssignMove(f.tasks, tasks[2], ann, 0))
	require.NoError(t, err)
	assert.Equal(t, "-1init/0hard/-8soft", s.String())
	assert.Equal(t, []*task{tasks[1]}, ann.Tasks)

	s, err = d.CalculateScore()
	require.NoError(t, err)
	assert.Equal(t, "-2init/0hard/-3soft", s.String())
}

func TestDirector_ConstraintMatches(t *testing.T) {
	f := newFixture()
	factory := newFactory(t, f, incrementalProvider{})

	t.Run("requires tracking", func(t *testing.T) {
		sol, _, _, _ := newSchedule()
		d := factory.BuildDirector(false, false)
		defer d.Close()
		require.NoError(t, d.SetWorkingSolution(sol))
		_, err := d.ConstraintMatchTotals()
		assert.True(t, errors.Is(err, score.ErrState))
		_, err = d.Indictments()
		assert.True(t, errors.Is(err, score.ErrState))
	})

	t.Run("tracked", func(t *testing.T) {
		sol, ann, _, tasks := newSchedule()
		d := factory.BuildDirector(false, true)
		defer d.Close()
		require.NoError(t, d.SetWorkingSolution(sol))
		d.DoMove(move.NewListAssignMove(f.tasks, tasks[0], ann, 0))

		totals, err := d.ConstraintMatchTotals()
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, score.OfHard(-1), totals[skillRef.ID()].Score())
		assert.Equal(t, score.OfSoft(-5), totals[workloadRef.ID()].Score())

		indictments, err := d.Indictments()
		require.NoError(t, err)
		assert.Equal(t, score.OfHardSoft(-1, -5), indictments[ann].Score())
		assert.Equal(t, score.OfHard(-1), indictments[tasks[0]].Score())
		_, ok := indictments[tasks[1]]
		assert.False(t, ok)
	})
}

func TestDirector_Lifecycle(t *testing.T) {
	f := newFixture()
	factory := newFactory(t, f, incrementalProvider{})
	d := factory.BuildDirector(false, false)

	_, err := d.CalculateScore()
	assert.True(t, errors.Is(err, score.ErrState))

	sol, _, _, _ := newSchedule()
	require.NoError(t, d.SetWorkingSolution(sol))
	first := d.session.(*incrementalSession)
	require.NoError(t, d.SetWorkingSolution(sol))
	assert.True(t, first.closed, "replacing the working solution closes the old session")

	d.Close()
	d.Close()
	_, err = d.CalculateScore()
	assert.True(t, errors.Is(err, score.ErrState))
	assert.True(t, errors.Is(d.SetWorkingSolution(sol), score.ErrState))
}

func TestDirector_BracketChecks(t *testing.T) {
	f := newFixture()
	sol, ann, _, _ := newSchedule()

	d := newFactory(t, f, incrementalProvider{}, WithAssertionMode(FastAssert)).BuildDirector(false, false)
	defer d.Close()
	require.NoError(t, d.SetWorkingSolution(sol))

	d.BeforeVariableChanged(f.tasks, ann)
	assert.Panics(t, func() { d.BeforeVariableChanged(f.tasks, ann) })
	d.AfterVariableChanged(f.tasks, ann)
	assert.Panics(t, func() { d.AfterVariableChanged(f.tasks, ann) })
}

func TestDirector_DetectsCorruption(t *testing.T) {
	f := newFixture()
	sol, ann, _, tasks := newSchedule()
	d := newFactory(t, f, incrementalProvider{broken: true}).BuildDirector(false, true)
	defer d.Close()
	require.NoError(t, d.SetWorkingSolution(sol))

	d.DoMove(move.NewListAssignMove(f.tasks, tasks[0], ann, 0))
	s, err := d.CalculateScore()
	require.NoError(t, err)

	err = d.AssertWorkingScoreFromScratch(s, "after assign")
	require.Error(t, err)
	assert.True(t, errors.Is(err, score.ErrCorruption))
	assert.Contains(t, err.Error(), "Working: -1init/0hard/-3soft, uncorrupted: -1init/-1hard/-5soft")
	assert.Contains(t, err.Error(), "Required skill")
}

func TestDirector_UndoCorruption(t *testing.T) {
	f := newFixture()
	sol, ann, _, tasks := newSchedule()
	d := newFactory(t, f, incrementalProvider{}).BuildDirector(false, false)
	defer d.Close()
	require.NoError(t, d.SetWorkingSolution(sol))
	before, err := d.CalculateScore()
	require.NoError(t, err)

	m := move.NewListAssignMove(f.tasks, tasks[0], ann, 0)
	d.DoMove(m)
	err = d.AssertExpectedUndoMoveScore(m, before)
	assert.True(t, errors.Is(err, score.ErrCorruption))
}

func TestFactory_ConstraintWeights(t *testing.T) {
	t.Run("typed override", func(t *testing.T) {
		f := newFixture()
		factory := newFactory(t, f, incrementalProvider{},
			WithConstraintWeights(map[string]score.HardSoftScore{"Workload": score.OfSoft(0)}))
		sol, _, _, _ := newSchedule()
		d := factory.BuildDirector(false, false)
		defer d.Close()
		require.NoError(t, d.SetWorkingSolution(sol))
		s, err := d.CalculateScore()
		require.NoError(t, err)
		assert.Equal(t, "-2init/0hard/0soft", s.String())
	})

	t.Run("text override by id", func(t *testing.T) {
		f := newFixture()
		factory := newFactory(t, f, incrementalProvider{},
			WithConstraintWeightTexts(map[string]string{"test/Workload": "0hard/10soft"}))
		assert.Equal(t, score.OfSoft(10), factory.ConstraintWeights()[1].Weight)
		assert.True(t, f.descriptor.IsSealed())
	})

	t.Run("unknown constraint", func(t *testing.T) {
		f := newFixture()
		_, err := NewFactory[*schedule, score.HardSoftScore](f.descriptor, score.HardSoftDefinition{}, incrementalProvider{},
			WithConstraintWeightTexts(map[string]string{"Nope": "0hard/1soft"}))
		assert.True(t, errors.Is(err, score.ErrConfiguration))
	})

	t.Run("bad weight text", func(t *testing.T) {
		f := newFixture()
		_, err := NewFactory[*schedule, score.HardSoftScore](f.descriptor, score.HardSoftDefinition{}, incrementalProvider{},
			WithConstraintWeightTexts(map[string]string{"Workload": "soft"}))
		assert.True(t, errors.Is(err, score.ErrConfiguration))
	})

	t.Run("wrong score type", func(t *testing.T) {
		f := newFixture()
		_, err := NewFactory[*schedule, score.HardSoftScore](f.descriptor, score.HardSoftDefinition{}, incrementalProvider{},
			WithConstraintWeights(map[string]score.SimpleScore{"Workload": score.OfSimple(1)}))
		assert.True(t, errors.Is(err, score.ErrConfiguration))
	})
}

func TestDirector_LookUpWorkingObject(t *testing.T) {
	f := newFixture()
	factory := newFactory(t, f, incrementalProvider{})
	sol, ann, _, tasks := newSchedule()
	clone := cloneSchedule(sol)

	d := factory.BuildDirector(true, false)
	defer d.Close()
	require.NoError(t, d.SetWorkingSolution(sol))

	working, err := LookUp(d, clone.Employees[0])
	require.NoError(t, err)
	assert.Same(t, ann, working)

	foundTask, err := LookUp(d, &task{ID: 3})
	require.NoError(t, err)
	assert.Same(t, tasks[2], foundTask)

	_, err = d.LookUpWorkingObject(&task{ID: 99})
	assert.Error(t, err)

	plain := factory.BuildDirector(false, false)
	defer plain.Close()
	require.NoError(t, plain.SetWorkingSolution(sol))
	_, err = plain.LookUpWorkingObject(ann)
	assert.True(t, errors.Is(err, score.ErrState))
}

func TestParseAssertionMode(t *testing.T) {
	for text, want := range map[string]AssertionMode{
		"":             Reproducible,
		"reproducible": Reproducible,
		"FAST_ASSERT":  FastAssert,
		"full_assert":  FullAssert,
	} {
		got, err := ParseAssertionMode(text)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAssertionMode("paranoid")
	assert.Error(t, err)
}
