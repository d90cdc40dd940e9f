package taskassign

import (
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
)

const constraintPackage = "taskassign"

var (
	NoMissingSkills         = constraint.NewRef(constraintPackage, "No missing skills")
	CriticalPriorityEndTime = constraint.NewRef(constraintPackage, "Critical priority based on the end time")
	MinimizeMakespan        = constraint.NewRef(constraintPackage, "Minimize makespan")
	MajorPriorityEndTime    = constraint.NewRef(constraintPackage, "Major priority end time")
	MinorPriorityEndTime    = constraint.NewRef(constraintPackage, "Minor priority end time")
)

// ScoreDefinition has one hard level and four soft levels: critical task end
// times, makespan, major task end times and minor task end times.
var ScoreDefinition = score.BendableDefinition{HardLevels: 1, SoftLevels: 4}

func softWeight(level int) score.BendableScore {
	soft := make([]int, ScoreDefinition.SoftLevels)
	soft[level] = 1
	return score.OfBendable([]int{0}, soft)
}

func defineConstraints() []constraint.Definition[score.BendableScore] {
	return []constraint.Definition[score.BendableScore]{
		{Ref: NoMissingSkills, Weight: score.OfBendable([]int{1}, []int{0, 0, 0, 0})},
		{Ref: CriticalPriorityEndTime, Weight: softWeight(0)},
		{Ref: MinimizeMakespan, Weight: softWeight(1)},
		{Ref: MajorPriorityEndTime, Weight: softWeight(2)},
		{Ref: MinorPriorityEndTime, Weight: softWeight(3)},
	}
}

var priorityConstraints = map[Priority]constraint.Ref{
	Critical: CriticalPriorityEndTime,
	Major:    MajorPriorityEndTime,
	Minor:    MinorPriorityEndTime,
}

// evaluateEmployee penalizes everything that depends on one employee's task
// list. It reads the shadow variables, so they must be up to date.
func evaluateEmployee(e *Employee, h holder.Holder[score.BendableScore]) ([]holder.Retraction, error) {
	var rs []holder.Retraction
	penalize := func(m holder.Match, amount int) error {
		if amount == 0 {
			return nil
		}
		r, err := h.ImpactScore(m, -amount)
		if err != nil {
			return err
		}
		rs = append(rs, r)
		return nil
	}

	for _, t := range e.Tasks {
		if err := penalize(holder.NewMatch(NoMissingSkills, t), t.MissingSkillCount()); err != nil {
			return rs, err
		}
		if err := penalize(holder.NewMatch(priorityConstraints[t.Priority], t), t.EndTime); err != nil {
			return rs, err
		}
	}
	end := e.EndTime()
	if err := penalize(holder.NewMatch(MinimizeMakespan, e), end*end); err != nil {
		return rs, err
	}
	return rs, nil
}

// ScratchProvider evaluates every employee on each flush.
func ScratchProvider() director.FromScratchProvider[*Schedule, score.BendableScore] {
	return director.FromScratchProvider[*Schedule, score.BendableScore]{
		Constraints: defineConstraints(),
		Evaluate: func(s *Schedule, h holder.Holder[score.BendableScore]) ([]holder.Retraction, error) {
			var rs []holder.Retraction
			for _, e := range s.Employees {
				more, err := evaluateEmployee(e, h)
				rs = append(rs, more...)
				if err != nil {
					return rs, err
				}
			}
			return rs, nil
		},
	}
}

// IncrementalProvider remembers the matches of every employee and on flush
// re-evaluates only the employees whose task list changed.
type IncrementalProvider struct{}

func (IncrementalProvider) DefineConstraints() []constraint.Definition[score.BendableScore] {
	return defineConstraints()
}

func (IncrementalProvider) NewSession(h holder.Holder[score.BendableScore]) director.ConstraintSession[*Schedule] {
	return &session{
		h:       h,
		matches: make(map[*Employee][]holder.Retraction),
		dirty:   make(map[*Employee]struct{}),
	}
}

type session struct {
	h       holder.Holder[score.BendableScore]
	matches map[*Employee][]holder.Retraction
	dirty   map[*Employee]struct{}
}

func (s *session) Insert(sch *Schedule) error {
	for _, e := range sch.Employees {
		s.dirty[e] = struct{}{}
	}
	return s.Flush()
}

func (s *session) BeforeVariableChanged(_ domain.VariableDescriptor, entity any) {
	s.dirty[entity.(*Employee)] = struct{}{}
}

func (s *session) AfterVariableChanged(_ domain.VariableDescriptor, entity any) {
	s.dirty[entity.(*Employee)] = struct{}{}
}

func (s *session) Flush() error {
	for e := range s.dirty {
		for _, r := range s.matches[e] {
			r()
		}
		rs, err := evaluateEmployee(e, s.h)
		s.matches[e] = rs
		if err != nil {
			return err
		}
		delete(s.dirty, e)
	}
	return nil
}

func (s *session) Close() {
	s.matches = nil
	s.dirty = nil
}
