// Package taskassign assigns tasks to employees. Every employee works through
// an ordered list of tasks; the list is the planning variable and each task's
// employee, index, start time and end time are shadow variables derived from
// it.
package taskassign

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// Priority orders how urgent a task is.
type Priority int

const (
	Minor Priority = iota
	Major
	Critical
)

var priorityNames = []string{"minor", "major", "critical"}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

func ParsePriority(text string) (Priority, error) {
	i := slices.Index(priorityNames, strings.ToLower(text))
	if i < 0 {
		return Minor, fmt.Errorf("unknown priority %q", text)
	}
	return Priority(i), nil
}

// Affinity is how well an employee knows a customer. Better affinity makes
// tasks for that customer faster.
type Affinity int

const (
	NoAffinity Affinity = iota
	LowAffinity
	MediumAffinity
	HighAffinity
)

var affinityNames = []string{"none", "low", "medium", "high"}

func (a Affinity) String() string {
	if a < 0 || int(a) >= len(affinityNames) {
		return fmt.Sprintf("Affinity(%d)", int(a))
	}
	return affinityNames[a]
}

func ParseAffinity(text string) (Affinity, error) {
	i := slices.Index(affinityNames, strings.ToLower(text))
	if i < 0 {
		return NoAffinity, fmt.Errorf("unknown affinity %q", text)
	}
	return Affinity(i), nil
}

// DurationMultiplier is 4 for no affinity down to 1 for high affinity.
func (a Affinity) DurationMultiplier() int { return 4 - int(a) }

type Customer struct {
	ID   int
	Name string
}

func (c *Customer) PlanningID() any { return c.ID }
func (c *Customer) String() string  { return c.Name }

// TaskType holds what all tasks of one kind share.
type TaskType struct {
	ID             int
	Code           string
	BaseDuration   int
	RequiredSkills []string
}

func (tt *TaskType) PlanningID() any { return tt.ID }
func (tt *TaskType) String() string  { return tt.Code }

// Task is a planning value of the Employee.tasks list variable.
type Task struct {
	ID          int
	Type        *TaskType
	IndexInType int
	Customer    *Customer
	ReadyTime   int
	Priority    Priority

	// Shadow variables, valid while Employee is not nil.
	Employee  *Employee
	Index     int
	StartTime int
	EndTime   int
}

func (t *Task) PlanningID() any { return t.ID }

func (t *Task) Code() string { return fmt.Sprintf("%s-%d", t.Type.Code, t.IndexInType) }

func (t *Task) String() string { return t.Code() }

// Duration is the base duration of the task type scaled by the assigned
// employee's affinity with the customer.
func (t *Task) Duration() int {
	if t.Employee == nil {
		return t.Type.BaseDuration
	}
	return t.Type.BaseDuration * t.Employee.Affinity(t.Customer).DurationMultiplier()
}

// MissingSkillCount counts the required skills the assigned employee lacks.
func (t *Task) MissingSkillCount() int {
	if t.Employee == nil {
		return 0
	}
	n := 0
	for _, skill := range t.Type.RequiredSkills {
		if !t.Employee.HasSkill(skill) {
			n++
		}
	}
	return n
}

// Employee is the planning entity.
type Employee struct {
	ID         int
	Name       string
	Skills     []string
	Affinities map[*Customer]Affinity
	Tasks      []*Task
}

func (e *Employee) PlanningID() any { return e.ID }
func (e *Employee) String() string  { return e.Name }

func (e *Employee) HasSkill(skill string) bool { return slices.Contains(e.Skills, skill) }

func (e *Employee) Affinity(c *Customer) Affinity { return e.Affinities[c] }

// EndTime is the end time of the last task, or 0 without tasks.
func (e *Employee) EndTime() int {
	if len(e.Tasks) == 0 {
		return 0
	}
	return e.Tasks[len(e.Tasks)-1].EndTime
}

// Schedule is the planning solution.
type Schedule struct {
	TaskTypes []*TaskType
	Customers []*Customer
	Employees []*Employee
	Tasks     []*Task
	Score     score.BendableScore
}

func (s *Schedule) SetScore(sc score.BendableScore) { s.Score = sc }

func Employees(s *Schedule) []*Employee { return s.Employees }
func Tasks(s *Schedule) []*Task         { return s.Tasks }

// Domain bundles the descriptor and the tasks variable of a schedule.
type Domain struct {
	Descriptor *domain.SolutionDescriptor[*Schedule]
	TasksVar   *domain.ListVariable[*Employee, *Task]
}

// NewDomain registers the schedule's entities, facts, list variable and
// shadow variable listener.
func NewDomain() Domain {
	sd := domain.NewSolutionDescriptor("TaskAssigning", CloneSchedule)
	domain.AddEntity(sd, "Employee", Employees)
	domain.AddProblemFacts(sd, "Task", Tasks)
	domain.AddProblemFacts(sd, "TaskType", func(s *Schedule) []*TaskType { return s.TaskTypes })
	domain.AddProblemFacts(sd, "Customer", func(s *Schedule) []*Customer { return s.Customers })
	tasksVar := domain.AddListVariable(sd, "Employee", "tasks",
		func(e *Employee) *[]*Task { return &e.Tasks },
		Tasks)
	sd.AddVariableListener(tasksVar, shadowListener{})
	sd.SetShadowReset(clearTaskShadows)
	return Domain{Descriptor: sd, TasksVar: tasksVar}
}

// CloneSchedule copies employees and tasks and shares task types and customers.
func CloneSchedule(s *Schedule) *Schedule {
	c := &Schedule{TaskTypes: s.TaskTypes, Customers: s.Customers, Score: s.Score}
	tasks := make(map[*Task]*Task, len(s.Tasks))
	c.Tasks = make([]*Task, len(s.Tasks))
	for i, t := range s.Tasks {
		clone := *t
		c.Tasks[i] = &clone
		tasks[t] = &clone
	}
	c.Employees = make([]*Employee, len(s.Employees))
	for i, e := range s.Employees {
		clone := &Employee{ID: e.ID, Name: e.Name, Skills: e.Skills, Affinities: e.Affinities}
		clone.Tasks = make([]*Task, len(e.Tasks))
		for j, t := range e.Tasks {
			clone.Tasks[j] = tasks[t]
			tasks[t].Employee = clone
		}
		c.Employees[i] = clone
	}
	return c
}

// shadowListener keeps each task's employee, index and times in line with
// the employee lists. Before a change it clears the shadows of every task in
// the list, after it sets them again for the tasks still there, so a task
// that left the list ends up unassigned unless another list takes it.
type shadowListener struct{}

func (shadowListener) BeforeVariableChanged(_ domain.VariableDescriptor, entity any) {
	for _, t := range entity.(*Employee).Tasks {
		clearShadows(t)
	}
}

func (shadowListener) AfterVariableChanged(_ domain.VariableDescriptor, entity any) {
	updateEmployeeShadows(entity.(*Employee))
}

func clearShadows(t *Task) {
	t.Employee = nil
	t.Index = -1
	t.StartTime = 0
	t.EndTime = 0
}

func updateEmployeeShadows(e *Employee) {
	previousEnd := 0
	for i, t := range e.Tasks {
		t.Employee = e
		t.Index = i
		t.StartTime = max(previousEnd, t.ReadyTime)
		t.EndTime = t.StartTime + t.Duration()
		previousEnd = t.EndTime
	}
}

func clearTaskShadows(s *Schedule) {
	for _, t := range s.Tasks {
		clearShadows(t)
	}
}

// UpdateShadowVariables recalculates every shadow variable from the lists.
func UpdateShadowVariables(s *Schedule) {
	clearTaskShadows(s)
	for _, e := range s.Employees {
		updateEmployeeShadows(e)
	}
}
