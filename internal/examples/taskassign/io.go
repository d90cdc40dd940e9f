package taskassign

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type scheduleFile struct {
	Score     string         `yaml:"score,omitempty"`
	TaskTypes []taskTypeFile `yaml:"task_types"`
	Customers []customerFile `yaml:"customers"`
	Employees []employeeFile `yaml:"employees"`
	Tasks     []taskFile     `yaml:"tasks"`
}

type taskTypeFile struct {
	ID             int      `yaml:"id"`
	Code           string   `yaml:"code"`
	BaseDuration   int      `yaml:"base_duration"`
	RequiredSkills []string `yaml:"required_skills,omitempty"`
}

type customerFile struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type employeeFile struct {
	ID         int               `yaml:"id"`
	Name       string            `yaml:"name"`
	Skills     []string          `yaml:"skills,omitempty"`
	Affinities map[string]string `yaml:"affinities,omitempty"`
	Tasks      []int             `yaml:"tasks,omitempty"`
}

type taskFile struct {
	ID          int    `yaml:"id"`
	Type        string `yaml:"type"`
	IndexInType int    `yaml:"index_in_type"`
	Customer    string `yaml:"customer"`
	ReadyTime   int    `yaml:"ready_time,omitempty"`
	Priority    string `yaml:"priority"`
}

// MarshalSchedule encodes a schedule as YAML. Customers and task types are
// referenced by name and code, tasks by ID.
func MarshalSchedule(s *Schedule) ([]byte, error) {
	f := scheduleFile{Score: s.Score.String()}
	for _, tt := range s.TaskTypes {
		f.TaskTypes = append(f.TaskTypes, taskTypeFile{
			ID:             tt.ID,
			Code:           tt.Code,
			BaseDuration:   tt.BaseDuration,
			RequiredSkills: tt.RequiredSkills,
		})
	}
	for _, c := range s.Customers {
		f.Customers = append(f.Customers, customerFile{ID: c.ID, Name: c.Name})
	}
	for _, e := range s.Employees {
		ef := employeeFile{ID: e.ID, Name: e.Name, Skills: e.Skills}
		if len(e.Affinities) > 0 {
			ef.Affinities = make(map[string]string, len(e.Affinities))
			for c, a := range e.Affinities {
				ef.Affinities[c.Name] = a.String()
			}
		}
		for _, t := range e.Tasks {
			ef.Tasks = append(ef.Tasks, t.ID)
		}
		f.Employees = append(f.Employees, ef)
	}
	for _, t := range s.Tasks {
		f.Tasks = append(f.Tasks, taskFile{
			ID:          t.ID,
			Type:        t.Type.Code,
			IndexInType: t.IndexInType,
			Customer:    t.Customer.Name,
			ReadyTime:   t.ReadyTime,
			Priority:    t.Priority.String(),
		})
	}
	return yaml.Marshal(f)
}

// UnmarshalSchedule decodes a YAML schedule and recalculates its shadow
// variables. The score is not read back.
func UnmarshalSchedule(data []byte) (*Schedule, error) {
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}

	s := &Schedule{Score: ScoreDefinition.Zero()}
	types := make(map[string]*TaskType, len(f.TaskTypes))
	for _, tf := range f.TaskTypes {
		if _, ok := types[tf.Code]; ok {
			return nil, fmt.Errorf("duplicate task type %q", tf.Code)
		}
		if tf.BaseDuration < 0 {
			return nil, fmt.Errorf("task type %q: negative base duration %d", tf.Code, tf.BaseDuration)
		}
		tt := &TaskType{ID: tf.ID, Code: tf.Code, BaseDuration: tf.BaseDuration, RequiredSkills: tf.RequiredSkills}
		types[tf.Code] = tt
		s.TaskTypes = append(s.TaskTypes, tt)
	}
	customers := make(map[string]*Customer, len(f.Customers))
	for _, cf := range f.Customers {
		if _, ok := customers[cf.Name]; ok {
			return nil, fmt.Errorf("duplicate customer %q", cf.Name)
		}
		c := &Customer{ID: cf.ID, Name: cf.Name}
		customers[cf.Name] = c
		s.Customers = append(s.Customers, c)
	}

	tasks := make(map[int]*Task, len(f.Tasks))
	for _, tf := range f.Tasks {
		if _, ok := tasks[tf.ID]; ok {
			return nil, fmt.Errorf("duplicate task %d", tf.ID)
		}
		tt, ok := types[tf.Type]
		if !ok {
			return nil, fmt.Errorf("task %d: unknown task type %q", tf.ID, tf.Type)
		}
		c, ok := customers[tf.Customer]
		if !ok {
			return nil, fmt.Errorf("task %d: unknown customer %q", tf.ID, tf.Customer)
		}
		p, err := ParsePriority(tf.Priority)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", tf.ID, err)
		}
		t := &Task{ID: tf.ID, Type: tt, IndexInType: tf.IndexInType, Customer: c, ReadyTime: tf.ReadyTime, Priority: p}
		tasks[tf.ID] = t
		s.Tasks = append(s.Tasks, t)
	}

	placed := make(map[int]string)
	for _, ef := range f.Employees {
		e := &Employee{ID: ef.ID, Name: ef.Name, Skills: ef.Skills, Affinities: make(map[*Customer]Affinity)}
		for name, level := range ef.Affinities {
			c, ok := customers[name]
			if !ok {
				return nil, fmt.Errorf("employee %q: unknown customer %q", ef.Name, name)
			}
			a, err := ParseAffinity(level)
			if err != nil {
				return nil, fmt.Errorf("employee %q: %w", ef.Name, err)
			}
			e.Affinities[c] = a
		}
		for _, id := range ef.Tasks {
			t, ok := tasks[id]
			if !ok {
				return nil, fmt.Errorf("employee %q: unknown task %d", ef.Name, id)
			}
			if other, ok := placed[id]; ok {
				return nil, fmt.Errorf("task %d is assigned to both %q and %q", id, other, ef.Name)
			}
			placed[id] = ef.Name
			e.Tasks = append(e.Tasks, t)
		}
		s.Employees = append(s.Employees, e)
	}
	UpdateShadowVariables(s)
	return s, nil
}

// LoadSchedule reads a YAML schedule file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return UnmarshalSchedule(data)
}

// SaveSchedule writes a schedule as YAML.
func SaveSchedule(path string, s *Schedule) error {
	data, err := MarshalSchedule(s)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}
	return nil
}
