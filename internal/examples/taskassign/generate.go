package taskassign

import (
	"fmt"
	"math/rand"
)

var (
	skillNames    = []string{"Problem Solving", "Team Building", "Business Storytelling", "Risk Management", "Creative Thinking", "Strategic Planning", "Negotiation", "Data Analysis"}
	firstNames    = []string{"Amy", "Beth", "Chad", "Dan", "Elsa", "Flo", "Gus", "Hugo", "Ivy", "Jay"}
	lastNames     = []string{"Cole", "Fox", "Green", "Jones", "King", "Li", "Poe", "Rye", "Smith", "Watt"}
	customerNames = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Vandelay", "Stark", "Wayne"}
)

// GenerateOptions sizes a generated dataset.
type GenerateOptions struct {
	Tasks     int
	Employees int
	TaskTypes int
	Customers int
}

// DefaultGenerateOptions is the 50 tasks and 5 employees dataset.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{Tasks: 50, Employees: 5, TaskTypes: 10, Customers: 4}
}

// Generate builds an unassigned schedule. The same seed gives the same
// schedule.
func Generate(seed int64, opts GenerateOptions) (*Schedule, error) {
	if opts.Tasks < 0 || opts.Employees <= 0 || opts.TaskTypes <= 0 || opts.Customers <= 0 {
		return nil, fmt.Errorf("invalid generate options: %+v", opts)
	}
	if opts.Customers > len(customerNames) {
		return nil, fmt.Errorf("at most %d customers supported, got %d", len(customerNames), opts.Customers)
	}
	rnd := rand.New(rand.NewSource(seed))
	s := &Schedule{Score: ScoreDefinition.Zero()}

	for i := 0; i < opts.Customers; i++ {
		s.Customers = append(s.Customers, &Customer{ID: i, Name: customerNames[i]})
	}
	for i := 0; i < opts.TaskTypes; i++ {
		s.TaskTypes = append(s.TaskTypes, &TaskType{
			ID:             i,
			Code:           fmt.Sprintf("%c%d", 'A'+rune(i%26), i/26),
			BaseDuration:   (rnd.Intn(4) + 1) * 10,
			RequiredSkills: pickSkills(rnd, 1+rnd.Intn(2)),
		})
	}
	for i := 0; i < opts.Employees; i++ {
		e := &Employee{
			ID:         i,
			Name:       fmt.Sprintf("%s %s", firstNames[i%len(firstNames)], lastNames[(i+i/len(firstNames))%len(lastNames)]),
			Skills:     pickSkills(rnd, 2+rnd.Intn(3)),
			Affinities: make(map[*Customer]Affinity),
		}
		for _, c := range s.Customers {
			if a := Affinity(rnd.Intn(4)); a != NoAffinity {
				e.Affinities[c] = a
			}
		}
		s.Employees = append(s.Employees, e)
	}

	perType := make(map[*TaskType]int)
	for i := 0; i < opts.Tasks; i++ {
		tt := s.TaskTypes[rnd.Intn(len(s.TaskTypes))]
		t := &Task{
			ID:          i,
			Type:        tt,
			IndexInType: perType[tt],
			Customer:    s.Customers[rnd.Intn(len(s.Customers))],
			ReadyTime:   rnd.Intn(4) * 10,
			Priority:    Priority(rnd.Intn(3)),
		}
		perType[tt]++
		clearShadows(t)
		s.Tasks = append(s.Tasks, t)
	}
	return s, nil
}

func pickSkills(rnd *rand.Rand, n int) []string {
	perm := rnd.Perm(len(skillNames))
	skills := make([]string, n)
	for i := range skills {
		skills[i] = skillNames[perm[i]]
	}
	return skills
}
