package testutil

import "testing"

// Scenario runs Given/When/Then steps in order inside one subtest, so later steps
// see the state earlier ones built and a failed step stops the rest.
type Scenario struct {
	name  string
	steps []step
}

type step struct {
	label string
	fn    func(t *testing.T)
}

func NewScenario(name string) *Scenario {
	return &Scenario{name: name}
}

func (s *Scenario) Given(desc string, fn func(t *testing.T)) *Scenario {
	return s.add("Given "+desc, fn)
}

func (s *Scenario) When(desc string, fn func(t *testing.T)) *Scenario {
	return s.add("When "+desc, fn)
}

func (s *Scenario) Then(desc string, fn func(t *testing.T)) *Scenario {
	return s.add("Then "+desc, fn)
}

func (s *Scenario) And(desc string, fn func(t *testing.T)) *Scenario {
	return s.add("And "+desc, fn)
}

func (s *Scenario) add(label string, fn func(t *testing.T)) *Scenario {
	s.steps = append(s.steps, step{label: label, fn: fn})
	return s
}

// Run executes the steps as nested subtests of t.
func (s *Scenario) Run(t *testing.T) {
	t.Helper()
	t.Run(s.name, func(t *testing.T) {
		for _, st := range s.steps {
			if !t.Run(st.label, st.fn) {
				t.FailNow()
			}
		}
	})
}
