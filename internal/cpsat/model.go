// Package cpsat provides a small boolean constraint-satisfaction engine: a
// model of boolean decision variables under integer linear constraints with a
// maximization objective, and a solver that returns a feasibility status plus
// a value for every variable. The scheduling service consumes it strictly
// through the Engine contract.
package cpsat

import "math"

// Bound sentinels for one-sided linear constraints.
const (
	NoLowerBound = math.MinInt32
	NoUpperBound = math.MaxInt32
)

// BoolVar is a boolean decision variable.
type BoolVar struct {
	index int
	name  string
}

// Name returns the variable's debug name.
func (v *BoolVar) Name() string {
	return v.name
}

// Term couples a variable with an integer coefficient.
type Term struct {
	Var  *BoolVar
	Coef int
}

// LinearConstraint requires Min <= sum(Coef*Var) <= Max in any solution.
type LinearConstraint struct {
	Terms []Term
	Min   int
	Max   int
}

// Model is one constraint-satisfaction instance. It is built once per solve
// and never mutated afterwards; the solver treats it as read-only.
type Model struct {
	vars        []*BoolVar
	constraints []LinearConstraint
	objective   []Term
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar adds a boolean decision variable to the model.
func (m *Model) NewBoolVar(name string) *BoolVar {
	v := &BoolVar{index: len(m.vars), name: name}
	m.vars = append(m.vars, v)
	return v
}

// AddLinearConstraint adds a bounded linear constraint over boolean variables.
func (m *Model) AddLinearConstraint(terms []Term, min, max int) {
	m.constraints = append(m.constraints, LinearConstraint{Terms: terms, Min: min, Max: max})
}

// AddSumEquals requires the given variables to sum to exactly value.
func (m *Model) AddSumEquals(vars []*BoolVar, value int) {
	m.AddLinearConstraint(unitTerms(vars), value, value)
}

// AddSumAtMost requires the given variables to sum to at most limit.
func (m *Model) AddSumAtMost(vars []*BoolVar, limit int) {
	m.AddLinearConstraint(unitTerms(vars), NoLowerBound, limit)
}

// AddImplication requires a <= b: a may only be true when b is true.
func (m *Model) AddImplication(a, b *BoolVar) {
	m.AddLinearConstraint([]Term{{Var: a, Coef: 1}, {Var: b, Coef: -1}}, NoLowerBound, 0)
}

// AddCapacity requires sum(attending) <= capacity*session: nobody attends a
// session that does not exist, and attendance never exceeds room capacity.
func (m *Model) AddCapacity(attending []*BoolVar, capacity int, session *BoolVar) {
	terms := unitTerms(attending)
	terms = append(terms, Term{Var: session, Coef: -capacity})
	m.AddLinearConstraint(terms, NoLowerBound, 0)
}

// Maximize sets the objective to the sum of the given variables. Calling it
// again replaces the objective.
func (m *Model) Maximize(vars []*BoolVar) {
	m.objective = unitTerms(vars)
}

// NumVars returns the number of decision variables.
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of constraints.
func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

func unitTerms(vars []*BoolVar) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	return terms
}
