package param

import (
	"fmt"
	"sort"
	"strings"

	"gotune/domain/core"
)

// Constraint is a linear restriction across numeric parameters. The closed
// set of variants is LinearConstraint (generic coefficient map),
// OrderConstraint and SumConstraint. Check evaluates against a numeric-only
// parameterization; a referenced parameter missing from the values map
// counts as a violation.
type Constraint interface {
	// Check evaluates the constraint against numeric parameter values
	Check(values map[string]float64) bool

	// ConstraintDict returns the coefficient per parameter name for the
	// canonical form sum(coef * value) <= Bound()
	ConstraintDict() map[string]float64

	// Bound is the right-hand side of the canonical form
	Bound() float64

	// ParameterNames lists the referenced parameter names
	ParameterNames() []string

	// Clone returns a deep copy
	Clone() Constraint

	String() string
}

// checkLinear evaluates sum(coef * value) <= bound
func checkLinear(dict map[string]float64, bound float64, values map[string]float64) bool {
	var weighted float64
	for name, coef := range dict {
		v, ok := values[name]
		if !ok {
			return false
		}
		weighted += coef * v
	}
	return weighted <= bound
}

func sortedNames(dict map[string]float64) []string {
	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// LINEAR CONSTRAINT (generic)
// ============================================================================

// LinearConstraint is the generic form sum(coef * parameter) <= bound
type LinearConstraint struct {
	dict  map[string]float64
	bound float64
}

// NewLinearConstraint creates a generic linear constraint
func NewLinearConstraint(dict map[string]float64, bound float64) (*LinearConstraint, error) {
	if len(dict) == 0 {
		return nil, core.NewDefinitionError("linear constraint", "coefficient map cannot be empty")
	}
	copied := make(map[string]float64, len(dict))
	for name, coef := range dict {
		copied[name] = coef
	}
	return &LinearConstraint{dict: copied, bound: bound}, nil
}

func (c *LinearConstraint) Check(values map[string]float64) bool {
	return checkLinear(c.dict, c.bound, values)
}

func (c *LinearConstraint) ConstraintDict() map[string]float64 { return c.dict }
func (c *LinearConstraint) Bound() float64                     { return c.bound }
func (c *LinearConstraint) ParameterNames() []string           { return sortedNames(c.dict) }

func (c *LinearConstraint) Clone() Constraint {
	clone, _ := NewLinearConstraint(c.dict, c.bound)
	return clone
}

func (c *LinearConstraint) String() string {
	parts := make([]string, 0, len(c.dict))
	for _, name := range c.ParameterNames() {
		parts = append(parts, fmt.Sprintf("%v*%s", c.dict[name], name))
	}
	return fmt.Sprintf("LinearConstraint(%s <= %v)", strings.Join(parts, " + "), c.bound)
}

// ============================================================================
// ORDER CONSTRAINT
// ============================================================================

// OrderConstraint requires lower <= upper between two numeric parameters.
// It holds Parameter references, which the owning search space rebinds to
// its own instances on registration.
type OrderConstraint struct {
	lower Parameter
	upper Parameter
}

// NewOrderConstraint creates the constraint lower <= upper
func NewOrderConstraint(lower, upper Parameter) (*OrderConstraint, error) {
	if lower == nil || upper == nil {
		return nil, core.NewDefinitionError("order constraint", "both parameters are required")
	}
	if !lower.IsNumeric() || !upper.IsNumeric() {
		return nil, core.NewDefinitionError("order constraint", "parameters must be numeric")
	}
	if lower.Name() == upper.Name() {
		return nil, core.NewDefinitionError("order constraint", "parameters must be distinct")
	}
	return &OrderConstraint{lower: lower, upper: upper}, nil
}

func (c *OrderConstraint) Check(values map[string]float64) bool {
	return checkLinear(c.ConstraintDict(), 0, values)
}

func (c *OrderConstraint) ConstraintDict() map[string]float64 {
	return map[string]float64{c.lower.Name(): 1, c.upper.Name(): -1}
}

func (c *OrderConstraint) Bound() float64 { return 0 }

func (c *OrderConstraint) ParameterNames() []string {
	return []string{c.lower.Name(), c.upper.Name()}
}

// Parameters returns the held parameter references, lower then upper
func (c *OrderConstraint) Parameters() []Parameter { return []Parameter{c.lower, c.upper} }

// LowerParameter is the parameter required to be smaller
func (c *OrderConstraint) LowerParameter() Parameter { return c.lower }

// UpperParameter is the parameter required to be larger
func (c *OrderConstraint) UpperParameter() Parameter { return c.upper }

// Rebind replaces the held parameter references; used by the search space
// to keep a single source of truth for parameter instances
func (c *OrderConstraint) Rebind(lower, upper Parameter) {
	c.lower = lower
	c.upper = upper
}

func (c *OrderConstraint) Clone() Constraint {
	return &OrderConstraint{lower: c.lower.Clone(), upper: c.upper.Clone()}
}

func (c *OrderConstraint) String() string {
	return fmt.Sprintf("OrderConstraint(%s <= %s)", c.lower.Name(), c.upper.Name())
}

// ============================================================================
// SUM CONSTRAINT
// ============================================================================

// SumConstraint bounds the sum of a set of numeric parameters from above or
// below. It holds Parameter references, rebound by the owning search space.
type SumConstraint struct {
	parameters   []Parameter
	isUpperBound bool
	bound        float64
}

// NewSumConstraint creates sum(parameters) <= bound when isUpperBound, else
// sum(parameters) >= bound
func NewSumConstraint(parameters []Parameter, isUpperBound bool, bound float64) (*SumConstraint, error) {
	if len(parameters) < 2 {
		return nil, core.NewDefinitionError("sum constraint", "requires at least two parameters")
	}
	seen := make(map[string]bool, len(parameters))
	for _, p := range parameters {
		if !p.IsNumeric() {
			return nil, core.NewDefinitionError("sum constraint", fmt.Sprintf("parameter %s must be numeric", p.Name()))
		}
		if seen[p.Name()] {
			return nil, core.NewDefinitionError("sum constraint", fmt.Sprintf("duplicate parameter %s", p.Name()))
		}
		seen[p.Name()] = true
	}
	return &SumConstraint{
		parameters:   append([]Parameter(nil), parameters...),
		isUpperBound: isUpperBound,
		bound:        bound,
	}, nil
}

func (c *SumConstraint) Check(values map[string]float64) bool {
	return checkLinear(c.ConstraintDict(), c.Bound(), values)
}

func (c *SumConstraint) ConstraintDict() map[string]float64 {
	sign := 1.0
	if !c.isUpperBound {
		sign = -1.0
	}
	dict := make(map[string]float64, len(c.parameters))
	for _, p := range c.parameters {
		dict[p.Name()] = sign
	}
	return dict
}

func (c *SumConstraint) Bound() float64 {
	if c.isUpperBound {
		return c.bound
	}
	return -c.bound
}

// IsUpperBound reports the direction of the bound
func (c *SumConstraint) IsUpperBound() bool { return c.isUpperBound }

func (c *SumConstraint) ParameterNames() []string {
	names := make([]string, len(c.parameters))
	for i, p := range c.parameters {
		names[i] = p.Name()
	}
	return names
}

// Parameters returns the held parameter references
func (c *SumConstraint) Parameters() []Parameter {
	return append([]Parameter(nil), c.parameters...)
}

// Rebind replaces the held parameter reference at index i
func (c *SumConstraint) Rebind(i int, p Parameter) {
	c.parameters[i] = p
}

func (c *SumConstraint) Clone() Constraint {
	cloned := make([]Parameter, len(c.parameters))
	for i, p := range c.parameters {
		cloned[i] = p.Clone()
	}
	return &SumConstraint{parameters: cloned, isUpperBound: c.isUpperBound, bound: c.bound}
}

func (c *SumConstraint) String() string {
	op := ">="
	if c.isUpperBound {
		op = "<="
	}
	return fmt.Sprintf("SumConstraint(%s %s %v)", strings.Join(c.ParameterNames(), " + "), op, c.bound)
}
