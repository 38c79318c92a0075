package param

import (
	"fmt"
	"math/rand"
	"strings"

	"gotune/domain/core"
)

// ChoiceParameter is a parameter over an explicit, ordered list of values.
// It may be hierarchical: a dependents map declares which parameters become
// applicable under each of its values.
type ChoiceParameter struct {
	name        string
	ptype       ParameterType
	values      []Value
	ordered     bool
	isTask      bool
	targetValue Value
	dependents  map[Value][]string
}

// ChoiceOption customizes choice parameter construction
type ChoiceOption func(*ChoiceParameter)

// WithOrdered declares the values to be ordinal
func WithOrdered() ChoiceOption {
	return func(p *ChoiceParameter) { p.ordered = true }
}

// WithTaskTarget marks the parameter as a task parameter with the given
// target value
func WithTaskTarget(target Value) ChoiceOption {
	return func(p *ChoiceParameter) {
		p.isTask = true
		p.targetValue = target
	}
}

// WithDependents declares, per value, the parameters that become applicable
// when this parameter takes that value
func WithDependents(deps map[Value][]string) ChoiceOption {
	return func(p *ChoiceParameter) { p.dependents = deps }
}

// NewChoiceParameter creates a choice parameter over the given values
func NewChoiceParameter(name string, ptype ParameterType, values []Value, opts ...ChoiceOption) (*ChoiceParameter, error) {
	if name == "" {
		return nil, core.NewDefinitionError("choice parameter", "name cannot be empty")
	}
	if !ptype.IsValid() {
		return nil, core.NewDefinitionError(name, fmt.Sprintf("unknown parameter type %q", ptype))
	}
	if len(values) < 2 {
		return nil, core.NewDefinitionError(name, "choice parameters require at least two values")
	}
	p := &ChoiceParameter{name: name, ptype: ptype, values: append([]Value(nil), values...)}
	for _, opt := range opts {
		opt(p)
	}
	for i, v := range p.values {
		if !IsValidValueType(ptype, v) {
			return nil, core.NewDefinitionError(name, fmt.Sprintf("value %v (%T) does not match declared type %q", v, v, ptype))
		}
		for j := 0; j < i; j++ {
			if ValueEqual(p.values[j], v) {
				return nil, core.NewDefinitionError(name, fmt.Sprintf("duplicate value %v", v))
			}
		}
	}
	if p.isTask {
		if p.targetValue == nil {
			return nil, core.NewDefinitionError(name, "task parameter requires a target value")
		}
		if !p.Validate(p.targetValue) {
			return nil, core.NewDefinitionError(name, fmt.Sprintf("task target %v is not one of the declared values", p.targetValue))
		}
	}
	for v := range p.dependents {
		if !p.Validate(v) {
			return nil, core.NewDefinitionError(name, fmt.Sprintf("dependents declared under %v, which is not one of the declared values", v))
		}
	}
	return p, nil
}

// MustNewChoiceParameter panics on construction error; for static definitions
func MustNewChoiceParameter(name string, ptype ParameterType, values []Value, opts ...ChoiceOption) *ChoiceParameter {
	p, err := NewChoiceParameter(name, ptype, values, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *ChoiceParameter) Name() string         { return p.name }
func (p *ChoiceParameter) Type() ParameterType  { return p.ptype }
func (p *ChoiceParameter) Kind() Kind           { return KindChoice }
func (p *ChoiceParameter) IsNumeric() bool      { return p.ptype.IsNumeric() }
func (p *ChoiceParameter) IsHierarchical() bool { return len(p.dependents) > 0 }
func (p *ChoiceParameter) IsFidelity() bool     { return false }
func (p *ChoiceParameter) TargetValue() Value   { return p.targetValue }

// IsTask reports whether this is a task parameter
func (p *ChoiceParameter) IsTask() bool { return p.isTask }

// Ordered reports whether the declared values are ordinal
func (p *ChoiceParameter) Ordered() bool { return p.ordered }

// Values returns the declared values in declaration order
func (p *ChoiceParameter) Values() []Value { return append([]Value(nil), p.values...) }

func (p *ChoiceParameter) Dependents() map[Value][]string { return p.dependents }

// DependentBranches returns the values with dependents in declared order
func (p *ChoiceParameter) DependentBranches() []Value {
	var branches []Value
	for _, v := range p.values {
		if len(p.dependents[v]) > 0 {
			branches = append(branches, v)
		}
	}
	return branches
}

func (p *ChoiceParameter) IsValidType(v Value) bool { return IsValidValueType(p.ptype, v) }
func (p *ChoiceParameter) IsExactType(v Value) bool { return IsExactType(p.ptype, v) }

func (p *ChoiceParameter) Validate(v Value) bool {
	if !p.IsValidType(v) {
		return false
	}
	for _, candidate := range p.values {
		if ValueEqual(candidate, v) {
			return true
		}
	}
	return false
}

func (p *ChoiceParameter) Cast(v Value) (Value, error) {
	return CastValue(p.ptype, v)
}

// Midpoint returns the middle element by declared order
func (p *ChoiceParameter) Midpoint() Value {
	return p.values[len(p.values)/2]
}

// Sample returns a uniformly random element
func (p *ChoiceParameter) Sample(rng *rand.Rand) Value {
	return p.values[rng.Intn(len(p.values))]
}

func (p *ChoiceParameter) DomainString() string {
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "values=[" + strings.Join(parts, ", ") + "]"
}

func (p *ChoiceParameter) Clone() Parameter {
	clone := *p
	clone.values = append([]Value(nil), p.values...)
	clone.dependents = cloneDependents(p.dependents)
	return &clone
}

func (p *ChoiceParameter) Equal(other Parameter) bool {
	o, ok := other.(*ChoiceParameter)
	if !ok {
		return false
	}
	if p.name != o.name || p.ptype != o.ptype || p.ordered != o.ordered ||
		p.isTask != o.isTask || !ValueEqual(p.targetValue, o.targetValue) {
		return false
	}
	if len(p.values) != len(o.values) {
		return false
	}
	for i := range p.values {
		if !ValueEqual(p.values[i], o.values[i]) {
			return false
		}
	}
	return dependentsEqual(p.dependents, o.dependents)
}

func (p *ChoiceParameter) String() string {
	s := fmt.Sprintf("ChoiceParameter(name=%s, type=%s, %s", p.name, p.ptype, p.DomainString())
	if p.ordered {
		s += ", ordered"
	}
	if p.isTask {
		s += fmt.Sprintf(", task, target=%v", p.targetValue)
	}
	if p.IsHierarchical() {
		s += ", hierarchical"
	}
	return s + ")"
}
