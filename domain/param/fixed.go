package param

import (
	"fmt"
	"math/rand"

	"gotune/domain/core"
)

// FixedParameter holds a single admissible value. It may be hierarchical,
// in which case its dependents are keyed by that one value.
type FixedParameter struct {
	name       string
	ptype      ParameterType
	value      Value
	dependents map[Value][]string
}

// FixedOption customizes fixed parameter construction
type FixedOption func(*FixedParameter)

// WithFixedDependents declares the parameters that become applicable when
// this parameter takes the given value
func WithFixedDependents(deps map[Value][]string) FixedOption {
	return func(p *FixedParameter) { p.dependents = deps }
}

// NewFixedParameter creates a fixed parameter with a single value
func NewFixedParameter(name string, ptype ParameterType, value Value, opts ...FixedOption) (*FixedParameter, error) {
	if name == "" {
		return nil, core.NewDefinitionError("fixed parameter", "name cannot be empty")
	}
	if !ptype.IsValid() {
		return nil, core.NewDefinitionError(name, fmt.Sprintf("unknown parameter type %q", ptype))
	}
	if !IsValidValueType(ptype, value) {
		return nil, core.NewDefinitionError(name, fmt.Sprintf("value %v (%T) does not match declared type %q", value, value, ptype))
	}
	cast, err := CastValue(ptype, value)
	if err != nil {
		return nil, core.NewDefinitionError(name, err.Error())
	}
	p := &FixedParameter{name: name, ptype: ptype, value: cast}
	for _, opt := range opts {
		opt(p)
	}
	for v := range p.dependents {
		if !ValueEqual(v, p.value) {
			return nil, core.NewDefinitionError(name, fmt.Sprintf("dependents declared under %v, but the fixed value is %v", v, p.value))
		}
	}
	return p, nil
}

// MustNewFixedParameter panics on construction error; for static definitions
func MustNewFixedParameter(name string, ptype ParameterType, value Value, opts ...FixedOption) *FixedParameter {
	p, err := NewFixedParameter(name, ptype, value, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *FixedParameter) Name() string         { return p.name }
func (p *FixedParameter) Type() ParameterType  { return p.ptype }
func (p *FixedParameter) Kind() Kind           { return KindFixed }
func (p *FixedParameter) IsNumeric() bool      { return p.ptype.IsNumeric() }
func (p *FixedParameter) IsHierarchical() bool { return len(p.dependents) > 0 }
func (p *FixedParameter) IsFidelity() bool     { return false }
func (p *FixedParameter) TargetValue() Value   { return nil }

// Value returns the single admissible value
func (p *FixedParameter) Value() Value { return p.value }

func (p *FixedParameter) Dependents() map[Value][]string { return p.dependents }

func (p *FixedParameter) DependentBranches() []Value {
	if len(p.dependents) == 0 {
		return nil
	}
	return []Value{p.value}
}

func (p *FixedParameter) IsValidType(v Value) bool { return IsValidValueType(p.ptype, v) }
func (p *FixedParameter) IsExactType(v Value) bool { return IsExactType(p.ptype, v) }

func (p *FixedParameter) Validate(v Value) bool {
	if !p.IsValidType(v) {
		return false
	}
	return ValueEqual(v, p.value)
}

func (p *FixedParameter) Cast(v Value) (Value, error) {
	return CastValue(p.ptype, v)
}

// Midpoint returns the fixed value
func (p *FixedParameter) Midpoint() Value { return p.value }

// Sample returns the fixed value
func (p *FixedParameter) Sample(rng *rand.Rand) Value { return p.value }

func (p *FixedParameter) DomainString() string {
	return fmt.Sprintf("value=%v", p.value)
}

func (p *FixedParameter) Clone() Parameter {
	clone := *p
	clone.dependents = cloneDependents(p.dependents)
	return &clone
}

func (p *FixedParameter) Equal(other Parameter) bool {
	o, ok := other.(*FixedParameter)
	if !ok {
		return false
	}
	return p.name == o.name &&
		p.ptype == o.ptype &&
		ValueEqual(p.value, o.value) &&
		dependentsEqual(p.dependents, o.dependents)
}

func (p *FixedParameter) String() string {
	s := fmt.Sprintf("FixedParameter(name=%s, type=%s, %s", p.name, p.ptype, p.DomainString())
	if p.IsHierarchical() {
		s += ", hierarchical"
	}
	return s + ")"
}
