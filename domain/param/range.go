package param

import (
	"fmt"
	"math"
	"math/rand"

	"gotune/domain/core"
)

// RangeParameter is a numeric parameter over an inclusive [lower, upper]
// interval, optionally on a log10 or logit scale.
type RangeParameter struct {
	name        string
	ptype       ParameterType
	lower       float64
	upper       float64
	logScale    bool
	logitScale  bool
	isFidelity  bool
	targetValue Value
}

// RangeOption customizes range parameter construction
type RangeOption func(*RangeParameter)

// WithLogScale declares the domain to be log10-scaled
func WithLogScale() RangeOption {
	return func(p *RangeParameter) { p.logScale = true }
}

// WithLogitScale declares the domain to be logit-scaled
func WithLogitScale() RangeOption {
	return func(p *RangeParameter) { p.logitScale = true }
}

// WithFidelityTarget marks the parameter as a fidelity parameter with the
// given target value
func WithFidelityTarget(target Value) RangeOption {
	return func(p *RangeParameter) {
		p.isFidelity = true
		p.targetValue = target
	}
}

// NewRangeParameter creates a numeric range parameter
func NewRangeParameter(name string, ptype ParameterType, lower, upper float64, opts ...RangeOption) (*RangeParameter, error) {
	if name == "" {
		return nil, core.NewDefinitionError("range parameter", "name cannot be empty")
	}
	if !ptype.IsNumeric() {
		return nil, core.NewDefinitionError(name, fmt.Sprintf("range parameters must be numeric, got type %q", ptype))
	}
	if lower >= upper {
		return nil, core.NewDefinitionError(name, fmt.Sprintf("lower bound %v must be strictly less than upper bound %v", lower, upper))
	}
	p := &RangeParameter{name: name, ptype: ptype, lower: lower, upper: upper}
	for _, opt := range opts {
		opt(p)
	}
	if p.logScale && p.logitScale {
		return nil, core.NewDefinitionError(name, "cannot be both log-scale and logit-scale")
	}
	if p.logScale && lower <= 0 {
		return nil, core.NewDefinitionError(name, "log-scale requires a positive lower bound")
	}
	if p.logitScale {
		if ptype != TypeFloat {
			return nil, core.NewDefinitionError(name, "logit-scale requires a float parameter")
		}
		if lower <= 0 || upper >= 1 {
			return nil, core.NewDefinitionError(name, "logit-scale requires bounds inside (0, 1)")
		}
	}
	if p.isFidelity {
		if p.targetValue == nil {
			return nil, core.NewDefinitionError(name, "fidelity parameter requires a target value")
		}
		if !p.Validate(p.targetValue) {
			return nil, core.NewDefinitionError(name, fmt.Sprintf("fidelity target %v is outside the domain", p.targetValue))
		}
	}
	return p, nil
}

// MustNewRangeParameter panics on construction error; for static definitions
func MustNewRangeParameter(name string, ptype ParameterType, lower, upper float64, opts ...RangeOption) *RangeParameter {
	p, err := NewRangeParameter(name, ptype, lower, upper, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *RangeParameter) Name() string        { return p.name }
func (p *RangeParameter) Type() ParameterType { return p.ptype }
func (p *RangeParameter) Kind() Kind          { return KindRange }
func (p *RangeParameter) IsNumeric() bool     { return true }
func (p *RangeParameter) IsHierarchical() bool {
	return false
}
func (p *RangeParameter) Dependents() map[Value][]string { return nil }

func (p *RangeParameter) DependentBranches() []Value { return nil }
func (p *RangeParameter) IsFidelity() bool               { return p.isFidelity }
func (p *RangeParameter) TargetValue() Value             { return p.targetValue }

// Lower returns the inclusive lower bound
func (p *RangeParameter) Lower() float64 { return p.lower }

// Upper returns the inclusive upper bound
func (p *RangeParameter) Upper() float64 { return p.upper }

// LogScale reports whether the domain is log10-scaled
func (p *RangeParameter) LogScale() bool { return p.logScale }

// LogitScale reports whether the domain is logit-scaled
func (p *RangeParameter) LogitScale() bool { return p.logitScale }

func (p *RangeParameter) IsValidType(v Value) bool { return IsValidValueType(p.ptype, v) }
func (p *RangeParameter) IsExactType(v Value) bool { return IsExactType(p.ptype, v) }

func (p *RangeParameter) Validate(v Value) bool {
	if !p.IsValidType(v) {
		return false
	}
	f, _ := AsFloat(v)
	return f >= p.lower && f <= p.upper
}

func (p *RangeParameter) Cast(v Value) (Value, error) {
	return CastValue(p.ptype, v)
}

// Midpoint returns the scale-aware middle of the domain. Integer parameters
// are offset by 0.5 before truncation so the post-cast integer distribution
// stays centered.
func (p *RangeParameter) Midpoint() Value {
	var val float64
	switch {
	case p.logScale:
		logMid := (math.Log10(p.lower) + math.Log10(p.upper)) / 2.0
		val = math.Pow(10, logMid)
	case p.logitScale:
		logitMid := (logit(p.lower) + logit(p.upper)) / 2.0
		val = expit(logitMid)
	default:
		val = (p.lower + p.upper) / 2.0
	}
	return p.castDummy(val)
}

// Sample draws uniformly from the domain
func (p *RangeParameter) Sample(rng *rand.Rand) Value {
	val := p.lower + rng.Float64()*(p.upper-p.lower)
	return p.castDummy(val)
}

func (p *RangeParameter) castDummy(val float64) Value {
	if p.ptype == TypeInt {
		// Makes the distribution uniform after truncation to int.
		val += 0.5
	}
	cast, _ := p.Cast(val)
	return cast
}

func (p *RangeParameter) DomainString() string {
	return fmt.Sprintf("range=[%v, %v]", p.lower, p.upper)
}

func (p *RangeParameter) Clone() Parameter {
	clone := *p
	return &clone
}

func (p *RangeParameter) Equal(other Parameter) bool {
	o, ok := other.(*RangeParameter)
	if !ok {
		return false
	}
	return p.name == o.name &&
		p.ptype == o.ptype &&
		p.lower == o.lower &&
		p.upper == o.upper &&
		p.logScale == o.logScale &&
		p.logitScale == o.logitScale &&
		p.isFidelity == o.isFidelity &&
		ValueEqual(p.targetValue, o.targetValue)
}

func (p *RangeParameter) String() string {
	s := fmt.Sprintf("RangeParameter(name=%s, type=%s, %s", p.name, p.ptype, p.DomainString())
	if p.logScale {
		s += ", log_scale"
	}
	if p.logitScale {
		s += ", logit_scale"
	}
	if p.isFidelity {
		s += fmt.Sprintf(", fidelity, target=%v", p.targetValue)
	}
	return s + ")"
}

func logit(p float64) float64 { return math.Log(p / (1 - p)) }
func expit(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
