package param

import (
	"math/rand"
)

// Kind discriminates the closed set of parameter variants
type Kind string

const (
	KindRange  Kind = "range"
	KindChoice Kind = "choice"
	KindFixed  Kind = "fixed"
)

// Parameter is the capability surface the search space consumes. The
// concrete variants are the closed set RangeParameter, ChoiceParameter and
// FixedParameter; each carries its own midpoint/sample capability so that
// dummy-value synthesis never needs runtime type inspection.
type Parameter interface {
	// Name is the unique key of the parameter within one search space
	Name() string

	// Type is the declared value type
	Type() ParameterType

	// Kind discriminates the concrete variant
	Kind() Kind

	// Validate reports whether the value is inside the parameter's domain
	Validate(v Value) bool

	// IsValidType reports whether the value's type is compatible with the
	// declared type (numeric widening allowed)
	IsValidType(v Value) bool

	// IsExactType reports whether the value's concrete type matches the
	// declared type with no widening
	IsExactType(v Value) bool

	// Cast converts a value to the canonical representation of the
	// declared type; out-of-domain values are tolerated
	Cast(v Value) (Value, error)

	// IsNumeric reports whether the parameter participates in numeric
	// constraints
	IsNumeric() bool

	// IsHierarchical reports whether other parameters depend on this one
	IsHierarchical() bool

	// Dependents maps a value of this parameter to the names of the
	// parameters that become applicable under that value. Empty for
	// non-hierarchical parameters.
	Dependents() map[Value][]string

	// DependentBranches returns the values that carry dependents, in the
	// parameter's declared value order. Empty for non-hierarchical
	// parameters.
	DependentBranches() []Value

	// Midpoint returns the deterministic dummy value for this parameter
	Midpoint() Value

	// Sample returns a random dummy value for this parameter
	Sample(rng *rand.Rand) Value

	// IsFidelity reports whether this is a fidelity parameter
	IsFidelity() bool

	// TargetValue is the fidelity/task target, nil when absent
	TargetValue() Value

	// DomainString renders the domain for summaries and diagnostics
	DomainString() string

	// Clone returns a deep copy
	Clone() Parameter

	// Equal compares full definitions (name, type, domain, flags)
	Equal(other Parameter) bool

	String() string
}

// DependentNames flattens a dependents map into the set of all names that
// appear in any value branch.
func DependentNames(p Parameter) []string {
	if !p.IsHierarchical() {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, deps := range p.Dependents() {
		for _, name := range deps {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// cloneDependents deep-copies a dependents map
func cloneDependents(deps map[Value][]string) map[Value][]string {
	if deps == nil {
		return nil
	}
	out := make(map[Value][]string, len(deps))
	for v, names := range deps {
		out[v] = append([]string(nil), names...)
	}
	return out
}

// dependentsEqual compares dependents maps by value
func dependentsEqual(a, b map[Value][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for v, an := range a {
		bn, ok := b[v]
		if !ok || len(an) != len(bn) {
			return false
		}
		for i := range an {
			if an[i] != bn[i] {
				return false
			}
		}
	}
	return true
}
