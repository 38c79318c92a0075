package searchspace

import (
	"fmt"
	"sort"
	"strings"

	"gotune/domain/core"
	"gotune/domain/param"
)

// Parameterization is one candidate point: a mapping from parameter name to
// value. A nil value marks an unset slot (out-of-design arms).
type Parameterization map[string]param.Value

// Clone returns a shallow copy (values are immutable scalars)
func (p Parameterization) Clone() Parameterization {
	if p == nil {
		return nil
	}
	out := make(Parameterization, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order
func (p Parameterization) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal compares two parameterizations key by key with numeric widening
func (p Parameterization) Equal(other Parameterization) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		ov, ok := other[k]
		if !ok || !param.ValueEqual(v, ov) {
			return false
		}
	}
	return true
}

func (p Parameterization) String() string {
	parts := make([]string, 0, len(p))
	for _, name := range p.Names() {
		parts = append(parts, fmt.Sprintf("%s: %v", name, p[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Arm is a named candidate parameterization
type Arm struct {
	name       string
	hasName    bool
	parameters Parameterization
}

// NewArm creates a named arm
func NewArm(parameters Parameterization, name string) *Arm {
	return &Arm{name: name, hasName: true, parameters: parameters.Clone()}
}

// NewUnnamedArm creates an arm without a name
func NewUnnamedArm(parameters Parameterization) *Arm {
	return &Arm{parameters: parameters.Clone()}
}

// Name returns the arm name, empty if unnamed
func (a *Arm) Name() string { return a.name }

// HasName reports whether the arm carries a name
func (a *Arm) HasName() bool { return a.hasName }

// Parameters returns a copy of the arm's parameterization
func (a *Arm) Parameters() Parameterization { return a.parameters.Clone() }

// Signature identifies the arm by its parameterization, independent of name
func (a *Arm) Signature() core.ArmSignature {
	raw := make(map[string]interface{}, len(a.parameters))
	for k, v := range a.parameters {
		raw[k] = v
	}
	return core.ComputeArmSignature(raw)
}

func (a *Arm) String() string {
	if a.hasName && a.name != "" {
		return fmt.Sprintf("Arm(name=%s, parameters=%s)", a.name, a.parameters)
	}
	return fmt.Sprintf("Arm(parameters=%s)", a.parameters)
}
