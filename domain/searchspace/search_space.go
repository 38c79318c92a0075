package searchspace

import (
	"fmt"
	"sort"
	"strings"

	"gotune/domain/core"
	"gotune/domain/param"
)

// SearchSpace owns a uniquely-named collection of parameters and the linear
// constraints over them. It answers membership and type questions about
// candidate parameterizations and casts/constructs arms.
//
// Mutation methods are not safe for concurrent use; callers needing
// concurrent readers during mutation must serialize externally or work on
// Clone()-produced copies.
type SearchSpace struct {
	parameters  map[string]param.Parameter
	order       []string
	constraints []param.Constraint
}

// NewSearchSpace creates a search space over the given parameters and
// constraints. Fails on duplicate parameter names or constraints referencing
// unknown/diverging parameters.
func NewSearchSpace(parameters []param.Parameter, constraints []param.Constraint) (*SearchSpace, error) {
	s := &SearchSpace{parameters: make(map[string]param.Parameter, len(parameters))}
	for _, p := range parameters {
		if _, exists := s.parameters[p.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateParameter, p.Name())
		}
		s.parameters[p.Name()] = p
		s.order = append(s.order, p.Name())
	}
	if err := s.SetConstraints(constraints); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewSearchSpace panics on construction error; for static definitions
func MustNewSearchSpace(parameters []param.Parameter, constraints []param.Constraint) *SearchSpace {
	s, err := NewSearchSpace(parameters, constraints)
	if err != nil {
		panic(err)
	}
	return s
}

// Parameter retrieves a parameter by name
func (s *SearchSpace) Parameter(name string) (param.Parameter, error) {
	p, ok := s.parameters[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not part of the search space", core.ErrParameterNotFound, name)
	}
	return p, nil
}

// Has reports whether the named parameter is declared
func (s *SearchSpace) Has(name string) bool {
	_, ok := s.parameters[name]
	return ok
}

// Parameters returns the parameters in declaration order
func (s *SearchSpace) Parameters() []param.Parameter {
	out := make([]param.Parameter, len(s.order))
	for i, name := range s.order {
		out[i] = s.parameters[name]
	}
	return out
}

// ParameterNames returns the parameter names in declaration order
func (s *SearchSpace) ParameterNames() []string {
	return append([]string(nil), s.order...)
}

// NumParameters returns the number of declared parameters
func (s *SearchSpace) NumParameters() int { return len(s.order) }

// RangeParameters returns the numeric range parameters in declaration order
func (s *SearchSpace) RangeParameters() []*param.RangeParameter {
	var out []*param.RangeParameter
	for _, name := range s.order {
		if rp, ok := s.parameters[name].(*param.RangeParameter); ok {
			out = append(out, rp)
		}
	}
	return out
}

// TunableParameters returns all non-fixed parameters in declaration order
func (s *SearchSpace) TunableParameters() []param.Parameter {
	var out []param.Parameter
	for _, name := range s.order {
		if s.parameters[name].Kind() != param.KindFixed {
			out = append(out, s.parameters[name])
		}
	}
	return out
}

// Constraints returns the registered constraints in registration order
func (s *SearchSpace) Constraints() []param.Constraint {
	return append([]param.Constraint(nil), s.constraints...)
}

// AddParameter registers a new parameter; fails on a name collision
func (s *SearchSpace) AddParameter(p param.Parameter) error {
	if _, exists := s.parameters[p.Name()]; exists {
		return fmt.Errorf("%w: `%s` already exists in search space; use UpdateParameter to update an existing parameter",
			core.ErrDuplicateParameter, p.Name())
	}
	s.parameters[p.Name()] = p
	s.order = append(s.order, p.Name())
	return nil
}

// UpdateParameter replaces an existing parameter's domain/metadata. The
// declared value type must not change.
func (s *SearchSpace) UpdateParameter(p param.Parameter) error {
	prev, exists := s.parameters[p.Name()]
	if !exists {
		return fmt.Errorf("%w: `%s` does not exist in search space; use AddParameter to add a new parameter",
			core.ErrParameterNotFound, p.Name())
	}
	if prev.Type() != p.Type() {
		return core.NewUnsupportedError("UpdateParameter",
			fmt.Sprintf("parameter `%s` has type %s; cannot update to type %s", p.Name(), prev.Type(), p.Type()))
	}
	s.parameters[p.Name()] = p
	return nil
}

// SetConstraints validates and installs the given constraints, replacing any
// previously registered ones. Constraint parameter references are rebound to
// the space's own instances so there is a single source of truth. The space
// is left unchanged on error.
func (s *SearchSpace) SetConstraints(constraints []param.Constraint) error {
	if err := s.validateConstraints(constraints); err != nil {
		return err
	}
	for _, c := range constraints {
		s.rebindConstraint(c)
	}
	s.constraints = constraints
	return nil
}

// AddConstraints validates and appends the given constraints. The space is
// left unchanged on error.
func (s *SearchSpace) AddConstraints(constraints []param.Constraint) error {
	if err := s.validateConstraints(constraints); err != nil {
		return err
	}
	for _, c := range constraints {
		s.rebindConstraint(c)
	}
	s.constraints = append(s.constraints, constraints...)
	return nil
}

// validateConstraints checks that every referenced parameter exists and, for
// order/sum constraints, that the constraint's parameter definition matches
// the space's.
func (s *SearchSpace) validateConstraints(constraints []param.Constraint) error {
	for _, c := range constraints {
		switch typed := c.(type) {
		case *param.OrderConstraint:
			if err := s.checkConstraintParameters(typed.Parameters()); err != nil {
				return err
			}
		case *param.SumConstraint:
			if err := s.checkConstraintParameters(typed.Parameters()); err != nil {
				return err
			}
		default:
			for _, name := range c.ParameterNames() {
				if _, ok := s.parameters[name]; !ok {
					return fmt.Errorf("%w: `%s` does not exist in search space", core.ErrUnknownParameter, name)
				}
			}
		}
	}
	return nil
}

func (s *SearchSpace) checkConstraintParameters(parameters []param.Parameter) error {
	for _, p := range parameters {
		own, ok := s.parameters[p.Name()]
		if !ok {
			return fmt.Errorf("%w: `%s` does not exist in search space", core.ErrUnknownParameter, p.Name())
		}
		if !p.Equal(own) {
			return fmt.Errorf("%w: constraint's definition of '%s' does not match the search space's definition",
				core.ErrParameterDiverged, p.Name())
		}
	}
	return nil
}

// rebindConstraint points order/sum constraint parameter references at the
// space's own instances
func (s *SearchSpace) rebindConstraint(c param.Constraint) {
	switch typed := c.(type) {
	case *param.OrderConstraint:
		typed.Rebind(
			s.parameters[typed.LowerParameter().Name()],
			s.parameters[typed.UpperParameter().Name()],
		)
	case *param.SumConstraint:
		for i, p := range typed.Parameters() {
			typed.Rebind(i, s.parameters[p.Name()])
		}
	}
}

// CheckAllParametersPresent reports whether the parameterization keys are
// exactly the declared parameter names
func (s *SearchSpace) CheckAllParametersPresent(p Parameterization) bool {
	return s.RequireAllParametersPresent(p) == nil
}

// RequireAllParametersPresent is the raising form of
// CheckAllParametersPresent
func (s *SearchSpace) RequireAllParametersPresent(p Parameterization) error {
	if len(p) == len(s.parameters) {
		match := true
		for name := range p {
			if _, ok := s.parameters[name]; !ok {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return fmt.Errorf("%w: parameterization has parameters %v, but search space has parameters %v",
		core.ErrMissingParameters, p.Names(), sortedCopy(s.order))
}

// CheckMembership reports whether the parameterization belongs in the search
// space: optional full coverage, per-value domain validation, then
// constraint evaluation over the numeric sub-mapping. This is the cheap
// polling form used by candidate-generation loops.
func (s *SearchSpace) CheckMembership(p Parameterization, checkAllParametersPresent bool) bool {
	return s.RequireMembership(p, checkAllParametersPresent) == nil
}

// RequireMembership is the raising form of CheckMembership, reporting the
// first violation in detail
func (s *SearchSpace) RequireMembership(p Parameterization, checkAllParametersPresent bool) error {
	if checkAllParametersPresent {
		if err := s.RequireAllParametersPresent(p); err != nil {
			return err
		}
	}

	for name, value := range p {
		parameter, ok := s.parameters[name]
		if !ok {
			return fmt.Errorf("%w: parameter %s not defined in search space", core.ErrParameterNotFound, name)
		}
		if !parameter.Validate(value) {
			return core.NewDomainViolationError(parameter.String(), value)
		}
	}

	// Constraints only accept numeric parameters; ints are widened to
	// floats here, while exact-type strictness is enforced separately by
	// ValidateMembership.
	numeric := make(map[string]float64)
	for name, value := range p {
		if s.parameters[name].IsNumeric() {
			f, ok := param.AsFloat(value)
			if !ok {
				return fmt.Errorf("%w: non-numeric value %v for numeric parameter %s", core.ErrTypeMismatch, value, name)
			}
			numeric[name] = f
		}
	}

	for _, c := range s.constraints {
		if !c.Check(numeric) {
			return core.NewConstraintViolationError(c.String())
		}
	}

	return nil
}

// CheckTypes reports whether each supplied value's type is compatible with
// its parameter's declared type. Unknown keys and nil values are admitted or
// rejected per flags.
func (s *SearchSpace) CheckTypes(p Parameterization, allowNone, allowExtraParams bool) bool {
	return s.RequireTypes(p, allowNone, allowExtraParams) == nil
}

// RequireTypes is the raising form of CheckTypes
func (s *SearchSpace) RequireTypes(p Parameterization, allowNone, allowExtraParams bool) error {
	for name, value := range p {
		parameter, ok := s.parameters[name]
		if !ok {
			if allowExtraParams {
				continue
			}
			return fmt.Errorf("%w: parameter %s not defined in search space", core.ErrParameterNotFound, name)
		}

		if value == nil {
			if allowNone {
				continue
			}
			return fmt.Errorf("%w: nil value for parameter %s", core.ErrTypeMismatch, name)
		}

		if !parameter.IsValidType(value) {
			return fmt.Errorf("%w: %v is not a valid value for parameter %s", core.ErrTypeMismatch, value, parameter)
		}
	}
	return nil
}

// CastArm casts each declared parameter's value in the arm to its canonical
// type. Values for parameters outside the space pass through raw; this
// tolerates legacy/foreign parameterizations.
func (s *SearchSpace) CastArm(arm *Arm) (*Arm, error) {
	newParameters := make(Parameterization)
	for name, value := range arm.Parameters() {
		parameter, ok := s.parameters[name]
		if !ok {
			// Allow raw values for out-of-space parameters.
			newParameters[name] = value
			continue
		}
		cast, err := parameter.Cast(value)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot cast %s: %v", core.ErrTypeMismatch, name, err)
		}
		newParameters[name] = cast
	}
	if arm.HasName() {
		return NewArm(newParameters, arm.Name()), nil
	}
	return NewUnnamedArm(newParameters), nil
}

// ConstructArm builds an arm with every declared parameter defaulted to
// unset (nil), overlaying the supplied values after validating them. An
// empty name yields an unnamed arm.
func (s *SearchSpace) ConstructArm(parameters Parameterization, name string) (*Arm, error) {
	final := make(Parameterization, len(s.parameters))
	for pname := range s.parameters {
		final[pname] = nil
	}
	for pname, value := range parameters {
		parameter, ok := s.parameters[pname]
		if !ok {
			return nil, fmt.Errorf("%w: `%s` does not exist in search space", core.ErrParameterNotFound, pname)
		}
		if value != nil && !parameter.Validate(value) {
			return nil, core.NewDomainViolationError(pname, value)
		}
		final[pname] = value
	}
	if name != "" {
		return NewArm(final, name), nil
	}
	return NewUnnamedArm(final), nil
}

// OutOfDesignArm creates a default arm with every parameter unset. In the
// modeling conversion such arms are stripped to an empty mapping, since the
// point is already outside the modeled space.
func (s *SearchSpace) OutOfDesignArm() *Arm {
	arm, _ := s.ConstructArm(nil, "")
	return arm
}

// ValidateMembership runs the raising membership check, then additionally
// enforces an exact-type match between each supplied value and its
// parameter's declared type. Constraint checking is numerically permissive;
// final validation is not.
func (s *SearchSpace) ValidateMembership(p Parameterization) error {
	if err := s.RequireMembership(p, true); err != nil {
		return err
	}
	return s.requireExactTypes(p, nil)
}

// requireExactTypes enforces strict value types for every declared
// parameter, skipping names in the skip set (used by hierarchical spaces
// for inapplicable parameters).
func (s *SearchSpace) requireExactTypes(p Parameterization, skip map[string]bool) error {
	for _, name := range s.order {
		if skip != nil && skip[name] {
			continue
		}
		value := p[name]
		if !s.parameters[name].IsExactType(value) {
			return fmt.Errorf("%w: value for parameter %s: %v is of type %T, expected %s",
				core.ErrTypeMismatch, name, value, value, s.parameters[name].Type())
		}
	}
	return nil
}

// Clone returns a deep value-copy of parameters and constraints
func (s *SearchSpace) Clone() *SearchSpace {
	parameters := make([]param.Parameter, 0, len(s.order))
	for _, name := range s.order {
		parameters = append(parameters, s.parameters[name].Clone())
	}
	constraints := make([]param.Constraint, 0, len(s.constraints))
	for _, c := range s.constraints {
		constraints = append(constraints, c.Clone())
	}
	clone, err := NewSearchSpace(parameters, constraints)
	if err != nil {
		// A valid space always clones to a valid space.
		panic(err)
	}
	return clone
}

// IsRobust reports whether the space carries parameter distributions;
// RobustSearchSpace shadows this
func (s *SearchSpace) IsRobust() bool { return false }

// IsHierarchical reports whether any parameter declares dependents
func (s *SearchSpace) IsHierarchical() bool {
	for _, name := range s.order {
		if s.parameters[name].IsHierarchical() {
			return true
		}
	}
	return false
}

func (s *SearchSpace) String() string {
	params := make([]string, len(s.order))
	for i, name := range s.order {
		params[i] = s.parameters[name].String()
	}
	constraints := make([]string, len(s.constraints))
	for i, c := range s.constraints {
		constraints[i] = c.String()
	}
	return fmt.Sprintf("SearchSpace(parameters=[%s], parameter_constraints=[%s])",
		strings.Join(params, ", "), strings.Join(constraints, ", "))
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
