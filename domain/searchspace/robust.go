package searchspace

import (
	"fmt"
	"strings"

	"gotune/domain/core"
	"gotune/domain/param"
)

// RobustSearchSpace supports distributionally-robust optimization: some
// parameters carry probability distributions, split into environmental
// variables (drawn, not chosen) and input perturbations on ordinary
// parameters. Distribution assignment rules are enforced at construction
// and the space is immutable with respect to parameter redefinition.
type RobustSearchSpace struct {
	SearchSpace
	numSamples     int
	distributions  []*param.Distribution
	envNames       map[string]bool
	envOrder       []string
	envDists       []*param.Distribution
	perturbDists   []*param.Distribution
	distributional map[string]bool
	multiplicative bool
}

// NewRobustSearchSpace creates a robust search space. NumSamples is the
// Monte Carlo sample count consumers draw per sampler call.
func NewRobustSearchSpace(
	parameters []param.Parameter,
	distributions []*param.Distribution,
	numSamples int,
	environmentalVariables []param.Parameter,
	constraints []param.Constraint,
) (*RobustSearchSpace, error) {
	if len(distributions) == 0 {
		return nil, core.NewDefinitionError("robust search space",
			"requires at least one parameter distribution; use SearchSpace instead")
	}
	if numSamples < 1 {
		return nil, core.NewDefinitionError("robust search space", "numSamples must be a positive integer")
	}

	envNames := make(map[string]bool, len(environmentalVariables))
	envOrder := make([]string, 0, len(environmentalVariables))
	for _, ev := range environmentalVariables {
		if envNames[ev.Name()] {
			return nil, core.NewDefinitionError("robust search space",
				fmt.Sprintf("environmental variable names must be unique; %s repeated", ev.Name()))
		}
		envNames[ev.Name()] = true
		envOrder = append(envOrder, ev.Name())
	}
	ordinaryNames := make(map[string]bool, len(parameters))
	for _, p := range parameters {
		ordinaryNames[p.Name()] = true
	}
	for _, name := range envOrder {
		if ordinaryNames[name] {
			return nil, core.NewDefinitionError("robust search space",
				fmt.Sprintf("environmental variable %s should not be repeated in parameters", name))
		}
	}

	// Constraints are validated against ordinary parameters only;
	// environmental variables may not appear in constraints.
	base, err := NewSearchSpace(parameters, constraints)
	if err != nil {
		return nil, err
	}

	r := &RobustSearchSpace{
		SearchSpace:   *base,
		numSamples:    numSamples,
		distributions: distributions,
		envNames:      envNames,
		envOrder:      envOrder,
	}
	// Environmental variables join the parameter view so membership, type
	// checking and casting see them like ordinary parameters.
	for _, ev := range environmentalVariables {
		if err := r.SearchSpace.AddParameter(ev); err != nil {
			return nil, err
		}
	}
	if err := r.validateDistributions(); err != nil {
		return nil, err
	}
	return r, nil
}

// validateDistributions enforces the distribution-assignment rules, in
// order: one governing distribution per parameter; every environmental
// variable covered; no env/non-env mixing inside one distribution; all
// environmental distributions additive; all distributional parameters are
// numeric range parameters; perturbation distributions share one polarity.
func (r *RobustSearchSpace) validateDistributions() error {
	r.distributional = make(map[string]bool)
	for _, d := range r.distributions {
		for _, name := range d.Parameters() {
			if r.distributional[name] {
				return core.NewDefinitionError("robust search space",
					fmt.Sprintf("received multiple parameter distributions for parameter %s; "+
						"at most one distribution may govern any given parameter", name))
			}
			r.distributional[name] = true
		}
	}

	for _, name := range r.envOrder {
		if !r.distributional[name] {
			return core.NewDefinitionError("robust search space",
				fmt.Sprintf("environmental variable %s must have a distribution specified", name))
		}
	}

	r.envDists = nil
	r.perturbDists = nil
	for _, d := range r.distributions {
		numEnv := 0
		for _, name := range d.Parameters() {
			if r.envNames[name] {
				numEnv++
			}
		}
		switch {
		case numEnv == 0:
			r.perturbDists = append(r.perturbDists, d)
		case numEnv == len(d.Parameters()):
			r.envDists = append(r.envDists, d)
		default:
			return core.NewUnsupportedError("robust search space",
				fmt.Sprintf("a distribution must cover either environmental variables or parameter "+
					"perturbations, not both; offending distribution: %s", d))
		}
	}

	for _, d := range r.envDists {
		if d.Multiplicative() {
			return core.NewDefinitionError("robust search space",
				"distributions of environmental variables must be additive")
		}
	}

	for name := range r.distributional {
		p, err := r.Parameter(name)
		if err != nil {
			return fmt.Errorf("%w: distribution covers unknown parameter %s", core.ErrUnknownParameter, name)
		}
		if _, ok := p.(*param.RangeParameter); !ok {
			return core.NewDefinitionError("robust search space",
				fmt.Sprintf("all parameters with an associated distribution must be range parameters; %s is not", name))
		}
	}

	numMultiplicative := 0
	for _, d := range r.perturbDists {
		if d.Multiplicative() {
			numMultiplicative++
		}
	}
	if numMultiplicative != 0 && numMultiplicative != len(r.perturbDists) {
		return core.NewUnsupportedError("robust search space",
			"non-environmental parameter distributions must be either all multiplicative or all additive")
	}
	r.multiplicative = numMultiplicative > 0
	return nil
}

// NumSamples is the Monte Carlo sample count per sampler call
func (r *RobustSearchSpace) NumSamples() int { return r.numSamples }

// Multiplicative reports the shared polarity of the perturbation
// distributions
func (r *RobustSearchSpace) Multiplicative() bool { return r.multiplicative }

// Distributions returns all parameter distributions
func (r *RobustSearchSpace) Distributions() []*param.Distribution {
	return append([]*param.Distribution(nil), r.distributions...)
}

// EnvironmentalDistributions returns the distributions covering
// environmental variables
func (r *RobustSearchSpace) EnvironmentalDistributions() []*param.Distribution {
	return append([]*param.Distribution(nil), r.envDists...)
}

// PerturbationDistributions returns the distributions covering ordinary
// parameters
func (r *RobustSearchSpace) PerturbationDistributions() []*param.Distribution {
	return append([]*param.Distribution(nil), r.perturbDists...)
}

// IsEnvironmentalVariable reports whether the named parameter is an
// environmental variable of this space
func (r *RobustSearchSpace) IsEnvironmentalVariable(name string) bool {
	return r.envNames[name]
}

// IsDistributional reports whether the named parameter is governed by a
// distribution
func (r *RobustSearchSpace) IsDistributional(name string) bool {
	return r.distributional[name]
}

// EnvironmentalVariables returns the environmental variables in declaration
// order
func (r *RobustSearchSpace) EnvironmentalVariables() []param.Parameter {
	out := make([]param.Parameter, 0, len(r.envOrder))
	for _, name := range r.envOrder {
		p, _ := r.Parameter(name)
		out = append(out, p)
	}
	return out
}

// EnvironmentalVariableNames returns the environmental variable names in
// declaration order
func (r *RobustSearchSpace) EnvironmentalVariableNames() []string {
	return append([]string(nil), r.envOrder...)
}

// OrdinaryParameters returns the non-environmental parameters in
// declaration order
func (r *RobustSearchSpace) OrdinaryParameters() []param.Parameter {
	var out []param.Parameter
	for _, p := range r.Parameters() {
		if !r.envNames[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// UpdateParameter is unsupported: distributions are bound to parameter
// definitions at construction
func (r *RobustSearchSpace) UpdateParameter(p param.Parameter) error {
	return core.NewUnsupportedError("UpdateParameter", "RobustSearchSpace does not support parameter redefinition")
}

// SetConstraints rejects constraints over environmental variables, then
// delegates
func (r *RobustSearchSpace) SetConstraints(constraints []param.Constraint) error {
	if err := r.rejectEnvironmentalConstraints(constraints); err != nil {
		return err
	}
	return r.SearchSpace.SetConstraints(constraints)
}

// AddConstraints rejects constraints over environmental variables, then
// delegates
func (r *RobustSearchSpace) AddConstraints(constraints []param.Constraint) error {
	if err := r.rejectEnvironmentalConstraints(constraints); err != nil {
		return err
	}
	return r.SearchSpace.AddConstraints(constraints)
}

func (r *RobustSearchSpace) rejectEnvironmentalConstraints(constraints []param.Constraint) error {
	for _, c := range constraints {
		for _, name := range c.ParameterNames() {
			if r.envNames[name] {
				return core.NewUnsupportedError("constraint",
					fmt.Sprintf("environmental variable %s cannot appear in a parameter constraint", name))
			}
		}
	}
	return nil
}

// Clone returns a deep copy
func (r *RobustSearchSpace) Clone() *RobustSearchSpace {
	ordinary := make([]param.Parameter, 0, len(r.OrdinaryParameters()))
	for _, p := range r.OrdinaryParameters() {
		ordinary = append(ordinary, p.Clone())
	}
	envs := make([]param.Parameter, 0, len(r.envOrder))
	for _, ev := range r.EnvironmentalVariables() {
		envs = append(envs, ev.Clone())
	}
	dists := make([]*param.Distribution, 0, len(r.distributions))
	for _, d := range r.distributions {
		dists = append(dists, d.Clone())
	}
	constraints := make([]param.Constraint, 0, len(r.Constraints()))
	for _, c := range r.Constraints() {
		constraints = append(constraints, c.Clone())
	}
	clone, err := NewRobustSearchSpace(ordinary, dists, r.numSamples, envs, constraints)
	if err != nil {
		panic(err)
	}
	return clone
}

// IsRobust always reports true; the flat SearchSpace reports false
func (r *RobustSearchSpace) IsRobust() bool { return true }

func (r *RobustSearchSpace) String() string {
	dists := make([]string, len(r.distributions))
	for i, d := range r.distributions {
		dists[i] = d.String()
	}
	return fmt.Sprintf("RobustSearchSpace(num_samples=%d, environmental_variables=%v, distributions=[%s])",
		r.numSamples, r.envOrder, strings.Join(dists, ", "))
}
