// Package codec owns the JSON wire format for search space definitions.
// The domain objects never marshal themselves; persistence and transport
// adapters go through this package so the wire format can evolve without
// touching domain code.
package codec

import (
	"encoding/json"
	"fmt"

	"gotune/domain/param"
	"gotune/domain/searchspace"
	"gotune/models"
)

// spaceEnvelope is the top-level wire form of any search space kind
type spaceEnvelope struct {
	Kind        string               `json:"kind"`
	Parameters  []parameterEnvelope  `json:"parameters"`
	Constraints []constraintEnvelope `json:"constraints,omitempty"`
	Robust      *robustEnvelope      `json:"robust,omitempty"`
}

type robustEnvelope struct {
	NumSamples             int                    `json:"num_samples"`
	EnvironmentalVariables []parameterEnvelope    `json:"environmental_variables,omitempty"`
	Distributions          []distributionEnvelope `json:"distributions"`
}

// parameterEnvelope is the wire form of one parameter of any kind. Fields
// irrelevant to a kind stay zero and are omitted.
type parameterEnvelope struct {
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	Lower       float64            `json:"lower,omitempty"`
	Upper       float64            `json:"upper,omitempty"`
	LogScale    bool               `json:"log_scale,omitempty"`
	LogitScale  bool               `json:"logit_scale,omitempty"`
	IsFidelity  bool               `json:"is_fidelity,omitempty"`
	Values      []param.Value      `json:"values,omitempty"`
	Ordered     bool               `json:"ordered,omitempty"`
	IsTask      bool               `json:"is_task,omitempty"`
	TargetValue param.Value        `json:"target_value,omitempty"`
	Value       param.Value        `json:"value,omitempty"`
	Dependents  []dependentsBranch `json:"dependents,omitempty"`
}

// dependentsBranch lists the parameters applicable under one value. A list
// of pairs rather than a JSON object: dependent keys are typed values, not
// strings.
type dependentsBranch struct {
	Value      param.Value `json:"value"`
	Parameters []string    `json:"parameters"`
}

type constraintEnvelope struct {
	Kind         string             `json:"kind"`
	Lower        string             `json:"lower,omitempty"`
	Upper        string             `json:"upper,omitempty"`
	Parameters   []string           `json:"parameters,omitempty"`
	IsUpperBound bool               `json:"is_upper_bound,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Bound        float64            `json:"bound"`
}

type distributionEnvelope struct {
	Parameters     []string `json:"parameters"`
	Kind           string   `json:"kind"`
	Loc            float64  `json:"loc"`
	Scale          float64  `json:"scale"`
	Multiplicative bool     `json:"multiplicative,omitempty"`
}

// DecodedSpace is the result of decoding a definition; exactly one of the
// space fields is set, matching Kind.
type DecodedSpace struct {
	Kind         string
	Flat         *searchspace.SearchSpace
	Hierarchical *searchspace.HierarchicalSearchSpace
	Robust       *searchspace.RobustSearchSpace
}

// EncodeFlat serializes a flat search space
func EncodeFlat(s *searchspace.SearchSpace) ([]byte, error) {
	env := spaceEnvelope{
		Kind:        models.SpaceKindFlat,
		Parameters:  encodeParameters(s.Parameters()),
		Constraints: encodeConstraints(s.Constraints()),
	}
	return json.Marshal(env)
}

// EncodeHierarchical serializes a hierarchical search space. The tree is
// implicit in the dependents declarations; decoding rediscovers the root.
func EncodeHierarchical(h *searchspace.HierarchicalSearchSpace) ([]byte, error) {
	env := spaceEnvelope{
		Kind:        models.SpaceKindHierarchical,
		Parameters:  encodeParameters(h.Parameters()),
		Constraints: encodeConstraints(h.Constraints()),
	}
	return json.Marshal(env)
}

// EncodeRobust serializes a robust search space
func EncodeRobust(r *searchspace.RobustSearchSpace) ([]byte, error) {
	dists := make([]distributionEnvelope, 0, len(r.Distributions()))
	for _, d := range r.Distributions() {
		dists = append(dists, distributionEnvelope{
			Parameters:     d.Parameters(),
			Kind:           string(d.Kind()),
			Loc:            d.Loc(),
			Scale:          d.Scale(),
			Multiplicative: d.Multiplicative(),
		})
	}
	env := spaceEnvelope{
		Kind:        models.SpaceKindRobust,
		Parameters:  encodeParameters(r.OrdinaryParameters()),
		Constraints: encodeConstraints(r.Constraints()),
		Robust: &robustEnvelope{
			NumSamples:             r.NumSamples(),
			EnvironmentalVariables: encodeParameters(r.EnvironmentalVariables()),
			Distributions:          dists,
		},
	}
	return json.Marshal(env)
}

// Decode deserializes a definition produced by one of the Encode functions
func Decode(data []byte) (*DecodedSpace, error) {
	var env spaceEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode space definition: %w", err)
	}

	parameters, err := decodeParameters(env.Parameters)
	if err != nil {
		return nil, err
	}
	constraints, err := decodeConstraints(env.Constraints, parameters)
	if err != nil {
		return nil, err
	}

	switch env.Kind {
	case models.SpaceKindFlat:
		s, err := searchspace.NewSearchSpace(parameters, constraints)
		if err != nil {
			return nil, err
		}
		return &DecodedSpace{Kind: env.Kind, Flat: s}, nil

	case models.SpaceKindHierarchical:
		h, err := searchspace.NewHierarchicalSearchSpace(parameters, constraints)
		if err != nil {
			return nil, err
		}
		return &DecodedSpace{Kind: env.Kind, Hierarchical: h}, nil

	case models.SpaceKindRobust:
		if env.Robust == nil {
			return nil, fmt.Errorf("robust space definition is missing the robust section")
		}
		envVars, err := decodeParameters(env.Robust.EnvironmentalVariables)
		if err != nil {
			return nil, err
		}
		dists := make([]*param.Distribution, 0, len(env.Robust.Distributions))
		for _, de := range env.Robust.Distributions {
			d, err := param.NewDistribution(de.Parameters, param.DistributionKind(de.Kind), de.Loc, de.Scale, de.Multiplicative)
			if err != nil {
				return nil, err
			}
			dists = append(dists, d)
		}
		r, err := searchspace.NewRobustSearchSpace(parameters, dists, env.Robust.NumSamples, envVars, constraints)
		if err != nil {
			return nil, err
		}
		return &DecodedSpace{Kind: env.Kind, Robust: r}, nil
	}

	return nil, fmt.Errorf("unknown space kind %q", env.Kind)
}

func encodeParameters(parameters []param.Parameter) []parameterEnvelope {
	out := make([]parameterEnvelope, 0, len(parameters))
	for _, p := range parameters {
		out = append(out, encodeParameter(p))
	}
	return out
}

func encodeParameter(p param.Parameter) parameterEnvelope {
	env := parameterEnvelope{
		Kind:       string(p.Kind()),
		Name:       p.Name(),
		Type:       string(p.Type()),
		Dependents: encodeDependents(p.Dependents()),
	}
	switch typed := p.(type) {
	case *param.RangeParameter:
		env.Lower = typed.Lower()
		env.Upper = typed.Upper()
		env.LogScale = typed.LogScale()
		env.LogitScale = typed.LogitScale()
		env.IsFidelity = typed.IsFidelity()
		env.TargetValue = typed.TargetValue()
	case *param.ChoiceParameter:
		env.Values = typed.Values()
		env.Ordered = typed.Ordered()
		env.IsTask = typed.IsTask()
		env.TargetValue = typed.TargetValue()
	case *param.FixedParameter:
		env.Value = typed.Value()
	}
	return env
}

func encodeDependents(deps map[param.Value][]string) []dependentsBranch {
	if len(deps) == 0 {
		return nil
	}
	out := make([]dependentsBranch, 0, len(deps))
	for v, names := range deps {
		out = append(out, dependentsBranch{Value: v, Parameters: names})
	}
	return out
}

func decodeParameters(envelopes []parameterEnvelope) ([]param.Parameter, error) {
	out := make([]param.Parameter, 0, len(envelopes))
	for _, env := range envelopes {
		p, err := decodeParameter(env)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeParameter(env parameterEnvelope) (param.Parameter, error) {
	ptype := param.ParameterType(env.Type)

	deps, err := decodeDependents(env.Dependents, ptype)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", env.Name, err)
	}

	switch env.Kind {
	case string(param.KindRange):
		var opts []param.RangeOption
		if env.LogScale {
			opts = append(opts, param.WithLogScale())
		}
		if env.LogitScale {
			opts = append(opts, param.WithLogitScale())
		}
		if env.IsFidelity {
			target, err := param.CastValue(ptype, env.TargetValue)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", env.Name, err)
			}
			opts = append(opts, param.WithFidelityTarget(target))
		}
		return param.NewRangeParameter(env.Name, ptype, env.Lower, env.Upper, opts...)

	case string(param.KindChoice):
		values, err := castValues(ptype, env.Values)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", env.Name, err)
		}
		var opts []param.ChoiceOption
		if env.Ordered {
			opts = append(opts, param.WithOrdered())
		}
		if env.IsTask {
			target, err := param.CastValue(ptype, env.TargetValue)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", env.Name, err)
			}
			opts = append(opts, param.WithTaskTarget(target))
		}
		if deps != nil {
			opts = append(opts, param.WithDependents(deps))
		}
		return param.NewChoiceParameter(env.Name, ptype, values, opts...)

	case string(param.KindFixed):
		value, err := param.CastValue(ptype, env.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", env.Name, err)
		}
		var opts []param.FixedOption
		if deps != nil {
			opts = append(opts, param.WithFixedDependents(deps))
		}
		return param.NewFixedParameter(env.Name, ptype, value, opts...)
	}

	return nil, fmt.Errorf("parameter %s: unknown kind %q", env.Name, env.Kind)
}

// decodeDependents casts the branch keys back to the parameter's declared
// type; JSON numbers arrive as float64 regardless of the declared type.
func decodeDependents(branches []dependentsBranch, ptype param.ParameterType) (map[param.Value][]string, error) {
	if len(branches) == 0 {
		return nil, nil
	}
	out := make(map[param.Value][]string, len(branches))
	for _, b := range branches {
		key, err := param.CastValue(ptype, b.Value)
		if err != nil {
			return nil, err
		}
		out[key] = append([]string(nil), b.Parameters...)
	}
	return out, nil
}

func castValues(ptype param.ParameterType, values []param.Value) ([]param.Value, error) {
	out := make([]param.Value, 0, len(values))
	for _, v := range values {
		cast, err := param.CastValue(ptype, v)
		if err != nil {
			return nil, err
		}
		out = append(out, cast)
	}
	return out, nil
}

func encodeConstraints(constraints []param.Constraint) []constraintEnvelope {
	out := make([]constraintEnvelope, 0, len(constraints))
	for _, c := range constraints {
		switch typed := c.(type) {
		case *param.OrderConstraint:
			out = append(out, constraintEnvelope{
				Kind:  "order",
				Lower: typed.LowerParameter().Name(),
				Upper: typed.UpperParameter().Name(),
			})
		case *param.SumConstraint:
			// Bound() is sign-flipped into canonical <= form for lower
			// bounds; undo that to store the declared bound.
			bound := typed.Bound()
			if !typed.IsUpperBound() {
				bound = -bound
			}
			out = append(out, constraintEnvelope{
				Kind:         "sum",
				Parameters:   typed.ParameterNames(),
				IsUpperBound: typed.IsUpperBound(),
				Bound:        bound,
			})
		default:
			out = append(out, constraintEnvelope{
				Kind:         "linear",
				Coefficients: c.ConstraintDict(),
				Bound:        c.Bound(),
			})
		}
	}
	return out
}

func decodeConstraints(envelopes []constraintEnvelope, parameters []param.Parameter) ([]param.Constraint, error) {
	if len(envelopes) == 0 {
		return nil, nil
	}
	byName := make(map[string]param.Parameter, len(parameters))
	for _, p := range parameters {
		byName[p.Name()] = p
	}

	out := make([]param.Constraint, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Kind {
		case "order":
			lower, ok := byName[env.Lower]
			if !ok {
				return nil, fmt.Errorf("order constraint references unknown parameter %q", env.Lower)
			}
			upper, ok := byName[env.Upper]
			if !ok {
				return nil, fmt.Errorf("order constraint references unknown parameter %q", env.Upper)
			}
			c, err := param.NewOrderConstraint(lower, upper)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		case "sum":
			refs := make([]param.Parameter, 0, len(env.Parameters))
			for _, name := range env.Parameters {
				p, ok := byName[name]
				if !ok {
					return nil, fmt.Errorf("sum constraint references unknown parameter %q", name)
				}
				refs = append(refs, p)
			}
			c, err := param.NewSumConstraint(refs, env.IsUpperBound, env.Bound)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		case "linear":
			c, err := param.NewLinearConstraint(env.Coefficients, env.Bound)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		default:
			return nil, fmt.Errorf("unknown constraint kind %q", env.Kind)
		}
	}
	return out, nil
}
