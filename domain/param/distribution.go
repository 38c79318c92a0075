package param

import (
	"fmt"
	"math/rand"
	"strings"

	"gotune/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// DistributionKind names the supported distribution families
type DistributionKind string

const (
	DistNormal    DistributionKind = "normal"
	DistUniform   DistributionKind = "uniform"
	DistLogNormal DistributionKind = "lognormal"
)

// Distribution describes the probability distribution of one or more
// parameters in a robust search space, either as an environmental-variable
// distribution or as an input perturbation. Loc and Scale follow the
// loc/scale convention: mean/stddev for normal and lognormal (of the
// underlying normal), offset/width for uniform.
type Distribution struct {
	parameters     []string
	kind           DistributionKind
	loc            float64
	scale          float64
	multiplicative bool
}

// NewDistribution creates a parameter distribution covering the named
// parameters
func NewDistribution(parameters []string, kind DistributionKind, loc, scale float64, multiplicative bool) (*Distribution, error) {
	if len(parameters) == 0 {
		return nil, core.NewDefinitionError("distribution", "must cover at least one parameter")
	}
	seen := make(map[string]bool, len(parameters))
	for _, name := range parameters {
		if name == "" {
			return nil, core.NewDefinitionError("distribution", "parameter name cannot be empty")
		}
		if seen[name] {
			return nil, core.NewDefinitionError("distribution", fmt.Sprintf("duplicate parameter %s", name))
		}
		seen[name] = true
	}
	switch kind {
	case DistNormal, DistLogNormal:
		if scale <= 0 {
			return nil, core.NewDefinitionError("distribution", fmt.Sprintf("%s requires a positive scale", kind))
		}
	case DistUniform:
		if scale <= 0 {
			return nil, core.NewDefinitionError("distribution", "uniform requires a positive width")
		}
	default:
		return nil, core.NewDefinitionError("distribution", fmt.Sprintf("unknown kind %q", kind))
	}
	return &Distribution{
		parameters:     append([]string(nil), parameters...),
		kind:           kind,
		loc:            loc,
		scale:          scale,
		multiplicative: multiplicative,
	}, nil
}

// MustNewDistribution panics on construction error; for static definitions
func MustNewDistribution(parameters []string, kind DistributionKind, loc, scale float64, multiplicative bool) *Distribution {
	d, err := NewDistribution(parameters, kind, loc, scale, multiplicative)
	if err != nil {
		panic(err)
	}
	return d
}

// Parameters returns the covered parameter names
func (d *Distribution) Parameters() []string {
	return append([]string(nil), d.parameters...)
}

// Covers reports whether the distribution governs the named parameter
func (d *Distribution) Covers(name string) bool {
	for _, p := range d.parameters {
		if p == name {
			return true
		}
	}
	return false
}

// Kind returns the distribution family
func (d *Distribution) Kind() DistributionKind { return d.kind }

// Loc returns the location parameter
func (d *Distribution) Loc() float64 { return d.loc }

// Scale returns the scale parameter
func (d *Distribution) Scale() float64 { return d.scale }

// Multiplicative reports whether draws perturb multiplicatively
func (d *Distribution) Multiplicative() bool { return d.multiplicative }

// Quantile inverts the CDF at probability p
func (d *Distribution) Quantile(p float64) float64 {
	switch d.kind {
	case DistNormal:
		return distuv.Normal{Mu: d.loc, Sigma: d.scale}.Quantile(p)
	case DistUniform:
		return distuv.Uniform{Min: d.loc, Max: d.loc + d.scale}.Quantile(p)
	case DistLogNormal:
		return distuv.LogNormal{Mu: d.loc, Sigma: d.scale}.Quantile(p)
	}
	return 0
}

// Sample draws one value via inverse-transform sampling, so the draw stream
// is fully determined by the supplied RNG
func (d *Distribution) Sample(rng *rand.Rand) float64 {
	return d.Quantile(rng.Float64())
}

// Clone returns a deep copy
func (d *Distribution) Clone() *Distribution {
	clone := *d
	clone.parameters = append([]string(nil), d.parameters...)
	return &clone
}

func (d *Distribution) String() string {
	mode := "additive"
	if d.multiplicative {
		mode = "multiplicative"
	}
	return fmt.Sprintf("Distribution(%s, kind=%s, loc=%v, scale=%v, %s)",
		strings.Join(d.parameters, ", "), d.kind, d.loc, d.scale, mode)
}
