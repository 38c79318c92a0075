package searchspace

import (
	"fmt"
	"math/rand"

	"gotune/domain/core"
	"gotune/domain/param"
)

// SearchSpaceDigest is the flat, array-oriented snapshot of a search
// space's structure handed to the model-fitting layer. FeatureNames defines
// the index-to-name mapping for every other field. A digest is never
// mutated after construction and carries no back-reference to the space.
type SearchSpaceDigest struct {
	FeatureNames        []string
	Bounds              [][2]float64
	OrdinalFeatures     []int
	CategoricalFeatures []int
	DiscreteChoices     map[int][]float64
	TaskFeatures        []int
	FidelityFeatures    []int
	TargetValues        map[int]float64
	Robust              *RobustSearchSpaceDigest
}

// RobustSearchSpaceDigest carries the robust-specific digest attributes.
// Each sampler returns NumSamples x d draws: d is the number of
// non-environmental parameters for SamplePerturbations and the number of
// environmental variables for SampleEnvironmental.
type RobustSearchSpaceDigest struct {
	SamplePerturbations    func() [][]float64
	SampleEnvironmental    func() [][]float64
	EnvironmentalVariables []string
	Multiplicative         bool
}

// NewRobustSearchSpaceDigest requires at least one sampler
func NewRobustSearchSpaceDigest(
	samplePerturbations, sampleEnvironmental func() [][]float64,
	environmentalVariables []string,
	multiplicative bool,
) (*RobustSearchSpaceDigest, error) {
	if samplePerturbations == nil && sampleEnvironmental == nil {
		return nil, core.NewDefinitionError("robust digest",
			"must be initialized with at least one of the perturbation and environmental samplers")
	}
	return &RobustSearchSpaceDigest{
		SamplePerturbations:    samplePerturbations,
		SampleEnvironmental:    sampleEnvironmental,
		EnvironmentalVariables: environmentalVariables,
		Multiplicative:         multiplicative,
	}, nil
}

// ExtractDigest projects a search space into a digest. Every parameter must
// be numeric; transform non-numeric parameters before extraction.
func ExtractDigest(s *SearchSpace) (*SearchSpaceDigest, error) {
	d := &SearchSpaceDigest{
		DiscreteChoices: make(map[int][]float64),
		TargetValues:    make(map[int]float64),
	}

	for i, p := range s.Parameters() {
		if !p.IsNumeric() {
			return nil, core.NewUnsupportedError("digest extraction",
				fmt.Sprintf("parameter %s is not numeric; transform the space before extracting a digest", p.Name()))
		}
		d.FeatureNames = append(d.FeatureNames, p.Name())

		switch typed := p.(type) {
		case *param.RangeParameter:
			d.Bounds = append(d.Bounds, [2]float64{typed.Lower(), typed.Upper()})
			if typed.Type() == param.TypeInt {
				d.OrdinalFeatures = append(d.OrdinalFeatures, i)
			}
			if typed.IsFidelity() {
				d.FidelityFeatures = append(d.FidelityFeatures, i)
				target, _ := param.AsFloat(typed.TargetValue())
				d.TargetValues[i] = target
			}
		case *param.ChoiceParameter:
			values := make([]float64, 0, len(typed.Values()))
			lo, hi := 0.0, 0.0
			for j, v := range typed.Values() {
				f, ok := param.AsFloat(v)
				if !ok {
					return nil, core.NewUnsupportedError("digest extraction",
						fmt.Sprintf("choice parameter %s has non-numeric value %v", p.Name(), v))
				}
				values = append(values, f)
				if j == 0 || f < lo {
					lo = f
				}
				if j == 0 || f > hi {
					hi = f
				}
			}
			d.Bounds = append(d.Bounds, [2]float64{lo, hi})
			d.DiscreteChoices[i] = values
			if typed.Ordered() {
				d.OrdinalFeatures = append(d.OrdinalFeatures, i)
			} else {
				d.CategoricalFeatures = append(d.CategoricalFeatures, i)
			}
			if typed.IsTask() {
				d.TaskFeatures = append(d.TaskFeatures, i)
				target, _ := param.AsFloat(typed.TargetValue())
				d.TargetValues[i] = target
			}
		case *param.FixedParameter:
			f, _ := param.AsFloat(typed.Value())
			d.Bounds = append(d.Bounds, [2]float64{f, f})
		default:
			return nil, core.NewUnsupportedError("digest extraction",
				fmt.Sprintf("unhandled parameter kind %q on parameter %s", p.Kind(), p.Name()))
		}
	}

	return d, nil
}

// ExtractRobustDigest projects a robust search space into a digest whose
// Robust field carries sampler closures bound to the space's distributions.
// The samplers draw through the supplied RNG, so the draw stream is
// reproducible given a seed.
func ExtractRobustDigest(r *RobustSearchSpace, rng *rand.Rand) (*SearchSpaceDigest, error) {
	d, err := ExtractDigest(&r.SearchSpace)
	if err != nil {
		return nil, err
	}

	var sampleEnvironmental func() [][]float64
	if len(r.EnvironmentalDistributions()) > 0 {
		envOrder := r.EnvironmentalVariableNames()
		envDists := r.EnvironmentalDistributions()
		numSamples := r.NumSamples()
		sampleEnvironmental = func() [][]float64 {
			samples := make([][]float64, numSamples)
			for s := range samples {
				row := make([]float64, len(envOrder))
				for j, name := range envOrder {
					row[j] = sampleFor(envDists, name, rng)
				}
				samples[s] = row
			}
			return samples
		}
	}

	var samplePerturbations func() [][]float64
	if len(r.PerturbationDistributions()) > 0 {
		ordinary := r.OrdinaryParameters()
		names := make([]string, len(ordinary))
		for i, p := range ordinary {
			names[i] = p.Name()
		}
		perturbDists := r.PerturbationDistributions()
		numSamples := r.NumSamples()
		// Parameters without a perturbation distribution get the identity
		// element of the shared polarity.
		identity := 0.0
		if r.Multiplicative() {
			identity = 1.0
		}
		samplePerturbations = func() [][]float64 {
			samples := make([][]float64, numSamples)
			for s := range samples {
				row := make([]float64, len(names))
				for j, name := range names {
					if governed(perturbDists, name) {
						row[j] = sampleFor(perturbDists, name, rng)
					} else {
						row[j] = identity
					}
				}
				samples[s] = row
			}
			return samples
		}
	}

	robust, err := NewRobustSearchSpaceDigest(
		samplePerturbations,
		sampleEnvironmental,
		r.EnvironmentalVariableNames(),
		r.Multiplicative(),
	)
	if err != nil {
		return nil, err
	}
	d.Robust = robust
	return d, nil
}

func governed(dists []*param.Distribution, name string) bool {
	for _, d := range dists {
		if d.Covers(name) {
			return true
		}
	}
	return false
}

func sampleFor(dists []*param.Distribution, name string, rng *rand.Rand) float64 {
	for _, d := range dists {
		if d.Covers(name) {
			return d.Sample(rng)
		}
	}
	return 0
}
