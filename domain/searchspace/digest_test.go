package searchspace

import (
	"math/rand"
	"testing"

	"gotune/domain/param"
)

func TestExtractDigest_Flat(t *testing.T) {
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	n := param.MustNewRangeParameter("n", param.TypeInt, 1, 5)
	c := param.MustNewChoiceParameter("c", param.TypeFloat, []param.Value{0.1, 0.2, 0.4})
	fidelity := param.MustNewRangeParameter("steps", param.TypeInt, 10, 1000, param.WithFidelityTarget(1000))
	fixed := param.MustNewFixedParameter("bias", param.TypeFloat, 0.5)
	s := MustNewSearchSpace([]param.Parameter{x, n, c, fidelity, fixed}, nil)

	d, err := ExtractDigest(s)
	if err != nil {
		t.Fatalf("ExtractDigest failed: %v", err)
	}

	wantNames := []string{"x", "n", "c", "steps", "bias"}
	if len(d.FeatureNames) != len(wantNames) {
		t.Fatalf("feature names = %v, want %v", d.FeatureNames, wantNames)
	}
	for i, name := range wantNames {
		if d.FeatureNames[i] != name {
			t.Errorf("feature %d = %s, want %s", i, d.FeatureNames[i], name)
		}
	}

	if d.Bounds[0] != [2]float64{0, 1} {
		t.Errorf("x bounds = %v", d.Bounds[0])
	}
	if d.Bounds[4] != [2]float64{0.5, 0.5} {
		t.Errorf("fixed bounds = %v, want degenerate interval", d.Bounds[4])
	}

	// n (index 1) is an int range -> ordinal; c (index 2) unordered choice
	// -> categorical with discrete values.
	if len(d.OrdinalFeatures) != 2 || d.OrdinalFeatures[0] != 1 {
		t.Errorf("ordinal features = %v", d.OrdinalFeatures)
	}
	if len(d.CategoricalFeatures) != 1 || d.CategoricalFeatures[0] != 2 {
		t.Errorf("categorical features = %v", d.CategoricalFeatures)
	}
	choices := d.DiscreteChoices[2]
	if len(choices) != 3 || choices[0] != 0.1 || choices[2] != 0.4 {
		t.Errorf("discrete choices = %v", choices)
	}

	if len(d.FidelityFeatures) != 1 || d.FidelityFeatures[0] != 3 {
		t.Errorf("fidelity features = %v", d.FidelityFeatures)
	}
	if d.TargetValues[3] != 1000 {
		t.Errorf("fidelity target = %v, want 1000", d.TargetValues[3])
	}
	if d.Robust != nil {
		t.Error("flat digest must not carry a robust digest")
	}
}

func TestExtractDigest_TaskFeature(t *testing.T) {
	task := param.MustNewChoiceParameter("variant", param.TypeInt, []param.Value{0, 1, 2},
		param.WithOrdered(), param.WithTaskTarget(1))
	s := MustNewSearchSpace([]param.Parameter{task}, nil)

	d, err := ExtractDigest(s)
	if err != nil {
		t.Fatalf("ExtractDigest failed: %v", err)
	}
	if len(d.TaskFeatures) != 1 || d.TaskFeatures[0] != 0 {
		t.Errorf("task features = %v", d.TaskFeatures)
	}
	if d.TargetValues[0] != 1 {
		t.Errorf("task target = %v, want 1", d.TargetValues[0])
	}
	if len(d.OrdinalFeatures) != 1 {
		t.Errorf("ordered choice should be ordinal, got %v", d.OrdinalFeatures)
	}
}

func TestExtractDigest_NonNumericRejected(t *testing.T) {
	c := param.MustNewChoiceParameter("c", param.TypeString, []param.Value{"a", "b"})
	s := MustNewSearchSpace([]param.Parameter{c}, nil)

	if _, err := ExtractDigest(s); err == nil {
		t.Error("non-numeric parameter must be rejected until transformed")
	}
}

func TestExtractRobustDigest_Samplers(t *testing.T) {
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	y := param.MustNewRangeParameter("y", param.TypeFloat, 0, 1)
	temp := param.MustNewRangeParameter("T", param.TypeFloat, -10, 40)
	envDist := param.MustNewDistribution([]string{"T"}, param.DistNormal, 20, 5, false)
	perturb := param.MustNewDistribution([]string{"x"}, param.DistNormal, 0, 0.01, false)

	r, err := NewRobustSearchSpace(
		[]param.Parameter{x, y},
		[]*param.Distribution{envDist, perturb},
		8,
		[]param.Parameter{temp},
		nil,
	)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	d, err := ExtractRobustDigest(r, rand.New(rand.NewSource(123)))
	if err != nil {
		t.Fatalf("ExtractRobustDigest failed: %v", err)
	}
	robust := d.Robust
	if robust == nil {
		t.Fatal("robust digest missing")
	}
	if robust.Multiplicative {
		t.Error("additive space should report multiplicative=false")
	}
	if len(robust.EnvironmentalVariables) != 1 || robust.EnvironmentalVariables[0] != "T" {
		t.Errorf("environmental variables = %v", robust.EnvironmentalVariables)
	}

	env := robust.SampleEnvironmental()
	if len(env) != 8 || len(env[0]) != 1 {
		t.Fatalf("environmental sample shape = %dx%d, want 8x1", len(env), len(env[0]))
	}

	pert := robust.SamplePerturbations()
	if len(pert) != 8 || len(pert[0]) != 2 {
		t.Fatalf("perturbation sample shape = %dx%d, want 8x2", len(pert), len(pert[0]))
	}
	// y has no perturbation distribution: additive identity fills its column.
	for _, row := range pert {
		if row[1] != 0 {
			t.Errorf("uncovered parameter should use the additive identity, got %v", row[1])
		}
	}
}

func TestExtractRobustDigest_Determinism(t *testing.T) {
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	perturb := param.MustNewDistribution([]string{"x"}, param.DistNormal, 0, 1, false)
	r, err := NewRobustSearchSpace([]param.Parameter{x}, []*param.Distribution{perturb}, 4, nil, nil)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	d1, _ := ExtractRobustDigest(r, rand.New(rand.NewSource(7)))
	d2, _ := ExtractRobustDigest(r, rand.New(rand.NewSource(7)))
	s1 := d1.Robust.SamplePerturbations()
	s2 := d2.Robust.SamplePerturbations()
	for i := range s1 {
		if s1[i][0] != s2[i][0] {
			t.Fatal("equal seeds should produce equal sampler streams")
		}
	}
	if d1.Robust.SampleEnvironmental != nil {
		t.Error("no environmental distributions: environmental sampler should be nil")
	}
}

func TestNewRobustSearchSpaceDigest_RequiresSampler(t *testing.T) {
	if _, err := NewRobustSearchSpaceDigest(nil, nil, nil, false); err == nil {
		t.Error("digest with no samplers must fail")
	}
}

func TestSummaryRows(t *testing.T) {
	model := param.MustNewChoiceParameter("model", param.TypeString, []param.Value{"A", "B"},
		param.WithDependents(map[param.Value][]string{"A": {"lr"}, "B": {"depth"}}))
	lr := param.MustNewRangeParameter("lr", param.TypeFloat, 0.001, 1, param.WithLogScale())
	depth := param.MustNewRangeParameter("depth", param.TypeInt, 1, 12)
	h := MustNewHierarchicalSearchSpace([]param.Parameter{model, lr, depth}, nil)

	rows := h.SummaryRows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Name != "model" || rows[0].Type != "Choice" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[0].Dependents == "" {
		t.Error("hierarchical parameter should render dependents")
	}
	if rows[1].Flags != "log_scale" {
		t.Errorf("lr flags = %q, want log_scale", rows[1].Flags)
	}
}
