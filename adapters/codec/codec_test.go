package codec

import (
	"testing"

	"gotune/domain/param"
	"gotune/domain/searchspace"
	"gotune/models"
)

func TestFlatRoundTrip(t *testing.T) {
	x1 := param.MustNewRangeParameter("x1", param.TypeFloat, 0, 1)
	x2 := param.MustNewRangeParameter("x2", param.TypeFloat, 0, 1)
	n := param.MustNewRangeParameter("n", param.TypeInt, 1, 10, param.WithFidelityTarget(10))
	c := param.MustNewChoiceParameter("c", param.TypeString, []param.Value{"a", "b", "c"}, param.WithOrdered())
	f := param.MustNewFixedParameter("f", param.TypeBool, false)
	sum, _ := param.NewSumConstraint([]param.Parameter{x1, x2}, false, 0.5)
	order, _ := param.NewOrderConstraint(x1, x2)
	linear, _ := param.NewLinearConstraint(map[string]float64{"x1": 2, "x2": -1}, 1)
	s := searchspace.MustNewSearchSpace(
		[]param.Parameter{x1, x2, n, c, f},
		[]param.Constraint{sum, order, linear},
	)

	data, err := EncodeFlat(s)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Kind != models.SpaceKindFlat || decoded.Flat == nil {
		t.Fatalf("decoded kind = %s", decoded.Kind)
	}

	got := decoded.Flat
	if got.NumParameters() != s.NumParameters() {
		t.Fatalf("parameter count = %d, want %d", got.NumParameters(), s.NumParameters())
	}
	for _, p := range s.Parameters() {
		other, err := got.Parameter(p.Name())
		if err != nil {
			t.Fatalf("parameter %s missing after round trip", p.Name())
		}
		if !p.Equal(other) {
			t.Errorf("parameter %s diverged: %s vs %s", p.Name(), p, other)
		}
	}
	if len(got.Constraints()) != 3 {
		t.Fatalf("constraint count = %d, want 3", len(got.Constraints()))
	}

	// Semantics survive: sum lower bound 0.5 and order x1 <= x2.
	if got.CheckMembership(searchspace.Parameterization{
		"x1": 0.1, "x2": 0.2, "n": 5, "c": "a", "f": false,
	}, true) {
		t.Error("x1+x2 = 0.3 violates the lower bound and should fail")
	}
	if !got.CheckMembership(searchspace.Parameterization{
		"x1": 0.3, "x2": 0.4, "n": 5, "c": "a", "f": false,
	}, true) {
		t.Error("a satisfying parameterization should pass after round trip")
	}
}

func TestHierarchicalRoundTrip(t *testing.T) {
	model := param.MustNewChoiceParameter("model", param.TypeString, []param.Value{"A", "B"},
		param.WithDependents(map[param.Value][]string{
			"A": {"lr"},
			"B": {"depth"},
		}))
	lr := param.MustNewRangeParameter("lr", param.TypeFloat, 0.001, 1, param.WithLogScale())
	depth := param.MustNewRangeParameter("depth", param.TypeInt, 1, 12)
	h := searchspace.MustNewHierarchicalSearchSpace([]param.Parameter{model, lr, depth}, nil)

	data, err := EncodeHierarchical(h)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Hierarchical == nil {
		t.Fatal("expected hierarchical space")
	}
	if decoded.Hierarchical.Root().Name() != "model" {
		t.Errorf("root = %s after round trip", decoded.Hierarchical.Root().Name())
	}

	cast, err := decoded.Hierarchical.CastParameterization(
		searchspace.Parameterization{"model": "B", "lr": 0.1, "depth": 3}, true)
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if _, ok := cast["lr"]; ok {
		t.Error("tree semantics lost: lr should be inapplicable under model=B")
	}
}

func TestHierarchicalRoundTrip_IntBranchKeys(t *testing.T) {
	// JSON turns int branch keys into float64; decoding must cast them back
	// so the dependents map matches the declared values.
	level := param.MustNewChoiceParameter("level", param.TypeInt, []param.Value{1, 2},
		param.WithDependents(map[param.Value][]string{1: {"extra"}}))
	extra := param.MustNewRangeParameter("extra", param.TypeFloat, 0, 1)
	h := searchspace.MustNewHierarchicalSearchSpace([]param.Parameter{level, extra}, nil)

	data, err := EncodeHierarchical(h)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !decoded.Hierarchical.CheckMembership(searchspace.Parameterization{"level": 1, "extra": 0.5}, true) {
		t.Error("int-keyed branch lost in round trip")
	}
}

func TestRobustRoundTrip(t *testing.T) {
	x := param.MustNewRangeParameter("x", param.TypeFloat, 0, 1)
	y := param.MustNewRangeParameter("y", param.TypeFloat, 0, 1)
	temp := param.MustNewRangeParameter("T", param.TypeFloat, -10, 40)
	envDist := param.MustNewDistribution([]string{"T"}, param.DistNormal, 20, 5, false)
	perturb := param.MustNewDistribution([]string{"x"}, param.DistNormal, 0, 0.01, false)
	r, err := searchspace.NewRobustSearchSpace(
		[]param.Parameter{x, y},
		[]*param.Distribution{envDist, perturb},
		16,
		[]param.Parameter{temp},
		nil,
	)
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	data, err := EncodeRobust(r)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	got := decoded.Robust
	if got == nil {
		t.Fatal("expected robust space")
	}
	if got.NumSamples() != 16 {
		t.Errorf("num samples = %d", got.NumSamples())
	}
	if !got.IsEnvironmentalVariable("T") {
		t.Error("environmental variable lost in round trip")
	}
	if len(got.PerturbationDistributions()) != 1 || len(got.EnvironmentalDistributions()) != 1 {
		t.Error("distribution partition lost in round trip")
	}
	if got.Multiplicative() {
		t.Error("polarity lost in round trip")
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte(`{"kind":"warped"}`)); err == nil {
		t.Error("unknown kind must fail")
	}
	if _, err := Decode([]byte(`{"kind":"robust","parameters":[]}`)); err == nil {
		t.Error("robust definition without robust section must fail")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("malformed JSON must fail")
	}
	bad := `{"kind":"flat","parameters":[{"kind":"range","name":"x","type":"float","lower":1,"upper":0}]}`
	if _, err := Decode([]byte(bad)); err == nil {
		t.Error("inverted bounds must surface the domain construction error")
	}
}
