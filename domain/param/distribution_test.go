package param

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistribution_Quantile(t *testing.T) {
	uniform := MustNewDistribution([]string{"x"}, DistUniform, 1, 2, false)
	if q := uniform.Quantile(0.5); math.Abs(q-2.0) > 1e-9 {
		t.Errorf("uniform [1,3] median = %v, want 2", q)
	}

	normal := MustNewDistribution([]string{"x"}, DistNormal, 5, 1, false)
	if q := normal.Quantile(0.5); math.Abs(q-5.0) > 1e-9 {
		t.Errorf("normal median = %v, want loc 5", q)
	}

	lognormal := MustNewDistribution([]string{"x"}, DistLogNormal, 0, 1, false)
	if q := lognormal.Quantile(0.5); math.Abs(q-1.0) > 1e-9 {
		t.Errorf("lognormal(0,1) median = %v, want 1", q)
	}
}

func TestDistribution_SampleDeterminism(t *testing.T) {
	d := MustNewDistribution([]string{"x"}, DistNormal, 0, 1, false)

	a := rand.New(rand.NewSource(99))
	b := rand.New(rand.NewSource(99))
	for i := 0; i < 20; i++ {
		if d.Sample(a) != d.Sample(b) {
			t.Fatal("identical seeds should produce identical draw streams")
		}
	}
}

func TestDistribution_ConstructionErrors(t *testing.T) {
	if _, err := NewDistribution(nil, DistNormal, 0, 1, false); err == nil {
		t.Error("empty parameter list should fail")
	}
	if _, err := NewDistribution([]string{"x", "x"}, DistNormal, 0, 1, false); err == nil {
		t.Error("duplicate parameter should fail")
	}
	if _, err := NewDistribution([]string{"x"}, DistNormal, 0, 0, false); err == nil {
		t.Error("non-positive scale should fail")
	}
	if _, err := NewDistribution([]string{"x"}, "cauchy", 0, 1, false); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestDistribution_Covers(t *testing.T) {
	d := MustNewDistribution([]string{"x", "y"}, DistUniform, 0, 1, true)
	if !d.Covers("x") || !d.Covers("y") {
		t.Error("declared parameters should be covered")
	}
	if d.Covers("z") {
		t.Error("undeclared parameter should not be covered")
	}
	if !d.Multiplicative() {
		t.Error("multiplicative flag should round-trip")
	}
}
