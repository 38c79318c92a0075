package searchspace

import (
	"testing"
)

func TestArmSignatureIgnoresName(t *testing.T) {
	params := Parameterization{"x": 1, "y": 2.5}
	a := NewArm(params, "0_0")
	b := NewArm(params, "0_1")
	c := NewUnnamedArm(params)

	if a.Signature() != b.Signature() {
		t.Error("arms with equal parameterizations must share a signature")
	}
	if a.Signature() != c.Signature() {
		t.Error("naming an arm must not change its signature")
	}

	d := NewArm(Parameterization{"x": 1, "y": 2.6}, "0_0")
	if a.Signature() == d.Signature() {
		t.Error("different parameterizations must not share a signature")
	}
}

func TestArmParametersCopied(t *testing.T) {
	params := Parameterization{"x": 1}
	a := NewArm(params, "0_0")
	params["x"] = 2

	if a.Parameters()["x"] != 1 {
		t.Error("arm must not alias the caller's parameterization")
	}
}
