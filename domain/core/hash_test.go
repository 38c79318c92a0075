package core

import (
	"testing"
)

// TestComputeArmSignature tests order independence of arm signatures
func TestComputeArmSignature(t *testing.T) {
	a := ComputeArmSignature(map[string]interface{}{"x": 1, "y": 2.5})
	b := ComputeArmSignature(map[string]interface{}{"y": 2.5, "x": 1})
	if a != b {
		t.Error("Signature must not depend on map iteration order")
	}

	c := ComputeArmSignature(map[string]interface{}{"x": 1, "y": 2.6})
	if a == c {
		t.Error("Different parameterizations must not collide")
	}
}
