package param

import (
	"fmt"
	"math"
)

// Value is a single parameter value: int, float64, string or bool.
// A nil Value denotes "unset" (e.g. an out-of-design arm slot).
type Value interface{}

// ParameterType declares the value type a parameter accepts
type ParameterType string

const (
	TypeInt    ParameterType = "int"
	TypeFloat  ParameterType = "float"
	TypeString ParameterType = "string"
	TypeBool   ParameterType = "bool"
)

// IsNumeric reports whether the type participates in numeric constraints
func (t ParameterType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// IsValid reports whether t is one of the declared parameter types
func (t ParameterType) IsValid() bool {
	switch t {
	case TypeInt, TypeFloat, TypeString, TypeBool:
		return true
	}
	return false
}

// AsFloat widens a numeric value to float64. Returns false for non-numeric
// values (including bool, which is never treated as a number).
func AsFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// IsValidValueType checks a value against a declared type. Numeric types
// accept both int and float representations; integer types additionally
// require the value to be integral. Exactness is enforced separately by
// IsExactType.
func IsValidValueType(t ParameterType, v Value) bool {
	if v == nil {
		return false
	}
	switch t {
	case TypeInt:
		f, ok := AsFloat(v)
		return ok && f == math.Trunc(f)
	case TypeFloat:
		_, ok := AsFloat(v)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// IsExactType checks that a value's concrete type matches the declared type
// with no numeric widening: int parameters require int, float parameters
// require float64.
func IsExactType(t ParameterType, v Value) bool {
	switch t {
	case TypeInt:
		_, ok := v.(int)
		return ok
	case TypeFloat:
		_, ok := v.(float64)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	}
	return false
}

// CastValue converts a value to the canonical representation of the declared
// type. Integer casting truncates, matching the behavior relied on by
// midpoint synthesis (which offsets by 0.5 before casting).
func CastValue(t ParameterType, v Value) (Value, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeInt:
		f, ok := AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v (%T) to int", v, v)
		}
		return int(math.Trunc(f)), nil
	case TypeFloat:
		f, ok := AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v (%T) to float", v, v)
		}
		return f, nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v (%T) to string", v, v)
		}
		return s, nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("cannot cast %v (%T) to bool", v, v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown parameter type %q", t)
}

// ValueEqual compares two values after canonical casting, so 1 and 1.0
// compare equal for numeric values of the same declared type.
func ValueEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := AsFloat(a)
	bf, bok := AsFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}
