package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// DefinitionHash fingerprints a search space definition for change detection.
	DefinitionHash Hash
	// ArmSignature identifies an arm by its parameterization, independent of name.
	ArmSignature Hash
)

// Constructors
func NewDefinitionHash(data []byte) DefinitionHash { return DefinitionHash(NewHash(data)) }
func NewArmSignature(data []byte) ArmSignature     { return ArmSignature(NewHash(data)) }

// String conversions
func (h DefinitionHash) String() string { return Hash(h).String() }
func (h ArmSignature) String() string   { return Hash(h).String() }

// ComputeArmSignature hashes a parameterization in sorted-key order so that
// two arms with the same parameter values always share a signature.
func ComputeArmSignature(parameters map[string]interface{}) ArmSignature {
	keys := make([]string, 0, len(parameters))
	for k := range parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("=%v;", parameters[key]))
	}

	return NewArmSignature([]byte(data.String()))
}
