package searchspace

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"gotune/domain/core"
	"gotune/domain/param"
)

// HierarchicalSearchSpace is a search space whose parameters form a
// dependency tree: a parameter declares, per value, which other parameters
// become applicable. Exactly one root must exist, subtrees must be disjoint
// and every parameter must be reachable; construction fails otherwise and
// the object is never returned in an invalid state.
type HierarchicalSearchSpace struct {
	SearchSpace
	root param.Parameter
}

// NewHierarchicalSearchSpace creates a hierarchical search space, proving
// tree validity at construction
func NewHierarchicalSearchSpace(parameters []param.Parameter, constraints []param.Constraint) (*HierarchicalSearchSpace, error) {
	base, err := NewSearchSpace(parameters, constraints)
	if err != nil {
		return nil, err
	}
	h := &HierarchicalSearchSpace{SearchSpace: *base}
	if h.root, err = h.findRoot(); err != nil {
		return nil, err
	}
	if err := h.validateStructure(); err != nil {
		return nil, err
	}
	return h, nil
}

// MustNewHierarchicalSearchSpace panics on construction error
func MustNewHierarchicalSearchSpace(parameters []param.Parameter, constraints []param.Constraint) *HierarchicalSearchSpace {
	h, err := NewHierarchicalSearchSpace(parameters, constraints)
	if err != nil {
		panic(err)
	}
	return h
}

// Root is the single parameter no other parameter depends on
func (h *HierarchicalSearchSpace) Root() param.Parameter { return h.root }

// findRoot identifies the one parameter whose name appears in no dependents
// list. Zero or multiple candidates is a construction failure.
func (h *HierarchicalSearchSpace) findRoot() (param.Parameter, error) {
	dependentNames := make(map[string]bool)
	for _, p := range h.Parameters() {
		for _, name := range param.DependentNames(p) {
			dependentNames[name] = true
		}
	}

	var candidates []string
	for _, name := range h.ParameterNames() {
		if !dependentNames[name] {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) != 1 {
		return nil, fmt.Errorf("%w: found %d dependent parameters with %d total parameters; "+
			"root candidates: %v; multiple independent roots are not supported",
			core.ErrNoRoot, len(dependentNames), h.NumParameters(), candidates)
	}
	p, _ := h.Parameter(candidates[0])
	return p, nil
}

// validateStructure proves the dependency relation is a tree: a depth-first
// descent from the root in which sibling subtrees never share a parameter
// and every declared parameter is reached.
func (h *HierarchicalSearchSpace) validateStructure() error {
	visited, err := h.checkSubtree(h.root)
	if err != nil {
		return err
	}
	var unreached []string
	for _, name := range h.ParameterNames() {
		if !visited[name] {
			unreached = append(unreached, name)
		}
	}
	if len(unreached) > 0 {
		return fmt.Errorf("%w: parameters %v are not reachable from the root; "+
			"the search space must form a valid tree with a single root", core.ErrUnreachable, unreached)
	}
	return nil
}

func (h *HierarchicalSearchSpace) checkSubtree(root param.Parameter) (map[string]bool, error) {
	visited := map[string]bool{root.Name(): true}
	if !root.IsHierarchical() {
		return visited, nil
	}

	for _, deps := range root.Dependents() {
		for _, depName := range deps {
			dep, err := h.Parameter(depName)
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %s declares unknown dependent %s",
					core.ErrStructural, root.Name(), depName)
			}
			subtree, err := h.checkSubtree(dep)
			if err != nil {
				return nil, err
			}
			if visited, err = disjointUnion(visited, subtree); err != nil {
				return nil, err
			}
		}
	}
	return visited, nil
}

// disjointUnion merges visited sets, failing loudly when two subtrees share
// a parameter
func disjointUnion(set1, set2 map[string]bool) (map[string]bool, error) {
	for name := range set2 {
		if set1[name] {
			return nil, fmt.Errorf("%w: two subtrees in the search space contain the same parameter: %s",
				core.ErrOverlappingSubtrees, name)
		}
		set1[name] = true
	}
	return set1, nil
}

// Height is the longest dependency chain from the root
func (h *HierarchicalSearchSpace) Height() int {
	return h.heightFrom(h.root)
}

func (h *HierarchicalSearchSpace) heightFrom(p param.Parameter) int {
	if !p.IsHierarchical() {
		return 1
	}
	max := 0
	for _, deps := range p.Dependents() {
		for _, depName := range deps {
			dep, err := h.Parameter(depName)
			if err != nil {
				continue
			}
			if d := h.heightFrom(dep); d > max {
				max = d
			}
		}
	}
	return max + 1
}

// Flatten returns an ordinary SearchSpace over the same parameters and
// constraints, ignoring the tree
func (h *HierarchicalSearchSpace) Flatten() *SearchSpace {
	flat, err := NewSearchSpace(h.Parameters(), h.Constraints())
	if err != nil {
		panic(err)
	}
	return flat
}

// UpdateParameter permits flat-domain updates only; changes that would alter
// the dependency structure are unsupported because the tree is proven once
// at construction.
func (h *HierarchicalSearchSpace) UpdateParameter(p param.Parameter) error {
	prev, err := h.Parameter(p.Name())
	if err != nil {
		return err
	}
	if !dependentsMatch(prev, p) {
		return core.NewUnsupportedError("UpdateParameter",
			fmt.Sprintf("cannot change the dependents of parameter `%s` on a hierarchical search space", p.Name()))
	}
	return h.SearchSpace.UpdateParameter(p)
}

func dependentsMatch(a, b param.Parameter) bool {
	aDeps, bDeps := a.Dependents(), b.Dependents()
	if len(aDeps) != len(bDeps) {
		return false
	}
	for v, an := range aDeps {
		found := false
		for bv, bn := range bDeps {
			if param.ValueEqual(v, bv) {
				found = true
				if len(an) != len(bn) {
					return false
				}
				for i := range an {
					if an[i] != bn[i] {
						return false
					}
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CastParameterization restricts a parameterization to the parameters
// applicable under the tree: a parameter is applicable if it is the root or
// if its parent's value selects the branch that lists it. When
// checkAllParametersPresent is true, a missing applicable parameter is a
// hard failure; otherwise descent into its subtree simply terminates.
// Casting is idempotent: the applicable set is a fixed point once
// inapplicable keys are removed.
func (h *HierarchicalSearchSpace) CastParameterization(parameters Parameterization, checkAllParametersPresent bool) (Parameterization, error) {
	applicable := make(map[string]bool)
	if err := h.findApplicable(h.root, parameters, checkAllParametersPresent, applicable); err != nil {
		return nil, err
	}

	if checkAllParametersPresent {
		var missing []string
		for name := range applicable {
			if _, ok := parameters[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return nil, h.structuralCastError(parameters, fmt.Sprintf("parameters %v are missing", missing))
		}
	}

	cast := make(Parameterization)
	for name, value := range parameters {
		if applicable[name] {
			cast[name] = value
		}
	}
	return cast, nil
}

func (h *HierarchicalSearchSpace) findApplicable(root param.Parameter, parameters Parameterization, checkAll bool, applicable map[string]bool) error {
	applicable[root.Name()] = true
	rootVal, present := parameters[root.Name()]
	if checkAll && !present {
		return h.structuralCastError(parameters, fmt.Sprintf("parameter '%s' not in parameterization to cast", root.Name()))
	}

	// Descent stops at non-hierarchical parameters and at parameters the
	// parameterization does not carry; their dependents are excluded, not
	// defaulted.
	if !root.IsHierarchical() || !present {
		return nil
	}

	for val, deps := range root.Dependents() {
		if !param.ValueEqual(rootVal, val) {
			continue
		}
		for _, depName := range deps {
			dep, err := h.Parameter(depName)
			if err != nil {
				return err
			}
			if err := h.findApplicable(dep, parameters, checkAll, applicable); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *HierarchicalSearchSpace) structuralCastError(parameters Parameterization, detail string) error {
	return fmt.Errorf("%w: parameterization %s violates the hierarchical structure of the search space:\n%s%s",
		core.ErrStructural, parameters, h.HierarchicalStructureString(true), detail)
}

// CheckMembership reports whether the parameterization belongs in the
// hierarchical search space: the flat checks plus the requirement that the
// supplied keys are exactly the applicable set (a parameterization carrying
// inapplicable parameters is invalid).
func (h *HierarchicalSearchSpace) CheckMembership(p Parameterization, checkAllParametersPresent bool) bool {
	return h.RequireMembership(p, checkAllParametersPresent) == nil
}

// RequireMembership is the raising form of CheckMembership
func (h *HierarchicalSearchSpace) RequireMembership(p Parameterization, checkAllParametersPresent bool) error {
	if err := h.SearchSpace.RequireMembership(p, false); err != nil {
		return err
	}

	cast, err := h.CastParameterization(p, checkAllParametersPresent)
	if err != nil {
		return err
	}
	if !sameKeys(cast, p) {
		return fmt.Errorf("%w: parameterization violates the hierarchical structure of the search space; "+
			"cast version would have parameters %v, but full version contains parameters %v",
			core.ErrStructural, cast.Names(), p.Names())
	}
	return nil
}

// ValidateMembership runs the raising membership check, then the strict
// exact-type check. Parameters legitimately absent under the hierarchical
// structure are skipped.
func (h *HierarchicalSearchSpace) ValidateMembership(p Parameterization) error {
	if err := h.RequireMembership(p, true); err != nil {
		return err
	}
	skip := make(map[string]bool)
	for _, name := range h.ParameterNames() {
		if _, ok := p[name]; !ok {
			skip[name] = true
		}
	}
	return h.requireExactTypes(p, skip)
}

// CastArm casts the arm's values to canonical types, then restricts the
// parameterization to the hierarchical structure
func (h *HierarchicalSearchSpace) CastArm(arm *Arm) (*Arm, error) {
	flat, err := h.SearchSpace.CastArm(arm)
	if err != nil {
		return nil, err
	}
	cast, err := h.CastParameterization(flat.Parameters(), true)
	if err != nil {
		return nil, err
	}
	if arm.HasName() {
		return NewArm(cast, arm.Name()), nil
	}
	return NewUnnamedArm(cast), nil
}

// CastObservationFeatures casts the features' parameterization to the
// hierarchical structure, stashing the pre-cast full parameterization in
// the FullParameterization shadow field for later flattening
func (h *HierarchicalSearchSpace) CastObservationFeatures(obs *ObservationFeatures) (*ObservationFeatures, error) {
	cast, err := h.CastParameterization(obs.Parameters, false)
	if err != nil {
		return nil, err
	}
	out := obs.Clone()
	out.FullParameterization = obs.Parameters.Clone()
	out.Parameters = cast
	return out, nil
}

// FlattenOptions controls dummy-value completion during flattening
type FlattenOptions struct {
	// InjectDummyValues completes the flat parameterization with synthetic
	// values for parameters still missing after the stashed full
	// parameterization is restored
	InjectDummyValues bool
	// UseRandomDummyValues draws random values instead of deterministic
	// midpoints
	UseRandomDummyValues bool
	// RNG drives random draws; required when UseRandomDummyValues is set
	RNG *rand.Rand
}

// FlattenObservationFeatures restores the stashed full parameterization as
// a base, overlays any values present in the current (possibly re-cast)
// parameterization, and optionally synthesizes dummy values per missing
// parameter: fixed parameters use their value, choice parameters the middle
// (or random) element, range parameters the scale-aware midpoint (or a
// uniform draw).
func (h *HierarchicalSearchSpace) FlattenObservationFeatures(obs *ObservationFeatures, opts FlattenOptions) *ObservationFeatures {
	out := obs.Clone()
	if len(out.Parameters) == 0 && !out.HasFullParameterization() {
		return out
	}

	if out.HasFullParameterization() {
		merged := out.FullParameterization.Clone()
		for name, value := range out.Parameters {
			merged[name] = value
		}
		out.Parameters = merged
	}

	if len(out.Parameters) < h.NumParameters() {
		if opts.InjectDummyValues {
			for name, value := range h.dummyValues(out.Parameters, opts.UseRandomDummyValues, opts.RNG) {
				out.Parameters[name] = value
			}
		} else {
			log.Printf("[HierarchicalSearchSpace] cannot fully flatten %s: full parameterization "+
				"is not recorded and dummy injection is disabled", out.Parameters)
		}
	}
	return out
}

// dummyValues synthesizes a value for every declared parameter missing from
// the parameterization, dispatching on each variant's own midpoint/sample
// capability
func (h *HierarchicalSearchSpace) dummyValues(present Parameterization, random bool, rng *rand.Rand) Parameterization {
	if random && rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	dummy := make(Parameterization)
	for _, p := range h.Parameters() {
		if _, ok := present[p.Name()]; ok {
			continue
		}
		if random {
			dummy[p.Name()] = p.Sample(rng)
		} else {
			dummy[p.Name()] = p.Midpoint()
		}
	}
	return dummy
}

// HierarchicalStructureString renders the tree: value branches indented one
// level under their governing parameter, dependent parameters one level
// under the value branch.
func (h *HierarchicalSearchSpace) HierarchicalStructureString(parameterNamesOnly bool) string {
	var b strings.Builder
	h.renderNode(&b, h.root, 0, parameterNamesOnly)
	return b.String()
}

func (h *HierarchicalSearchSpace) renderNode(b *strings.Builder, p param.Parameter, level int, namesOnly bool) {
	node := p.String()
	if namesOnly {
		node = p.Name()
	}
	b.WriteString(strings.Repeat("\t", level))
	b.WriteString(node)
	b.WriteString("\n")
	if !p.IsHierarchical() {
		return
	}
	for _, val := range p.DependentBranches() {
		b.WriteString(strings.Repeat("\t", level+1))
		b.WriteString(fmt.Sprintf("(%v)", val))
		b.WriteString("\n")
		for _, depName := range p.Dependents()[val] {
			if dep, err := h.Parameter(depName); err == nil {
				h.renderNode(b, dep, level+2, namesOnly)
			}
		}
	}
}

// Clone returns a deep copy, re-proving the tree on the cloned parts
func (h *HierarchicalSearchSpace) Clone() *HierarchicalSearchSpace {
	flat := h.SearchSpace.Clone()
	clone, err := NewHierarchicalSearchSpace(flat.Parameters(), flat.Constraints())
	if err != nil {
		panic(err)
	}
	return clone
}

func sameKeys(a, b Parameterization) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}
	return true
}
