package searchspace

import (
	"fmt"
	"strings"

	"gotune/domain/param"
)

// SummaryRow is the tabular projection of one parameter, consumed by
// reporting adapters (markdown/HTML reports, spreadsheet export).
type SummaryRow struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Domain      string `json:"domain"`
	Datatype    string `json:"datatype"`
	Flags       string `json:"flags,omitempty"`
	TargetValue string `json:"target_value,omitempty"`
	Dependents  string `json:"dependents,omitempty"`
}

// SummaryColumns is the canonical column order for rendered summaries
var SummaryColumns = []string{
	"Name", "Type", "Domain", "Datatype", "Flags", "Target Value", "Dependent Parameters",
}

// SummaryRows projects each parameter onto one row, in declaration order
func (s *SearchSpace) SummaryRows() []SummaryRow {
	rows := make([]SummaryRow, 0, s.NumParameters())
	for _, p := range s.Parameters() {
		rows = append(rows, summaryRow(p))
	}
	return rows
}

func summaryRow(p param.Parameter) SummaryRow {
	row := SummaryRow{
		Name:     p.Name(),
		Type:     kindTitle(p.Kind()),
		Domain:   p.DomainString(),
		Datatype: string(p.Type()),
		Flags:    strings.Join(parameterFlags(p), ", "),
	}
	if p.TargetValue() != nil {
		row.TargetValue = fmt.Sprintf("%v", p.TargetValue())
	}
	if p.IsHierarchical() {
		row.Dependents = renderDependents(p)
	}
	return row
}

func kindTitle(k param.Kind) string {
	switch k {
	case param.KindRange:
		return "Range"
	case param.KindChoice:
		return "Choice"
	case param.KindFixed:
		return "Fixed"
	}
	return string(k)
}

func parameterFlags(p param.Parameter) []string {
	var flags []string
	if p.IsFidelity() {
		flags = append(flags, "fidelity")
	}
	if rp, ok := p.(*param.RangeParameter); ok {
		if rp.LogScale() {
			flags = append(flags, "log_scale")
		}
		if rp.LogitScale() {
			flags = append(flags, "logit_scale")
		}
	}
	if cp, ok := p.(*param.ChoiceParameter); ok {
		if cp.Ordered() {
			flags = append(flags, "ordered")
		}
		if cp.IsTask() {
			flags = append(flags, "task")
		}
	}
	if p.IsHierarchical() {
		flags = append(flags, "hierarchical")
	}
	return flags
}

// renderDependents walks the branches in the parameter's declared value
// order so rendered rows are stable across runs
func renderDependents(p param.Parameter) string {
	deps := p.Dependents()
	branches := make([]string, 0, len(deps))
	for _, v := range p.DependentBranches() {
		branches = append(branches, fmt.Sprintf("%v -> [%s]", v, strings.Join(deps[v], ", ")))
	}
	return strings.Join(branches, "; ")
}
