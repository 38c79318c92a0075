// Package report renders human-readable search space reports. Reports are
// composed as markdown and rendered to HTML for the UI server.
package report

import (
	"fmt"
	"strings"

	"gotune/domain/param"
	"gotune/domain/searchspace"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Renderer builds markdown reports for search spaces and renders them to HTML
type Renderer struct{}

// NewRenderer creates a report renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// SpaceReport carries everything a report needs; the optional sections are
// rendered only when set.
type SpaceReport struct {
	Name        string
	Kind        string
	Rows        []searchspace.SummaryRow
	Constraints []param.Constraint

	// Hierarchical spaces only
	TreeRendering string

	// Robust spaces only
	NumSamples     int
	Distributions  []*param.Distribution
	Environmental  []string
	Multiplicative bool
}

// Markdown composes the report as a markdown document
func (r *Renderer) Markdown(report SpaceReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Search Space: %s\n\n", report.Name)
	fmt.Fprintf(&b, "Kind: `%s`\n\n", report.Kind)

	b.WriteString("## Parameters\n\n")
	b.WriteString("| " + strings.Join(searchspace.SummaryColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(searchspace.SummaryColumns)) + "\n")
	for _, row := range report.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			row.Name, row.Type, row.Domain, row.Datatype,
			orDash(row.Flags), orDash(row.TargetValue), orDash(row.Dependents))
	}
	b.WriteString("\n")

	if len(report.Constraints) > 0 {
		b.WriteString("## Constraints\n\n")
		for _, c := range report.Constraints {
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
		b.WriteString("\n")
	}

	if report.TreeRendering != "" {
		b.WriteString("## Hierarchy\n\n")
		b.WriteString("```\n")
		b.WriteString(report.TreeRendering)
		b.WriteString("```\n\n")
	}

	if len(report.Distributions) > 0 {
		b.WriteString("## Distributions\n\n")
		fmt.Fprintf(&b, "Monte Carlo samples per draw: %d\n\n", report.NumSamples)
		if len(report.Environmental) > 0 {
			fmt.Fprintf(&b, "Environmental variables: %s\n\n", strings.Join(report.Environmental, ", "))
		}
		polarity := "additive"
		if report.Multiplicative {
			polarity = "multiplicative"
		}
		fmt.Fprintf(&b, "Perturbation polarity: %s\n\n", polarity)
		for _, d := range report.Distributions {
			fmt.Fprintf(&b, "- `%s`\n", d)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the report markdown to an HTML fragment
func (r *Renderer) HTML(report SpaceReport) []byte {
	md := r.Markdown(report)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
