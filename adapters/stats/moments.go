// Package stats computes empirical diagnostics over digest sampler draws.
// Consumers use these to sanity-check that a robust space's samplers
// actually produce the declared distributions.
package stats

import (
	"fmt"

	"gotune/domain/searchspace"

	"github.com/montanaflynn/stats"
)

// ColumnMoments summarizes one sampled feature column
type ColumnMoments struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// SamplerDiagnostics carries per-column moments for one sampler
type SamplerDiagnostics struct {
	Columns []ColumnMoments `json:"columns"`
	Samples int             `json:"samples"`
}

// Analyzer computes moments over sampler draws
type Analyzer struct{}

// NewAnalyzer creates a sampler analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeDraws computes per-column moments over a NumSamples x d draw
// matrix. Column names must match the draw width.
func (a *Analyzer) AnalyzeDraws(draws [][]float64, names []string) (*SamplerDiagnostics, error) {
	if len(draws) == 0 {
		return nil, fmt.Errorf("no draws to analyze")
	}
	width := len(draws[0])
	if len(names) != width {
		return nil, fmt.Errorf("have %d column names for draw width %d", len(names), width)
	}

	diag := &SamplerDiagnostics{Samples: len(draws)}
	for col := 0; col < width; col++ {
		column := make([]float64, 0, len(draws))
		for _, row := range draws {
			if len(row) != width {
				return nil, fmt.Errorf("ragged draw matrix: row width %d, expected %d", len(row), width)
			}
			column = append(column, row[col])
		}

		mean, err := stats.Mean(column)
		if err != nil {
			return nil, err
		}
		stdDev, err := stats.StandardDeviation(column)
		if err != nil {
			return nil, err
		}
		min, err := stats.Min(column)
		if err != nil {
			return nil, err
		}
		max, err := stats.Max(column)
		if err != nil {
			return nil, err
		}
		median, err := stats.Median(column)
		if err != nil {
			return nil, err
		}

		diag.Columns = append(diag.Columns, ColumnMoments{
			Name:   names[col],
			Mean:   mean,
			StdDev: stdDev,
			Min:    min,
			Max:    max,
			Median: median,
			Count:  len(column),
		})
	}

	return diag, nil
}

// AnalyzeRobustDigest runs both samplers of a robust digest and returns the
// diagnostics per sampler; a nil sampler yields a nil diagnostics entry.
func (a *Analyzer) AnalyzeRobustDigest(d *searchspace.SearchSpaceDigest, perturbedNames []string) (perturbations, environmental *SamplerDiagnostics, err error) {
	if d.Robust == nil {
		return nil, nil, fmt.Errorf("digest carries no robust section")
	}

	if d.Robust.SamplePerturbations != nil {
		perturbations, err = a.AnalyzeDraws(d.Robust.SamplePerturbations(), perturbedNames)
		if err != nil {
			return nil, nil, fmt.Errorf("perturbation sampler: %w", err)
		}
	}
	if d.Robust.SampleEnvironmental != nil {
		environmental, err = a.AnalyzeDraws(d.Robust.SampleEnvironmental(), d.Robust.EnvironmentalVariables)
		if err != nil {
			return nil, nil, fmt.Errorf("environmental sampler: %w", err)
		}
	}
	return perturbations, environmental, nil
}
