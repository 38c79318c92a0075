package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gotune/adapters/codec"
	"gotune/adapters/excel"
	"gotune/adapters/report"
	"gotune/domain/searchspace"
	"gotune/internal/rng"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gotune-cli",
		Short: "gotune CLI for inspecting search space definitions",
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newCheckCmd(),
		newDigestCmd(),
		newReportCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [definition-file]",
		Short: "Validate a search space definition and print its summary",
		Long: `Decode a JSON search space definition, running all structural checks:
bound ordering, choice cardinality, constraint applicability, hierarchy
totality and robust distribution partitioning.

Example: gotune-cli validate space.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := loadDefinition(args[0])
			if err != nil {
				return err
			}

			base := baseSpace(decoded)
			fmt.Printf("Kind: %s\n", decoded.Kind)
			fmt.Printf("Parameters: %d\n", base.NumParameters())
			fmt.Printf("Constraints: %d\n", len(base.Constraints()))
			fmt.Println()
			printSummary(base.SummaryRows())
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var checkAll bool

	cmd := &cobra.Command{
		Use:   "check [definition-file] [params-json]",
		Short: "Check a parameterization for membership",
		Long: `Evaluate a candidate parameterization against a space's membership
semantics. The candidate is given as a JSON object.

Example: gotune-cli check space.json '{"x1": 0.4, "x2": 0.2}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := loadDefinition(args[0])
			if err != nil {
				return err
			}

			var raw map[string]interface{}
			if err := json.Unmarshal([]byte(args[1]), &raw); err != nil {
				return fmt.Errorf("invalid parameterization JSON: %w", err)
			}
			p := make(searchspace.Parameterization, len(raw))
			for name, v := range raw {
				p[name] = v
			}

			if err := requireMembership(decoded, p, checkAll); err != nil {
				fmt.Printf("NOT A MEMBER: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("MEMBER")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkAll, "check-all", true, "Require every applicable parameter to be present")

	return cmd
}

func newDigestCmd() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "digest [definition-file]",
		Short: "Extract the model-facing digest of a space",
		Long: `Project a search space into its flat digest: feature names, bounds,
ordinal and categorical indices, discrete choices and fidelity targets.
Robust spaces additionally realize one draw matrix per sampler, seeded
deterministically.

Example: gotune-cli digest space.json --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := loadDefinition(args[0])
			if err != nil {
				return err
			}

			var digest *searchspace.SearchSpaceDigest
			if decoded.Robust != nil {
				stream, err := rng.New().SeededStream(context.Background(), "cli-digest", seed)
				if err != nil {
					return fmt.Errorf("failed to create RNG stream: %w", err)
				}
				digest, err = searchspace.ExtractRobustDigest(decoded.Robust, stream)
				if err != nil {
					return err
				}
			} else {
				digest, err = searchspace.ExtractDigest(baseSpace(decoded))
				if err != nil {
					return err
				}
			}

			fmt.Printf("Features: %v\n", digest.FeatureNames)
			fmt.Printf("Bounds: %v\n", digest.Bounds)
			if len(digest.OrdinalFeatures) > 0 {
				fmt.Printf("Ordinal: %v\n", digest.OrdinalFeatures)
			}
			if len(digest.CategoricalFeatures) > 0 {
				fmt.Printf("Categorical: %v\n", digest.CategoricalFeatures)
			}
			if len(digest.DiscreteChoices) > 0 {
				fmt.Printf("Discrete choices: %v\n", digest.DiscreteChoices)
			}
			if len(digest.FidelityFeatures) > 0 {
				fmt.Printf("Fidelity: %v (targets %v)\n", digest.FidelityFeatures, digest.TargetValues)
			}
			if len(digest.TaskFeatures) > 0 {
				fmt.Printf("Task: %v\n", digest.TaskFeatures)
			}
			if digest.Robust != nil {
				if digest.Robust.SamplePerturbations != nil {
					fmt.Printf("Perturbation draws: %v\n", digest.Robust.SamplePerturbations())
				}
				if digest.Robust.SampleEnvironmental != nil {
					fmt.Printf("Environmental draws (%v): %v\n",
						digest.Robust.EnvironmentalVariables, digest.Robust.SampleEnvironmental())
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampler draws")

	return cmd
}

func newReportCmd() *cobra.Command {
	var name string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [definition-file]",
		Short: "Render a markdown report for a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := loadDefinition(args[0])
			if err != nil {
				return err
			}

			renderer := report.NewRenderer()
			rep := buildReport(decoded, name)
			if asHTML {
				os.Stdout.Write(renderer.HTML(rep))
				return nil
			}
			fmt.Print(renderer.Markdown(rep))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "unnamed", "Space name used in the report title")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")

	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [definition-file] [out.xlsx]",
		Short: "Export the parameter summary as an .xlsx workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := loadDefinition(args[0])
			if err != nil {
				return err
			}

			exporter := excel.NewSummaryExporter()
			return exporter.Export(baseSpace(decoded).SummaryRows(), args[0], args[1])
		},
	}
}

func loadDefinition(path string) (*codec.DecodedSpace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	decoded, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid space definition: %w", err)
	}
	return decoded, nil
}

func baseSpace(decoded *codec.DecodedSpace) *searchspace.SearchSpace {
	switch {
	case decoded.Hierarchical != nil:
		return &decoded.Hierarchical.SearchSpace
	case decoded.Robust != nil:
		return &decoded.Robust.SearchSpace
	default:
		return decoded.Flat
	}
}

func requireMembership(decoded *codec.DecodedSpace, p searchspace.Parameterization, checkAll bool) error {
	switch {
	case decoded.Hierarchical != nil:
		return decoded.Hierarchical.RequireMembership(p, checkAll)
	case decoded.Robust != nil:
		return decoded.Robust.RequireMembership(p, checkAll)
	default:
		return decoded.Flat.RequireMembership(p, checkAll)
	}
}

func buildReport(decoded *codec.DecodedSpace, name string) report.SpaceReport {
	rep := report.SpaceReport{
		Name: name,
		Kind: decoded.Kind,
		Rows: baseSpace(decoded).SummaryRows(),
	}
	rep.Constraints = baseSpace(decoded).Constraints()

	switch {
	case decoded.Hierarchical != nil:
		rep.TreeRendering = decoded.Hierarchical.HierarchicalStructureString(false)
	case decoded.Robust != nil:
		r := decoded.Robust
		rep.NumSamples = r.NumSamples()
		rep.Distributions = r.Distributions()
		rep.Environmental = r.EnvironmentalVariableNames()
		rep.Multiplicative = r.Multiplicative()
	}
	return rep
}

func printSummary(rows []searchspace.SummaryRow) {
	fmt.Printf("%-20s %-8s %-30s %-8s %s\n", "NAME", "TYPE", "DOMAIN", "DATATYPE", "FLAGS")
	for _, row := range rows {
		fmt.Printf("%-20s %-8s %-30s %-8s %s\n", row.Name, row.Type, row.Domain, row.Datatype, row.Flags)
	}
}
