package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/pkg/analysis"
)

var (
	sweepSource string
	sweepFrom   float64
	sweepTo     float64
	sweepStep   float64
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <schematic>",
	Short: "Sweep a DC source and record the operating point",
	Long: `Step one DC source, or two nested ones from the schematic's .dc line,
and solve the operating point at every value.

Example:
  circuitsim sweep divider.cir --source V1 --from 0 --to 10 --step 1`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepSource, "source", "", "DC source to sweep")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value (V)")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0, "last value (V)")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 1, "increment (V)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}

	sources := s.Analysis.DCSweep
	if sweepSource != "" {
		sources = []analysis.SweepSource{{SourceID: sweepSource, Start: sweepFrom, Stop: sweepTo, Step: sweepStep}}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sweep given: use --source or a .dc line")
	}

	vs, err := newEngine().Check(s.Components, s.Wires)
	if !jsonOutput {
		printViolations(vs)
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	res := analysis.RunDCSweep(s.Components, s.Wires, analysis.DCSweepOptions{
		Sources:       sources,
		Solver:        cfg.Backend(),
		MaxIterations: cfg.Solver.MaxIterations,
	})
	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
		return resultError(res.Success, res.Error)
	}

	if res.Success {
		printDCSweep(res, sources, nodeLabels(s.Components, s.Wires))
	}
	return resultError(res.Success, res.Error)
}
