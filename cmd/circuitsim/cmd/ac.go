package cmd

import (
	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/schematic"
)

var (
	acStart  float64
	acStop   float64
	acPoints int
	acLinear bool
)

var acCmd = &cobra.Command{
	Use:   "ac <schematic>",
	Short: "Run an AC frequency sweep",
	Long: `Solve the small-signal phasor system across a frequency sweep and report
series and parallel resonances found in component impedance phase.`,
	Args: cobra.ExactArgs(1),
	RunE: runAC,
}

func init() {
	rootCmd.AddCommand(acCmd)

	acCmd.Flags().Float64Var(&acStart, "start", 0, "start frequency (Hz)")
	acCmd.Flags().Float64Var(&acStop, "stop", 0, "stop frequency (Hz)")
	acCmd.Flags().IntVar(&acPoints, "ppd", 0, "points per decade, or total steps with --linear")
	acCmd.Flags().BoolVar(&acLinear, "linear", false, "linear instead of logarithmic spacing")
}

func acOptions(cmd *cobra.Command, s *schematic.Schematic) analysis.ACSweepOptions {
	opts := cfg.ACOptions()
	if a := s.Analysis.AC; a != nil {
		opts.StartFrequency = a.StartFrequency
		opts.EndFrequency = a.EndFrequency
		opts.PointsPerDecade = a.PointsPerDecade
		if a.SweepType != "" {
			opts.SweepType = a.SweepType
		}
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		opts.StartFrequency = acStart
	}
	if flags.Changed("stop") {
		opts.EndFrequency = acStop
	}
	if flags.Changed("ppd") {
		opts.PointsPerDecade = acPoints
	}
	if acLinear {
		opts.SweepType = analysis.Linear
	}
	return opts
}

func runAC(cmd *cobra.Command, args []string) error {
	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}

	res := newEngine().SimulateAC(s.Components, s.Wires, acOptions(cmd, s))
	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
		return resultError(res.Success, res.Error)
	}

	printViolations(res.RuleViolations)
	if len(res.FrequencyPoints) > 0 {
		printAC(res.ACSweepResult, nodeLabels(s.Components, s.Wires))
	}
	return resultError(res.Success, res.Error)
}
