package cmd

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/schematic"
)

var (
	tranStart  float64
	tranEnd    float64
	tranStep   float64
	tranStream bool
)

var tranCmd = &cobra.Command{
	Use:   "tran <schematic>",
	Short: "Run a transient analysis",
	Long: `Run a transient analysis with backward-Euler companion models.

Options come from the settings file, then the schematic's .tran line,
then any flag given on the command line. A zero step picks one from the
fastest AC source.`,
	Args: cobra.ExactArgs(1),
	RunE: runTran,
}

func init() {
	rootCmd.AddCommand(tranCmd)

	tranCmd.Flags().Float64Var(&tranStart, "start", 0, "start time (s)")
	tranCmd.Flags().Float64Var(&tranEnd, "end", 0, "end time (s)")
	tranCmd.Flags().Float64Var(&tranStep, "step", 0, "time step (s), 0 for automatic")
	tranCmd.Flags().BoolVar(&tranStream, "stream", false, "advance in batches and print points as they are produced")
}

// tranOptions layers config, schematic directive and flags.
func tranOptions(cmd *cobra.Command, s *schematic.Schematic) analysis.TransientOptions {
	opts := cfg.TransientOptions()
	if t := s.Analysis.Transient; t != nil {
		if t.EndTime > 0 {
			opts.EndTime = t.EndTime
		}
		if t.TimeStep > 0 {
			opts.TimeStep = t.TimeStep
		}
		if t.StartTime > 0 {
			opts.StartTime = t.StartTime
		}
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		opts.StartTime = tranStart
	}
	if flags.Changed("end") {
		opts.EndTime = tranEnd
	}
	if flags.Changed("step") {
		opts.TimeStep = tranStep
	}
	if opts.EndTime <= 0 {
		opts.EndTime = cfg.Transient.EndTime
	}
	return opts
}

func runTran(cmd *cobra.Command, args []string) error {
	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}
	opts := tranOptions(cmd, s)
	if tranStream {
		return streamTran(s, opts)
	}

	res := newEngine().SimulateTransient(s.Components, s.Wires, opts)
	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
		return resultError(res.Success, res.Error)
	}

	printViolations(res.RuleViolations)
	if res.Success {
		printTransient(res.TimePoints, res.NodeVoltageHistory, res.BranchCurrentHistory, nodeLabels(s.Components, s.Wires))
		if res.NonConvergedSteps > 0 {
			fmt.Printf("\nwarning: %d steps did not converge\n", res.NonConvergedSteps)
		}
	}
	return resultError(res.Success, res.Error)
}

func streamTran(s *schematic.Schematic, opts analysis.TransientOptions) error {
	st, vs, err := newEngine().NewStreamer(s.Components, s.Wires, opts)
	if !jsonOutput {
		printViolations(vs)
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	defer st.Dispose()

	labels := nodeLabels(s.Components, s.Wires)
	slog.Debug("streaming transient", "step", st.TimeStep(), "end", opts.EndTime, "batch", cfg.Transient.BatchSize)
	if !jsonOutput {
		printTransientHeader()
	}

	for {
		remaining := int(math.Floor((opts.EndTime-st.Time())/st.TimeStep() + 1e-9))
		if remaining <= 0 {
			return nil
		}
		pts, err := st.StepBatch(min(remaining, cfg.Transient.BatchSize))
		if err := emitPoints(pts, opts.StartTime, labels); err != nil {
			return err
		}
		if err != nil {
			return fmt.Errorf("simulation failed at t=%g: %w", st.Time(), err)
		}
	}
}

func emitPoints(pts []analysis.StreamingPoint, start float64, labels map[string]string) error {
	for _, pt := range pts {
		if pt.Time+1e-12 < start {
			continue
		}
		if jsonOutput {
			if err := printJSON(pt); err != nil {
				return err
			}
			continue
		}
		printPoint(pt.Time, pt.NodeVoltages, pt.BranchCurrents, labels)
	}
	return nil
}
