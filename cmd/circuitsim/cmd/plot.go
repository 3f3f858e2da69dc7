package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/plotting"
	"github.com/edp1096/toy-circuit/pkg/schematic"
)

var (
	plotOutput string
	plotNodes  []string
	plotTitle  string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render analysis results to an image",
	Long: `Render a transient waveform or a Bode plot. The image format follows the
output extension (png, svg, pdf, ...). Nodes are named by a port on them,
for example R1.n.`,
}

var plotTranCmd = &cobra.Command{
	Use:   "tran <schematic>",
	Short: "Plot node voltages against time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchematic(args[0])
		if err != nil {
			return err
		}
		nodes, err := resolveNodes(s, plotNodes)
		if err != nil {
			return err
		}

		res := newEngine().SimulateTransient(s.Components, s.Wires, tranOptions(cmd, s))
		printViolations(res.RuleViolations)
		if err := resultError(res.Success, res.Error); err != nil {
			return err
		}

		if err := plotting.WriteTransient(plotOutput, res.TransientResult, nodes, plotOptions(s)); err != nil {
			return err
		}
		slog.Info("plot written", "path", plotOutput)
		return nil
	},
}

var plotBodeCmd = &cobra.Command{
	Use:   "bode <schematic>",
	Short: "Plot magnitude and phase of one node voltage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchematic(args[0])
		if err != nil {
			return err
		}
		if len(plotNodes) != 1 {
			return fmt.Errorf("bode plot needs exactly one node (-n)")
		}
		nodes, err := resolveNodes(s, plotNodes)
		if err != nil {
			return err
		}

		res := newEngine().SimulateAC(s.Components, s.Wires, acOptions(cmd, s))
		printViolations(res.RuleViolations)
		if err := resultError(res.Success, res.Error); err != nil {
			return err
		}

		if err := plotting.WriteBode(plotOutput, res.ACSweepResult, nodes[0], plotOptions(s)); err != nil {
			return err
		}
		slog.Info("plot written", "path", plotOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.AddCommand(plotTranCmd, plotBodeCmd)

	plotCmd.PersistentFlags().StringVarP(&plotOutput, "output", "o", "plot.png", "output image file")
	plotCmd.PersistentFlags().StringSliceVarP(&plotNodes, "node", "n", nil, "node to plot, as component.port (repeatable)")
	plotCmd.PersistentFlags().StringVar(&plotTitle, "title", "", "plot title (defaults to the schematic title)")

	plotTranCmd.Flags().Float64Var(&tranStart, "start", 0, "start time (s)")
	plotTranCmd.Flags().Float64Var(&tranEnd, "end", 0, "end time (s)")
	plotTranCmd.Flags().Float64Var(&tranStep, "step", 0, "time step (s), 0 for automatic")

	plotBodeCmd.Flags().Float64Var(&acStart, "start", 0, "start frequency (Hz)")
	plotBodeCmd.Flags().Float64Var(&acStop, "stop", 0, "stop frequency (Hz)")
	plotBodeCmd.Flags().IntVar(&acPoints, "ppd", 0, "points per decade")
}

func plotOptions(s *schematic.Schematic) plotting.Options {
	title := plotTitle
	if title == "" {
		title = s.Title
	}
	return plotting.Options{Title: title}
}

// resolveNodes maps "R1.n" references onto solver node ids.
func resolveNodes(s *schematic.Schematic, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	g := circuit.Build(s.Components, s.Wires)
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		comp, port, ok := strings.Cut(ref, ".")
		if !ok {
			return nil, fmt.Errorf("node %q: expected component.port", ref)
		}
		id, ok := g.NodeOf(comp, port)
		if !ok {
			return nil, fmt.Errorf("node %q: no such port", ref)
		}
		if id == consts.GroundNodeID {
			return nil, fmt.Errorf("node %q is ground", ref)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
