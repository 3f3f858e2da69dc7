package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/internal/util"
)

var logicCmd = &cobra.Command{
	Use:   "logic <schematic>",
	Short: "Evaluate the logic gates of a schematic",
	Long: `Propagate levels through the gates in dependency order without an
analog solve. Unwired inputs take their configured static level.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchematic(args[0])
		if err != nil {
			return err
		}

		res := newEngine().Logic(s.Components, s.Wires)
		if jsonOutput {
			return printJSON(res)
		}

		fmt.Println("\nGate       Type       Inputs                 Output")
		fmt.Println("------------------------------------------------------")
		for _, id := range res.Order {
			gr := res.Gates[id]
			inputs := make([]string, 0, len(gr.Inputs))
			for _, port := range util.SortedKeys(gr.Inputs) {
				inputs = append(inputs, port+"="+gr.Inputs[port].String())
			}
			out := gr.Output.String()
			if gr.OutputVoltage != nil {
				out += " (" + util.FormatValueFactor(*gr.OutputVoltage, "V") + ")"
			}
			fmt.Printf("%-10s %-10s %-22s %s\n", id, gr.Type, strings.Join(inputs, " "), out)
		}
		if !res.Settled {
			fmt.Printf("\nwarning: gates did not settle after %d passes\n", res.Passes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logicCmd)
}
