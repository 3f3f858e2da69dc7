package cmd

import (
	"github.com/spf13/cobra"
)

var dcCmd = &cobra.Command{
	Use:   "dc <schematic>",
	Short: "Compute the DC operating point",
	Args:  cobra.ExactArgs(1),
	RunE:  runDC,
}

func init() {
	rootCmd.AddCommand(dcCmd)
}

func runDC(cmd *cobra.Command, args []string) error {
	s, err := loadSchematic(args[0])
	if err != nil {
		return err
	}

	res := newEngine().SimulateDC(s.Components, s.Wires)
	if jsonOutput {
		if err := printJSON(res); err != nil {
			return err
		}
		return resultError(res.Success, res.Error)
	}

	printViolations(res.RuleViolations)
	if res.Success {
		printDC(res.DCResult, nodeLabels(s.Components, s.Wires))
	}
	return resultError(res.Success, res.Error)
}
