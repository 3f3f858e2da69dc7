package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/pkg/rules"
)

var rulesSeverity string

var rulesCmd = &cobra.Command{
	Use:   "rules <schematic>",
	Short: "Check a schematic against the design rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchematic(args[0])
		if err != nil {
			return err
		}

		vs, checkErr := newEngine().Check(s.Components, s.Wires)
		if rulesSeverity != "" {
			vs = rules.Filter(vs, rules.Severity(strings.ToUpper(rulesSeverity)))
		}

		if jsonOutput {
			if err := printJSON(vs); err != nil {
				return err
			}
			return checkErr
		}

		if len(vs) == 0 {
			fmt.Println("No design rule violations")
		}
		printViolations(vs)
		return checkErr
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesSeverity, "severity", "", "only show ERROR, WARNING or INFO")
}
