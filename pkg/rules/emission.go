package rules

import (
	"fmt"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

// CheckLEDEmission runs after a successful DC solve. An LED carrying a
// positive current below the visible-emission level conducts but stays
// dark; that is INFO, or WARNING in teaching mode.
func CheckLEDEmission(components []circuit.Component, currents map[string]float64, opts Options) []Violation {
	sev := SeverityInfo
	if opts.TeachingMode {
		sev = SeverityWarning
	}

	var out []Violation
	for _, c := range components {
		if c.Type != circuit.LED {
			continue
		}
		i, ok := currents[c.ID]
		if !ok || i <= 0 || i >= consts.LEDEmitMinAmps {
			continue
		}
		out = append(out, Violation{
			RuleID:         RuleDimLED,
			Severity:       sev,
			ComponentIDs:   []string{c.ID},
			Message:        fmt.Sprintf("LED %s conducts %.3g mA, too little to light visibly", c.ID, i*1e3),
			Recommendation: "lower the series resistance",
		})
	}
	return out
}
