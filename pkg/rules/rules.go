// Package rules is the static design-rule checker. It inspects the node
// graph of a schematic and never solves a matrix. ERROR violations mean the
// schematic must not be simulated; WARNING and INFO are advisory.
package rules

import (
	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Rule ids
const (
	RuleNoGround          = "PWR-001"
	RuleShortedSource     = "PWR-002"
	RuleDanglingNode      = "TOP-001"
	RuleNoReturnPath      = "TOP-002"
	RuleCapacitorOnSource = "REA-001"
	RuleInductorOnSource  = "REA-002"
	RuleUnlimitedLED      = "CUR-001"
	RuleUnlimitedJunction = "CUR-002"
	RuleDimLED            = "LED-001"
)

type Violation struct {
	RuleID         string   `json:"ruleId"`
	Severity       Severity `json:"severity"`
	ComponentIDs   []string `json:"componentIds"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type Options struct {
	RMinOhms     float64 `toml:"r_min_ohms" json:"rMinOhms"`
	TeachingMode bool    `toml:"teaching_mode" json:"teachingMode"` // promotes LED-001 to WARNING
}

func DefaultOptions() Options {
	return Options{RMinOhms: consts.DefaultRMinOhms}
}

func (o Options) withDefaults() Options {
	if o.RMinOhms <= 0 {
		o.RMinOhms = consts.DefaultRMinOhms
	}
	return o
}

type check func(t *topology, opts Options) []Violation

// checks run in this order; each sees the same topology.
var checks = []check{
	checkGround,
	checkShortedSources,
	checkReturnPaths,
	checkReactiveAcrossSources,
	checkUnlimitedLEDs,
	checkUnlimitedJunctions,
	checkDanglingNodes,
}

// Evaluate runs every pre-simulation rule over the schematic.
func Evaluate(components []circuit.Component, wires []circuit.Wire, opts Options) []Violation {
	opts = opts.withDefaults()
	t := newTopology(components, wires)

	var out []Violation
	for _, c := range checks {
		out = append(out, c(t, opts)...)
	}
	return out
}

// HasBlockingErrors reports whether any violation is an ERROR.
func HasBlockingErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Filter returns the violations with the given severity.
func Filter(violations []Violation, sev Severity) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == sev {
			out = append(out, v)
		}
	}
	return out
}

func checkGround(t *topology, _ Options) []Violation {
	for _, c := range t.comps {
		if c.Type == circuit.Ground {
			return nil
		}
	}
	return []Violation{{
		RuleID:         RuleNoGround,
		Severity:       SeverityError,
		Message:        "circuit has no ground reference",
		Recommendation: "add a ground component and wire it to the negative side of a source",
	}}
}
