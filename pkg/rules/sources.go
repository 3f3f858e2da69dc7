package rules

import (
	"fmt"

	"github.com/edp1096/toy-circuit/pkg/circuit"
)

func checkShortedSources(t *topology, _ Options) []Violation {
	var out []Violation
	for _, s := range t.sources() {
		pos, neg, ok := t.terminals(s)
		if !ok || !t.sameGroup(pos, neg) {
			continue
		}
		msg := fmt.Sprintf("source %s is short-circuited", s.ID)
		if pos == neg {
			msg = fmt.Sprintf("source %s has both terminals on the same node", s.ID)
		}
		out = append(out, Violation{
			RuleID:         RuleShortedSource,
			Severity:       SeverityError,
			ComponentIDs:   []string{s.ID},
			Message:        msg,
			Recommendation: "put a load between the source terminals",
		})
	}
	return out
}

func checkReturnPaths(t *topology, _ Options) []Violation {
	var out []Violation
	for _, s := range t.sources() {
		pos, neg, ok := t.terminals(s)
		if !ok || pos == neg {
			continue
		}
		ug := t.reach(func(c *circuit.Component) bool { return c == s })
		if t.connected(ug, pos, neg) {
			continue
		}
		out = append(out, Violation{
			RuleID:         RuleNoReturnPath,
			Severity:       SeverityError,
			ComponentIDs:   []string{s.ID},
			Message:        fmt.Sprintf("source %s has no return path from its positive to its negative terminal", s.ID),
			Recommendation: "close the loop back to the source",
		})
	}
	return out
}

func checkReactiveAcrossSources(t *topology, _ Options) []Violation {
	var out []Violation
	for i := range t.comps {
		c := &t.comps[i]
		var rule, kind string
		switch c.Type {
		case circuit.Capacitor:
			rule, kind = RuleCapacitorOnSource, "capacitor"
		case circuit.Inductor:
			rule, kind = RuleInductorOnSource, "inductor"
		default:
			continue
		}
		a, b, ok := t.terminals(c)
		if !ok {
			continue
		}

		for _, s := range t.sources() {
			pos, neg, ok := t.terminals(s)
			if !ok {
				continue
			}
			across := (t.sameGroup(a, pos) && t.sameGroup(b, neg)) ||
				(t.sameGroup(a, neg) && t.sameGroup(b, pos))
			if !across {
				continue
			}
			out = append(out, Violation{
				RuleID:         rule,
				Severity:       SeverityWarning,
				ComponentIDs:   []string{c.ID, s.ID},
				Message:        fmt.Sprintf("%s %s sits directly across source %s", kind, c.ID, s.ID),
				Recommendation: "add a series resistance to limit the inrush current",
			})
		}
	}
	return out
}

// checkUnlimitedLEDs looks for a loop from a source through an LED, in its
// forward direction, that crosses no limiting component.
func checkUnlimitedLEDs(t *topology, opts Options) []Violation {
	var out []Violation
	for i := range t.comps {
		led := &t.comps[i]
		if led.Type != circuit.LED {
			continue
		}
		anode, cathode, ok := t.terminals(led)
		if !ok {
			continue
		}

		for _, s := range t.sources() {
			pos, neg, ok := t.terminals(s)
			if !ok {
				continue
			}
			ug := t.reach(func(c *circuit.Component) bool {
				return c == s || c == led || limits(c, opts.RMinOhms)
			})
			if !t.connected(ug, pos, anode) || !t.connected(ug, cathode, neg) {
				continue
			}
			out = append(out, Violation{
				RuleID:         RuleUnlimitedLED,
				Severity:       SeverityError,
				ComponentIDs:   []string{led.ID, s.ID},
				Message:        fmt.Sprintf("LED %s is driven by %s without a current-limiting resistor", led.ID, s.ID),
				Recommendation: fmt.Sprintf("add a series resistor of at least %g Ω", opts.RMinOhms),
			})
		}
	}
	return out
}

// checkUnlimitedJunctions flags diodes, LEDs and transistors with one
// terminal shorted to each side of a source.
func checkUnlimitedJunctions(t *topology, _ Options) []Violation {
	var out []Violation
	for i := range t.comps {
		d := &t.comps[i]
		if !d.Type.IsNonLinear() {
			continue
		}
		nodes := t.graph.ComponentNodes(d.ID)

		for _, s := range t.sources() {
			pos, neg, ok := t.terminals(s)
			if !ok {
				continue
			}
			if !spans(t, nodes, pos, neg) {
				continue
			}
			out = append(out, Violation{
				RuleID:         RuleUnlimitedJunction,
				Severity:       SeverityWarning,
				ComponentIDs:   []string{d.ID, s.ID},
				Message:        fmt.Sprintf("%s is connected straight across source %s", d.ID, s.ID),
				Recommendation: "limit the current with a series resistor",
			})
		}
	}
	return out
}

// spans reports whether two distinct terminals sit in the groups of pos
// and neg respectively.
func spans(t *topology, nodes []string, pos, neg string) bool {
	for i, a := range nodes {
		if !t.sameGroup(a, pos) {
			continue
		}
		for j, b := range nodes {
			if i != j && t.sameGroup(b, neg) {
				return true
			}
		}
	}
	return false
}
