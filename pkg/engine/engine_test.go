package engine

import (
	"errors"
	"testing"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/logic"
	"github.com/edp1096/toy-circuit/pkg/rules"
)

func twoPort(id string, typ circuit.ComponentType, value float64) circuit.Component {
	return circuit.Component{ID: id, Type: typ, Value: value, Ports: []circuit.Port{{ID: "p"}, {ID: "n"}}}
}

func w(fc, fp, tc, tp string) circuit.Wire {
	return circuit.Wire{FromComponentID: fc, FromPortID: fp, ToComponentID: tc, ToPortID: tp}
}

var gnd = circuit.Component{ID: "GND", Type: circuit.Ground, Ports: []circuit.Port{{ID: "g"}}}

func hasRule(vs []rules.Violation, id string) bool {
	for _, v := range vs {
		if v.RuleID == id {
			return true
		}
	}
	return false
}

func TestSimulateDCBlockedByRules(t *testing.T) {
	// two closed switches straight across the source
	comps := []circuit.Component{
		twoPort("V1", circuit.DCSource, 5),
		twoPort("S1", circuit.Switch, 0),
		twoPort("S2", circuit.Switch, 0),
		gnd,
	}
	wires := []circuit.Wire{
		w("V1", "p", "S1", "p"), w("S1", "n", "V1", "n"),
		w("V1", "p", "S2", "p"), w("S2", "n", "V1", "n"),
		w("V1", "n", "GND", "g"),
	}

	rep := New(Options{}).SimulateDC(comps, wires)
	if rep.Success {
		t.Fatalf("expected failure, got %v", rep.NodeVoltages)
	}
	if !errors.Is(rep.Err, ErrRuleViolation) {
		t.Errorf("expected ErrRuleViolation, got %v", rep.Err)
	}
	if !hasRule(rep.RuleViolations, rules.RuleShortedSource) {
		t.Errorf("expected %s among %+v", rules.RuleShortedSource, rep.RuleViolations)
	}
	if len(rep.NodeVoltages) != 0 {
		t.Errorf("solver must not run, got %v", rep.NodeVoltages)
	}
}

func dimLED() ([]circuit.Component, []circuit.Wire) {
	comps := []circuit.Component{
		twoPort("V1", circuit.DCSource, 5),
		twoPort("R1", circuit.Resistor, 10000),
		twoPort("LED1", circuit.LED, 2),
		gnd,
	}
	wires := []circuit.Wire{
		w("V1", "p", "R1", "p"),
		w("R1", "n", "LED1", "p"),
		w("LED1", "n", "GND", "g"),
		w("V1", "n", "GND", "g"),
	}
	return comps, wires
}

func TestSimulateDCEmission(t *testing.T) {
	comps, wires := dimLED()

	tests := []struct {
		name     string
		teaching bool
		severity rules.Severity
	}{
		{"default", false, rules.SeverityInfo},
		{"teaching", true, rules.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := New(Options{Rules: rules.Options{TeachingMode: tt.teaching}}).SimulateDC(comps, wires)
			if !rep.Success {
				t.Fatalf("unexpected failure: %s", rep.Error)
			}
			if i := rep.BranchCurrents["LED1"]; i <= 0 || i >= 1e-3 {
				t.Fatalf("expected a sub-milliamp LED current, got %v", i)
			}

			var got *rules.Violation
			for i := range rep.RuleViolations {
				if rep.RuleViolations[i].RuleID == rules.RuleDimLED {
					got = &rep.RuleViolations[i]
				}
			}
			if got == nil || got.Severity != tt.severity {
				t.Errorf("expected %s %s, got %+v", tt.severity, rules.RuleDimLED, rep.RuleViolations)
			}
		})
	}
}

func TestSimulateTransientAndAC(t *testing.T) {
	comps, wires := dimLED()
	e := New(Options{})

	tr := e.SimulateTransient(comps, wires, analysis.TransientOptions{EndTime: 1e-3, TimeStep: 1e-4})
	if !tr.Success || len(tr.TimePoints) != 10 {
		t.Errorf("expected 10 transient points, got %d (%s)", len(tr.TimePoints), tr.Error)
	}

	comps[0] = twoPort("V1", circuit.ACSource, 1)
	ac := e.SimulateAC(comps, wires, analysis.ACSweepOptions{StartFrequency: 10, EndFrequency: 1000, PointsPerDecade: 5})
	if !ac.Success || len(ac.Frequencies) != 11 {
		t.Errorf("expected 11 frequencies, got %d (%s)", len(ac.Frequencies), ac.Error)
	}
}

func TestNewStreamerBlocked(t *testing.T) {
	comps := []circuit.Component{twoPort("V1", circuit.DCSource, 5), twoPort("R1", circuit.Resistor, 100)}
	wires := []circuit.Wire{w("V1", "p", "R1", "p"), w("R1", "n", "V1", "n")}

	st, vs, err := New(Options{}).NewStreamer(comps, wires, analysis.TransientOptions{})
	if st != nil || !errors.Is(err, ErrRuleViolation) {
		t.Errorf("expected a blocked streamer, got %v, %v", st, err)
	}
	if !hasRule(vs, rules.RuleNoGround) {
		t.Errorf("expected %s among %+v", rules.RuleNoGround, vs)
	}
}

func TestLogic(t *testing.T) {
	comps := []circuit.Component{{
		ID: "U1", Type: circuit.NandGate,
		Ports:       []circuit.Port{{ID: "a"}, {ID: "b"}, {ID: "out"}},
		LogicInputs: map[string]bool{"a": true, "b": true},
	}}

	res := New(Options{}).Logic(comps, nil)
	if got := res.Gates["U1"].Output; got != logic.Low {
		t.Errorf("expected LOW, got %v", got)
	}
}
